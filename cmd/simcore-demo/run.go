package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/e7canasta/simcore"
	"github.com/e7canasta/simcore/simbus"
	"github.com/e7canasta/simcore/simconfig"
	"github.com/e7canasta/simcore/simlog"
	"github.com/e7canasta/simcore/simprof"
	"github.com/e7canasta/simcore/workload"
)

var runFlags struct {
	configPath  string
	hz          float64
	frames      int64
	threads     int
	chunk       int
	elements    int
	adaptive    bool
	maxCatchUp  int
	spinMicros  int
	reduceEvery int64
	metricsAddr string
	logLevel    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the particle-integration example workload to completion",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.configPath, "config", "", "load Settings from a YAML file, overriding the flags below")
	f.Float64Var(&runFlags.hz, "hz", 1000, "micro-step rate in Hz")
	f.Int64Var(&runFlags.frames, "frames", 3000, "frame budget, -1 for endless")
	f.IntVar(&runFlags.threads, "threads", 2, "worker pool size")
	f.IntVar(&runFlags.chunk, "chunk", 128, "elements per dispatched chunk")
	f.IntVar(&runFlags.elements, "elements", 5000, "particle count")
	f.BoolVar(&runFlags.adaptive, "adaptive", false, "enable drift-driven catch-up")
	f.IntVar(&runFlags.maxCatchUp, "max-catch-up", 32, "extra frames per tick when adaptive catch-up is active")
	f.IntVar(&runFlags.spinMicros, "spin-micros", 200, "fine-wait spin budget before a deadline")
	f.Int64Var(&runFlags.reduceEvery, "reduce-every", 1000, "frames between deterministic-hash reductions")
	f.StringVar(&runFlags.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address while running")
	f.StringVar(&runFlags.logLevel, "log-level", "info", "trace, debug, info, warn, or error")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	settings := simcore.Settings{
		Hz: runFlags.hz, MaxFrames: runFlags.frames, Threads: runFlags.threads,
		ChunkSize: runFlags.chunk, Adaptive: runFlags.adaptive,
		MaxCatchUp: runFlags.maxCatchUp, SpinMicros: runFlags.spinMicros,
		DriftLogInterval: 250, MainHelps: true,
	}
	if runFlags.configPath != "" {
		loaded, err := simconfig.Load(runFlags.configPath)
		if err != nil {
			return err
		}
		settings = loaded
	}

	logger := simlog.New()
	logger.SetLevel(parseLevel(runFlags.logLevel))

	reg := prometheus.NewRegistry()
	profiler := simprof.New(reg)

	d := simcore.NewDriver(settings)
	defer d.Close()

	log := logger.WithRunID(d.RunID())
	d.SetLogger(log)
	d.SetProfiler(profiler)

	bus := simbus.New()
	defer bus.Close()
	d.SetEventBus(simbus.NewAdapter(bus))

	driftCh := make(chan simbus.FrameEvent, 16)
	if err := bus.Subscribe("cli", driftCh); err != nil {
		return err
	}
	go func() {
		for ev := range driftCh {
			fmt.Printf("frame=%d drift_ms=%.3f hash=%#016x\n", ev.Frame, ev.DriftMs, ev.DeterministicHash)
		}
	}()

	p := workload.New(runFlags.elements)
	p.ReduceEvery = runFlags.reduceEvery
	p.Wire(d)

	if runFlags.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", profiler.Handler())
		srv := &http.Server{Addr: runFlags.metricsAddr, Handler: mux}
		go srv.ListenAndServe()
		defer srv.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Log(simcore.LevelWarn, "shutdown signal received", nil)
		d.RequestExit()
	}()

	d.Run(ctx)
	signal.Stop(sigCh)

	fmt.Printf("final frame=%d pos0=%.6f vel0=%.6f hash=%#016x avg_vel=%.6f\n",
		d.Frame(), p.Position(0), p.Velocity(0), d.DeterministicHash(), p.LastAvgVel())

	return profiler.WriteSummary(os.Stdout)
}

func parseLevel(s string) simcore.Level {
	switch s {
	case "trace":
		return simcore.LevelTrace
	case "debug":
		return simcore.LevelDebug
	case "warn":
		return simcore.LevelWarn
	case "error":
		return simcore.LevelError
	default:
		return simcore.LevelInfo
	}
}
