package simcore

import (
	"context"
	"runtime"
	"time"
)

// Run starts the outer loop: it calls Advance until it returns false, or
// until ctx is done, whichever happens first. A context cancellation is
// treated the same as RequestExit — the in-flight frame still completes
// before Run returns (spec §5, "cancellation is cooperative").
func (d *Driver) Run(ctx context.Context) {
	d.running.Store(true)
	defer d.running.Store(false)

	now := time.Now().UnixNano()
	d.startReal = now
	d.nextFrameTarget = now

	d.logger.Log(LevelInfo, "run loop start", map[string]any{"run_id": d.runID})

	if ctx != nil {
		go func() {
			<-ctx.Done()
			d.RequestExit()
		}()
	}

	for d.Advance() {
	}

	d.logger.Log(LevelInfo, "run loop end", map[string]any{"frame": d.frame.Load()})
}

// Advance performs one scheduler tick (spec §4.4):
//
//  1. If terminate is set, or maxFrames has been reached, stop.
//  2. Execute one frame through the phase executor.
//  3. Advance the next deadline by dtMicro.
//  4. Wait until the deadline using a two-tier sleep/spin strategy.
//  5. Observe drift every DriftLogInterval frames (whether or not
//     Adaptive is set). If Adaptive, execute up to MaxCatchUp additional
//     frames back-to-back, without advancing the deadline, to recover
//     from positive drift.
//
// It returns false once the stop condition holds, so a bare
// `for d.Advance() {}` implements the run loop.
func (d *Driver) Advance() bool {
	if d.terminate.Load() {
		return false
	}
	s := d.settings.Load()
	if s.MaxFrames >= 0 && d.frame.Load() >= s.MaxFrames {
		return false
	}

	d.doOneStep()

	t := d.tmg.Load()
	d.nextFrameTarget += int64(t.dtMicro)
	d.waitForDeadline(s.SpinMicros)

	if s.Adaptive {
		d.logDrift(s)
		d.catchUp(s, t)
	} else {
		d.logDrift(s)
	}

	return !(s.MaxFrames >= 0 && d.frame.Load() >= s.MaxFrames)
}

// waitForDeadline blocks until time.Now() >= nextFrameTarget. Far from
// the deadline it sleeps in short increments (cheap, coarse); inside the
// spin budget it yields in a tight loop (expensive, precise). Sleep
// alone is too coarse (>=1ms on typical OSes) to hit sub-millisecond
// deadlines; spinning alone wastes CPU at long deadlines (spec §4.4).
func (d *Driver) waitForDeadline(spinMicros int) {
	spinBudget := time.Duration(spinMicros) * time.Microsecond
	for {
		now := time.Now().UnixNano()
		if now+int64(spinBudget) >= d.nextFrameTarget {
			for time.Now().UnixNano() < d.nextFrameTarget {
				runtime.Gosched()
			}
			return
		}
		time.Sleep(50 * time.Microsecond)
	}
}

// catchUp executes extra frames, bounded by MaxCatchUp, to recover
// positive drift without sleeping between them. Catch-up frames do not
// advance nextFrameTarget; the following normal tick re-anchors to now,
// which can briefly make the next reported drift negative (spec §9).
func (d *Driver) catchUp(s *Settings, t *timing) {
	behind := time.Now().UnixNano() - d.nextFrameTarget
	if behind <= 0 {
		return
	}
	extra := int(behind / int64(t.dtMicro))
	if extra > s.MaxCatchUp {
		extra = s.MaxCatchUp
	}
	for i := 0; i < extra; i++ {
		if s.MaxFrames >= 0 && d.frame.Load() >= s.MaxFrames {
			return
		}
		d.doOneStep()
	}
}

// logDrift publishes a drift observation every DriftLogInterval frames:
// simT is the simulated elapsed time, realT is wall-clock elapsed time
// since Run started, and driftMs is their difference in milliseconds
// (positive: simulation ahead of wall clock).
func (d *Driver) logDrift(s *Settings) {
	if s.DriftLogInterval <= 0 {
		return
	}
	frame := d.frame.Load()
	if frame%int64(s.DriftLogInterval) != 0 {
		return
	}
	t := d.tmg.Load()
	simT := float64(frame) * t.dtMicro.Seconds()
	realT := time.Duration(time.Now().UnixNano() - d.startReal).Seconds()
	driftMs := (simT - realT) * 1000.0
	d.setLastDriftMs(driftMs)
	d.logger.Log(LevelInfo, "drift observed", map[string]any{
		"frame": frame, "sim_t_s": simT, "real_t_s": realT, "drift_ms": driftMs,
	})
	d.events.Publish(FrameEvent{
		Frame:             frame,
		DriftMs:           driftMs,
		DeterministicHash: d.deterministicHash.Load(),
	})
}
