package simcore

import (
	"strconv"
	"time"
)

// doOneStep runs one frame through the phase pipeline (spec §4.3): for
// every enabled phase, in insertion order, serial subsystems run on the
// calling goroutine, then each parallel range task is dispatched across
// the worker pool (or run inline when that would not help; skipped when
// the phase's element count is zero), then reductions run serially. The frame counter is incremented once, after
// every phase has completed.
func (d *Driver) doOneStep() {
	endFrame := d.profiler.Scope("Frame")
	defer endFrame()

	frame := d.frame.Load()
	dt := d.tmg.Load().dtMicro
	threads := d.pool.Threads()

	for _, p := range d.phases {
		if !p.enabled {
			continue
		}
		d.runPhase(p, frame, dt, threads)
	}

	d.frame.Add(1)
}

func (d *Driver) runPhase(p *phase, frame int64, dt time.Duration, threads int) {
	logPhases := d.settings.Load().LogPhases
	if logPhases {
		d.logger.Log(LevelDebug, "PhaseBegin", map[string]any{"phase": p.name, "frame": frame})
	}

	endPhase := d.profiler.Scope("Phase:" + p.name)
	defer endPhase()

	for _, sub := range p.serial {
		sub(frame, dt)
	}

	chunkSize := d.settings.Load().ChunkSize
	dispatch := threads > 1 && len(p.parallel) > 0 && p.elementCount > 0
	for i, rt := range p.parallel {
		label := "RangeTask:" + p.name + ":" + strconv.Itoa(i)
		end := d.profiler.Scope(label)
		if dispatch {
			d.pool.ParallelFor(func(begin, end int, frame int64, dt time.Duration) {
				rt(begin, end, frame, dt)
			}, p.elementCount, chunkSize, frame, dt)
		} else if p.elementCount > 0 {
			rt(0, p.elementCount, frame, dt)
		}
		end()
	}

	for _, red := range p.reductions {
		endRed := d.profiler.Scope("Reduction:" + p.name)
		red(frame, dt)
		endRed()
	}

	if logPhases {
		d.logger.Log(LevelDebug, "PhaseEnd", map[string]any{"phase": p.name, "frame": frame})
	}
}
