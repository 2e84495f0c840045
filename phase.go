package simcore

// PhaseHandle identifies a phase registered with a Driver. Handles are
// stable for the lifetime of the Driver; phases are never removed, only
// disabled (see SetPhaseEnabled).
type PhaseHandle int

// phase is a named, ordered bundle of serial subsystems, parallel range
// tasks, and reductions executed within a frame (spec §3). Within a
// frame, serial runs strictly before parallel, which runs strictly
// before reductions; the element domain is identical for every parallel
// task of a phase during a given frame.
type phase struct {
	name        string
	serial      []Subsystem
	parallel    []RangeTask
	reductions  []ReductionTask
	elementCount int
	enabled     bool
}

// AddPhase registers a new, enabled phase with the given element domain
// size (0 if the phase has no parallel range tasks) and returns its
// handle. Phases execute in the order they were added. Adding a phase
// while Run is executing is not supported (spec §4.5).
func (d *Driver) AddPhase(name string, elementCount int) PhaseHandle {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		panic(ErrRunning)
	}

	d.phases = append(d.phases, &phase{
		name:         name,
		elementCount: elementCount,
		enabled:      true,
	})
	h := PhaseHandle(len(d.phases) - 1)
	d.logger.Log(LevelDebug, "phase added", map[string]any{"phase": name, "elements": elementCount, "handle": int(h)})
	return h
}

// SetPhaseElementCount updates the iteration domain size for a phase's
// parallel range tasks.
func (d *Driver) SetPhaseElementCount(h PhaseHandle, count int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.phaseAt(h)
	if err != nil {
		return err
	}
	p.elementCount = count
	return nil
}

// SetPhaseEnabled toggles whether a phase runs for subsequent frames.
// A disabled phase is observationally equivalent to one with no work
// for the frames it is skipped (spec §8).
func (d *Driver) SetPhaseEnabled(h PhaseHandle, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.phaseAt(h)
	if err != nil {
		return err
	}
	p.enabled = enabled
	return nil
}

// AddSerialSubsystem appends a subsystem to a phase's serial stage.
func (d *Driver) AddSerialSubsystem(h PhaseHandle, fn Subsystem) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrRunning
	}
	p, err := d.phaseAt(h)
	if err != nil {
		return err
	}
	p.serial = append(p.serial, fn)
	return nil
}

// AddParallelRangeTask appends a range task to a phase's parallel stage.
func (d *Driver) AddParallelRangeTask(h PhaseHandle, fn RangeTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrRunning
	}
	p, err := d.phaseAt(h)
	if err != nil {
		return err
	}
	p.parallel = append(p.parallel, fn)
	return nil
}

// AddReductionTask appends a reduction to a phase's serial reduction
// stage, run after every parallel range task of the phase completes.
func (d *Driver) AddReductionTask(h PhaseHandle, fn ReductionTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrRunning
	}
	p, err := d.phaseAt(h)
	if err != nil {
		return err
	}
	p.reductions = append(p.reductions, fn)
	return nil
}

// phaseAt resolves a handle, returning ErrInvalidHandle if it is out of
// range. Callers must hold d.mu.
func (d *Driver) phaseAt(h PhaseHandle) (*phase, error) {
	if h < 0 || int(h) >= len(d.phases) {
		return nil, ErrInvalidHandle
	}
	return d.phases[h], nil
}
