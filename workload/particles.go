package workload

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/e7canasta/simcore"
)

// Particles holds the per-element state for the example workload: a
// throttle value driven by a serial input subsystem, the force it
// produces, and the velocity/position the physics phase integrates.
type Particles struct {
	n     int
	pos   []float64
	vel   []float64
	thr   []float64
	force []float64

	// ReduceEvery controls how often ReduceHash folds the velocity
	// array into a fingerprint; 0 disables reduction entirely. When
	// enabled, frame 0 always reduces.
	ReduceEvery int64

	lastHash   [32]byte
	lastAvgVel float64
}

// New allocates a Particles workload with n elements, velocities
// seeded to 10.0 so the integration phase has nonzero work from frame
// zero.
func New(n int) *Particles {
	p := &Particles{
		n:           n,
		pos:         make([]float64, n),
		vel:         make([]float64, n),
		thr:         make([]float64, n),
		force:       make([]float64, n),
		ReduceEvery: 1000,
	}
	for i := range p.vel {
		p.vel[i] = 10.0
	}
	return p
}

// Len returns the element count, for SetPhaseElementCount.
func (p *Particles) Len() int { return p.n }

// Wire registers this workload's subsystems on two phases: an "Input"
// phase for throttle modulation and a "Physics" phase for force
// computation, integration, and the deterministic reduction. Wire must
// be called before Run.
func (p *Particles) Wire(d *simcore.Driver) (input, physics simcore.PhaseHandle) {
	input = d.AddPhase("Input", 0)
	physics = d.AddPhase("Physics", p.n)

	d.AddSerialSubsystem(input, p.modulateThrottle)
	d.AddParallelRangeTask(physics, p.computeForce)
	d.AddParallelRangeTask(physics, p.integrate)
	d.AddReductionTask(physics, p.reduceHash(d))

	return input, physics
}

// modulateThrottle drives each particle's throttle with a phase-shifted
// sine wave, giving the force/integration stages varying, non-constant
// input every frame.
func (p *Particles) modulateThrottle(frame int64, dt time.Duration) {
	t := float64(frame) * dt.Seconds()
	for i := range p.thr {
		p.thr[i] = 0.5 + 0.05*math.Sin(t+float64(i)*0.0005)
	}
}

// computeForce is commutative and independent per element: safe to run
// across any chunking of [0, n).
func (p *Particles) computeForce(begin, end int, frame int64, dt time.Duration) {
	for i := begin; i < end; i++ {
		p.force[i] = p.thr[i] * 1000.0
	}
}

// integrate applies semi-implicit Euler: velocity first, then
// position from the updated velocity.
func (p *Particles) integrate(begin, end int, frame int64, dt time.Duration) {
	dts := dt.Seconds()
	for i := begin; i < end; i++ {
		p.vel[i] += (p.force[i] / 1200.0) * dts
		p.pos[i] += p.vel[i] * dts
	}
}

// reduceHash returns a ReductionTask that, every ReduceEvery frames,
// hashes the velocity array with blake2b and publishes it via
// d.SetDeterministicHash. Folding through a cryptographic hash rather
// than a running XOR means the result is sensitive to every bit of
// every element, which makes an accidental reordering bug between
// thread counts far more likely to show up as a mismatch.
func (p *Particles) reduceHash(d *simcore.Driver) simcore.ReductionTask {
	return func(frame int64, dt time.Duration) {
		if p.ReduceEvery <= 0 || frame%p.ReduceEvery != 0 {
			return
		}

		h, err := blake2b.New256(nil)
		if err != nil {
			panic(fmt.Sprintf("workload: blake2b.New256: %v", err))
		}
		var buf [8]byte
		var sum float64
		for _, v := range p.vel {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
			sum += v
		}
		sum2 := h.Sum(nil)
		copy(p.lastHash[:], sum2)
		p.lastAvgVel = sum / float64(len(p.vel))

		d.SetDeterministicHash(binary.LittleEndian.Uint64(sum2))
	}
}

// LastAvgVel returns the average velocity computed at the most recent
// reduction, for diagnostics.
func (p *Particles) LastAvgVel() float64 { return p.lastAvgVel }

// LastHashHex returns the full 256-bit fingerprint from the most recent
// reduction, hex-encoded.
func (p *Particles) LastHashHex() string { return fmt.Sprintf("%x", p.lastHash) }

// Position returns particle i's current position.
func (p *Particles) Position(i int) float64 { return p.pos[i] }

// Velocity returns particle i's current velocity.
func (p *Particles) Velocity(i int) float64 { return p.vel[i] }
