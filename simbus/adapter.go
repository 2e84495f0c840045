package simbus

import "github.com/e7canasta/simcore"

// Adapter bridges a Bus to simcore.EventBus, letting
// Driver.SetEventBus(simbus.NewAdapter(bus)) fan frame telemetry out
// to subscribers without simcore importing this package.
type Adapter struct{ bus Bus }

var _ simcore.EventBus = Adapter{}

// NewAdapter wraps bus for use as a Driver's EventBus.
func NewAdapter(bus Bus) Adapter { return Adapter{bus: bus} }

// Publish implements simcore.EventBus.
func (a Adapter) Publish(e simcore.FrameEvent) {
	a.bus.Publish(FrameEvent{
		Frame:             e.Frame,
		DriftMs:           e.DriftMs,
		DeterministicHash: e.DeterministicHash,
	})
}
