package simcore

import (
	"math"
	"time"
)

// timing holds the derived, read-only quantities recomputed whenever Hz
// changes (spec §4.1). dtMicro is the simulated time increment per frame;
// outerDt is the real-time interval the scheduler waits between deadlines.
type timing struct {
	hz       float64
	dtMicro  time.Duration
	subSteps int
	outerDt  time.Duration
}

// deriveTiming computes subSteps = ceil(hz/1000) once hz exceeds 1000Hz,
// keeping outerDt >= 1ms so the OS sleep primitive stays usable (spec
// §4.1). Below 1000Hz, subSteps is 1 and outerDt == dtMicro.
func deriveTiming(hz float64) timing {
	dtSeconds := 1.0 / hz
	subSteps := 1
	if hz > 1000.0 {
		subSteps = int(math.Ceil(hz / 1000.0))
	}
	dtMicro := time.Duration(dtSeconds * float64(time.Second))
	return timing{
		hz:       hz,
		dtMicro:  dtMicro,
		subSteps: subSteps,
		outerDt:  dtMicro * time.Duration(subSteps),
	}
}
