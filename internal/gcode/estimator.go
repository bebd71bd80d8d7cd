package gcode

import "time"

// minDuration is the floor for any estimate, so a degenerate program still
// yields a job the simulator can walk.
const minDuration = time.Second

// EstimateDuration converts a printed length (mm) and a feed rate (mm/min)
// into an estimated job duration. Zero-length programs and zero or negative
// feed rates are floored rather than producing zero or infinite durations.
func EstimateDuration(printedLength, feedRate float64) time.Duration {
	mmPerSec := feedRate / 60
	if mmPerSec < 1e-6 {
		mmPerSec = 1e-6
	}
	d := time.Duration(printedLength / mmPerSec * float64(time.Second))
	if d < minDuration {
		return minDuration
	}
	return d
}
