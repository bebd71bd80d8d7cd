package gcode

import (
	"testing"
	"time"
)

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name     string
		length   float64
		feedRate float64
		want     time.Duration
	}{
		{"20mm at 600mm/min is 2s", 20, 600, 2 * time.Second},
		{"one minute of printing", 4800, 4800, time.Minute},
		{"short job floors at 1s", 0.1, 6000, time.Second},
		{"zero length floors at 1s", 0, 600, time.Second},
		{"zero feed rate does not divide by zero", 1, 0, time.Duration(1 / 1e-6 * float64(time.Second))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateDuration(tt.length, tt.feedRate)
			if got != tt.want {
				t.Errorf("EstimateDuration(%f, %f) = %v, want %v", tt.length, tt.feedRate, got, tt.want)
			}
		})
	}
}

func TestEstimateDurationNeverBelowFloor(t *testing.T) {
	for _, feed := range []float64{-100, 0, 1e-9, 1, 1e6} {
		if d := EstimateDuration(0, feed); d < time.Second {
			t.Errorf("feed %f: duration %v below 1s floor", feed, d)
		}
	}
}
