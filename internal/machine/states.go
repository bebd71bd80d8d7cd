package machine

import (
	"time"

	"github.com/printemu/printemu/internal/gcode"
)

// State is the printer run mode. The set is closed: transitions between
// values happen only through controller commands and the wrap transition
// inside Tick.
type State string

const (
	StateIdle     State = "idle"
	StatePrinting State = "printing"
	StatePaused   State = "paused"
	StateStopped  State = "stopped"
)

// Command is an externally issued machine command.
type Command string

const (
	CommandStart  Command = "start"
	CommandCancel Command = "cancel"
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
)

// JobStatus is the externally visible slice of the active job.
type JobStatus struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Size       int64         `json:"size"`
	Completion float64       `json:"completion"`
	Offset     int64         `json:"offset"`
	Estimated  time.Duration `json:"estimated_duration"`
	Elapsed    time.Duration `json:"elapsed"`
}

// MachineStatus is a consistent snapshot of the machine, taken under the
// controller lock after a tick.
type MachineStatus struct {
	State           State       `json:"state"`
	Head            gcode.Point `json:"head"`
	Tool            int         `json:"tool"`
	Job             *JobStatus  `json:"job,omitempty"`
	LastStateChange time.Time   `json:"last_state_change"`
}
