package machine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/printemu/printemu/internal/api/websocket"
	"github.com/printemu/printemu/internal/gcode"
	"go.uber.org/zap"
)

// job is the state of the active (or last) print job. startedAt is zero
// whenever the job is not running.
type job struct {
	id         uuid.UUID
	name       string
	size       int64
	startedAt  time.Time
	estimated  time.Duration
	completion float64
	offset     int64
}

// Controller owns the machine state. Every read and mutation, including
// the simulation tick, runs under one mutex so a snapshot can never see a
// half-applied wrap.
type Controller struct {
	logger *zap.Logger
	wsHub  *websocket.Hub

	mu         sync.Mutex
	state      State
	head       gcode.Point
	tool       int
	program    *gcode.Program
	job        *job
	pausedAt   time.Time
	lastChange time.Time
}

func NewController(logger *zap.Logger, wsHub *websocket.Hub) *Controller {
	return &Controller{
		logger:     logger,
		wsHub:      wsHub,
		state:      StateIdle,
		lastChange: time.Now(),
	}
}

// StartJob installs a freshly parsed program as the active job and starts
// printing. The duration comes from the printed length and feed rate
// (mm/min) unless an explicit override is given.
func (c *Controller) StartJob(name string, size int64, prog *gcode.Program, feedRate float64, override time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StatePrinting || c.state == StatePaused {
		return fmt.Errorf("cannot start job: printer is %s", c.state)
	}

	estimated := override
	if estimated <= 0 {
		estimated = gcode.EstimateDuration(prog.PrintedLength, feedRate)
	}

	c.program = prog
	c.job = &job{
		id:        uuid.New(),
		name:      name,
		size:      size,
		startedAt: time.Now(),
		estimated: estimated,
	}
	c.setStateLocked(StatePrinting)

	c.logger.Info("Job started",
		zap.String("job_id", c.job.id.String()),
		zap.String("file", name),
		zap.Int64("size", size),
		zap.Int("segments", len(prog.Segments)),
		zap.Duration("estimated", estimated))
	return nil
}

// ExecuteCommand dispatches an external machine command.
func (c *Controller) ExecuteCommand(cmd Command) error {
	switch cmd {
	case CommandStart:
		return c.Restart()
	case CommandCancel:
		return c.Cancel()
	case CommandPause:
		return c.Pause()
	case CommandResume:
		return c.Resume()
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// Restart begins a new run of the last installed job.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StatePrinting || c.state == StatePaused {
		return fmt.Errorf("cannot start: printer is %s", c.state)
	}
	if c.job == nil || c.program == nil {
		return fmt.Errorf("cannot start: no job loaded")
	}

	c.job.startedAt = time.Now()
	c.job.completion = 0
	c.job.offset = 0
	c.setStateLocked(StatePrinting)

	c.logger.Info("Job restarted", zap.String("file", c.job.name))
	return nil
}

// Cancel stops the running or paused job. The job record is kept so the
// status surface still reports the file, but its clock is cleared.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePrinting && c.state != StatePaused {
		return fmt.Errorf("cannot cancel: printer is %s", c.state)
	}

	c.job.startedAt = time.Time{}
	c.job.completion = 0
	c.job.offset = 0
	c.pausedAt = time.Time{}
	c.setStateLocked(StateStopped)

	c.logger.Info("Job cancelled", zap.String("file", c.job.name))
	return nil
}

func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePrinting {
		return fmt.Errorf("cannot pause: printer is %s", c.state)
	}
	c.pausedAt = time.Now()
	c.setStateLocked(StatePaused)
	return nil
}

// Resume shifts the job clock forward by the pause span so elapsed time
// excludes the pause.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return fmt.Errorf("cannot resume: printer is %s", c.state)
	}
	if c.job != nil && !c.job.startedAt.IsZero() {
		c.job.startedAt = c.job.startedAt.Add(time.Since(c.pausedAt))
	}
	c.pausedAt = time.Time{}
	c.setStateLocked(StatePrinting)
	return nil
}

// SelectTool switches the active tool index.
func (c *Controller) SelectTool(idx int) error {
	if idx < 0 {
		return fmt.Errorf("invalid tool index: %d", idx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tool = idx
	return nil
}

// Tick advances the simulation to now. It never fails: with no job or no
// program the head simply holds position.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked(now)
}

func (c *Controller) tickLocked(now time.Time) {
	switch c.state {
	case StateIdle:
		// Park the nozzle at the bottom of the printed volume. X/Y keep
		// their last value.
		if c.program != nil {
			c.head.Z = c.program.PrintedZMin
		} else {
			c.head.Z = 0
		}
	case StatePrinting:
		if c.job == nil || c.program == nil || c.job.startedAt.IsZero() {
			return
		}
		c.advanceLocked(now)
	}
}

// advanceLocked maps elapsed wall-clock time onto the endpoint path and
// handles the wrap transition at the end of the run.
func (c *Controller) advanceLocked(now time.Time) {
	j := c.job
	elapsed := now.Sub(j.startedAt)

	t := float64(elapsed) / float64(j.estimated)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	endpoints := c.program.Endpoints
	if n := len(endpoints); n > 1 {
		idx := int(t * float64(n-1))
		c.head = endpoints[idx]
		j.completion = float64(idx) / float64(n-1)
		j.offset = int64(j.completion * float64(j.size))
	} else {
		// Nothing meaningfully printed: progress tracks time alone.
		c.head = gcode.Point{Z: c.program.PrintedZMin}
		j.completion = t
		j.offset = int64(t * float64(j.size))
	}

	if elapsed >= j.estimated {
		if n := len(endpoints); n > 0 {
			c.head = endpoints[n-1]
		} else {
			c.head = gcode.Point{Z: c.program.PrintedZMax}
		}
		j.completion = 1
		j.offset = j.size
		c.broadcastProgressLocked()

		// Wrap: the job loops until cancelled.
		j.startedAt = now
		j.completion = 0
		j.offset = 0
		c.logger.Debug("Job wrapped", zap.String("file", j.name))
	}
}

// GetStatus ticks the simulation to now and returns a consistent snapshot.
func (c *Controller) GetStatus(now time.Time) MachineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked(now)

	st := MachineStatus{
		State:           c.state,
		Head:            c.head,
		Tool:            c.tool,
		LastStateChange: c.lastChange,
	}
	if c.job != nil {
		js := JobStatus{
			ID:         c.job.id.String(),
			Name:       c.job.name,
			Size:       c.job.size,
			Completion: c.job.completion,
			Offset:     c.job.offset,
			Estimated:  c.job.estimated,
		}
		if !c.job.startedAt.IsZero() && c.state == StatePrinting {
			js.Elapsed = now.Sub(c.job.startedAt)
		}
		st.Job = &js
	}
	return st
}

// Program returns the last installed program, or nil.
func (c *Controller) Program() *gcode.Program {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.program
}

func (c *Controller) setStateLocked(state State) {
	previous := c.state
	c.state = state
	c.lastChange = time.Now()

	c.logger.Info("Machine state changed",
		zap.String("state", string(state)),
		zap.String("previous", string(previous)))

	if c.wsHub != nil {
		c.wsHub.Broadcast(websocket.NewMachineStateMessage(string(state), string(previous)))
	}
}

func (c *Controller) broadcastProgressLocked() {
	if c.wsHub == nil || c.job == nil {
		return
	}
	c.wsHub.Broadcast(websocket.NewJobProgressMessage(
		c.job.id.String(),
		c.job.name,
		c.job.completion,
		c.job.offset,
		c.head,
	))
}
