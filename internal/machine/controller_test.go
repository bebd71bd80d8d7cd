package machine

import (
	"sync"
	"testing"
	"time"

	"github.com/printemu/printemu/internal/gcode"
	"go.uber.org/zap"
)

const scenarioText = "G1 X0 Y0\nG1 X10 Y0 E1\nG1 X10 Y10 E2"

func newTestController() *Controller {
	return NewController(zap.NewNop(), nil)
}

// rebase pins the running job's clock to a known instant so ticks can use
// exact elapsed times.
func (c *Controller) rebase(base time.Time) {
	c.mu.Lock()
	c.job.startedAt = base
	c.mu.Unlock()
}

func TestStartJobInstallsEstimate(t *testing.T) {
	c := newTestController()
	prog := gcode.Parse(scenarioText)

	// 600 mm/min is 10 mm/s; 20 mm printed takes 2s.
	if err := c.StartJob("square.gcode", 100, prog, 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	st := c.GetStatus(time.Now())
	if st.State != StatePrinting {
		t.Errorf("state = %s, want printing", st.State)
	}
	if st.Job == nil {
		t.Fatal("no job in status")
	}
	if st.Job.Estimated != 2*time.Second {
		t.Errorf("estimated = %v, want 2s", st.Job.Estimated)
	}
	if st.Job.Name != "square.gcode" || st.Job.Size != 100 {
		t.Errorf("unexpected job identity: %+v", st.Job)
	}
}

func TestStartJobDurationOverride(t *testing.T) {
	c := newTestController()
	prog := gcode.Parse(scenarioText)
	if err := c.StartJob("square.gcode", 100, prog, 600, 30*time.Second); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	if st := c.GetStatus(time.Now()); st.Job.Estimated != 30*time.Second {
		t.Errorf("estimated = %v, want override 30s", st.Job.Estimated)
	}
}

func TestStartJobRefusedWhilePrinting(t *testing.T) {
	c := newTestController()
	prog := gcode.Parse(scenarioText)
	if err := c.StartJob("a.gcode", 10, prog, 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	if err := c.StartJob("b.gcode", 10, prog, 600, 0); err == nil {
		t.Error("expected second StartJob to be refused")
	}
}

func TestTickMidpoint(t *testing.T) {
	c := newTestController()
	base := time.Unix(1000, 0)

	if err := c.StartJob("square.gcode", 100, gcode.Parse(scenarioText), 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	c.rebase(base)

	// t=0.5 over 2 endpoints: idx = floor(0.5*1) = 0.
	st := c.GetStatus(base.Add(1 * time.Second))
	if st.Head != (gcode.Point{X: 10, Y: 0, Z: 0}) {
		t.Errorf("head = %+v, want {10 0 0}", st.Head)
	}
	if st.Job.Completion != 0 {
		t.Errorf("completion = %f, want 0", st.Job.Completion)
	}
	if st.Job.Offset != 0 {
		t.Errorf("offset = %d, want 0", st.Job.Offset)
	}
}

func TestTickMonotonicWithinRun(t *testing.T) {
	c := newTestController()
	base := time.Unix(1000, 0)

	// Staircase: 8 extruding segments so completion moves in steps.
	text := "M83\nG1 X0 Y0\n" +
		"G1 X10 Y0 E1\nG1 X10 Y10 E1\nG1 X0 Y10 E1\nG1 X0 Y0 E1\n" +
		"G1 Z1\n" +
		"G1 X10 Y0 E1\nG1 X10 Y10 E1\nG1 X0 Y10 E1\nG1 X0 Y0 E1\n"
	if err := c.StartJob("stairs.gcode", 1000, gcode.Parse(text), 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	c.rebase(base)

	estimated := c.GetStatus(base).Job.Estimated
	var lastCompletion float64
	var lastOffset int64
	for elapsed := time.Duration(0); elapsed < estimated; elapsed += estimated / 16 {
		st := c.GetStatus(base.Add(elapsed))
		if st.Job.Completion < lastCompletion {
			t.Fatalf("completion went backwards at %v: %f < %f", elapsed, st.Job.Completion, lastCompletion)
		}
		if st.Job.Offset < lastOffset {
			t.Fatalf("offset went backwards at %v", elapsed)
		}
		if st.Job.Completion < 0 || st.Job.Completion > 1 {
			t.Fatalf("completion %f out of range", st.Job.Completion)
		}
		lastCompletion = st.Job.Completion
		lastOffset = st.Job.Offset
	}
}

func TestWrapLaw(t *testing.T) {
	c := newTestController()
	base := time.Unix(1000, 0)

	if err := c.StartJob("square.gcode", 100, gcode.Parse(scenarioText), 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	c.rebase(base)

	now := base.Add(2 * time.Second)
	st := c.GetStatus(now)

	// The snapped final position persists; the counters are already
	// wrapped and the clock restarted at now.
	if st.Head != (gcode.Point{X: 10, Y: 10, Z: 0}) {
		t.Errorf("head = %+v, want final endpoint {10 10 0}", st.Head)
	}
	if st.Job.Completion != 0 {
		t.Errorf("completion after wrap = %f, want 0", st.Job.Completion)
	}
	if st.Job.Offset != 0 {
		t.Errorf("offset after wrap = %d, want 0", st.Job.Offset)
	}
	if st.State != StatePrinting {
		t.Errorf("state after wrap = %s, want printing", st.State)
	}

	c.mu.Lock()
	startedAt := c.job.startedAt
	c.mu.Unlock()
	if !startedAt.Equal(now) {
		t.Errorf("startedAt = %v, want rebased to %v", startedAt, now)
	}

	// The next run proceeds from the top.
	st = c.GetStatus(now.Add(1 * time.Second))
	if st.Head != (gcode.Point{X: 10, Y: 0, Z: 0}) {
		t.Errorf("head in second run = %+v, want {10 0 0}", st.Head)
	}
}

func TestTickDegenerateProgram(t *testing.T) {
	c := newTestController()
	base := time.Unix(1000, 0)

	// Travel only: no endpoints, estimate floors to 1s, progress tracks
	// elapsed time alone.
	prog := gcode.Parse("G1 X0 Y0 Z2\nG1 X10 Y0")
	if err := c.StartJob("travel.gcode", 100, prog, 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	c.rebase(base)

	st := c.GetStatus(base.Add(500 * time.Millisecond))
	if st.Job.Completion != 0.5 {
		t.Errorf("completion = %f, want 0.5", st.Job.Completion)
	}
	if st.Job.Offset != 50 {
		t.Errorf("offset = %d, want 50", st.Job.Offset)
	}
	if st.Head != (gcode.Point{Z: prog.PrintedZMin}) {
		t.Errorf("head = %+v, want {0 0 %f}", st.Head, prog.PrintedZMin)
	}

	// Wrap without endpoints parks at the printed z max.
	st = c.GetStatus(base.Add(1 * time.Second))
	if st.Head != (gcode.Point{Z: prog.PrintedZMax}) {
		t.Errorf("head after wrap = %+v, want {0 0 %f}", st.Head, prog.PrintedZMax)
	}
	if st.Job.Completion != 0 {
		t.Errorf("completion after wrap = %f, want 0", st.Job.Completion)
	}
}

func TestIdleHold(t *testing.T) {
	c := newTestController()

	// No program loaded: z parks at 0, x/y untouched.
	c.mu.Lock()
	c.head = gcode.Point{X: 3, Y: 4, Z: 9}
	c.mu.Unlock()
	st := c.GetStatus(time.Now())
	if st.State != StateIdle {
		t.Fatalf("state = %s, want idle", st.State)
	}
	if st.Head != (gcode.Point{X: 3, Y: 4, Z: 0}) {
		t.Errorf("head = %+v, want {3 4 0}", st.Head)
	}

	// With a program loaded the z floor is the printed z min.
	prog := gcode.Parse("G1 X0 Y0 Z0.5\nG1 X10 Y0 E1")
	c.mu.Lock()
	c.program = prog
	c.mu.Unlock()
	st = c.GetStatus(time.Now())
	if st.Head != (gcode.Point{X: 3, Y: 4, Z: 0.5}) {
		t.Errorf("head = %+v, want {3 4 0.5}", st.Head)
	}
}

func TestCommandTransitions(t *testing.T) {
	c := newTestController()
	prog := gcode.Parse(scenarioText)

	if err := c.ExecuteCommand(CommandPause); err == nil {
		t.Error("pause from idle should fail")
	}
	if err := c.ExecuteCommand(CommandCancel); err == nil {
		t.Error("cancel from idle should fail")
	}
	if err := c.ExecuteCommand(CommandStart); err == nil {
		t.Error("start with no job loaded should fail")
	}

	if err := c.StartJob("square.gcode", 100, prog, 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	if err := c.ExecuteCommand(CommandResume); err == nil {
		t.Error("resume while printing should fail")
	}
	if err := c.ExecuteCommand(CommandPause); err != nil {
		t.Errorf("pause failed: %v", err)
	}
	if st := c.GetStatus(time.Now()); st.State != StatePaused {
		t.Errorf("state = %s, want paused", st.State)
	}
	if err := c.ExecuteCommand(CommandResume); err != nil {
		t.Errorf("resume failed: %v", err)
	}
	if err := c.ExecuteCommand(CommandCancel); err != nil {
		t.Errorf("cancel failed: %v", err)
	}
	st := c.GetStatus(time.Now())
	if st.State != StateStopped {
		t.Errorf("state = %s, want stopped", st.State)
	}
	if st.Job == nil || st.Job.Completion != 0 {
		t.Errorf("cancelled job should report zero progress: %+v", st.Job)
	}

	// Restart after cancel reuses the installed job.
	if err := c.ExecuteCommand(CommandStart); err != nil {
		t.Errorf("restart failed: %v", err)
	}
	if st := c.GetStatus(time.Now()); st.State != StatePrinting {
		t.Errorf("state = %s, want printing", st.State)
	}

	if err := c.ExecuteCommand(Command("explode")); err == nil {
		t.Error("unknown command should fail")
	}
}

func TestConcurrentStatusReads(t *testing.T) {
	c := newTestController()
	base := time.Unix(1000, 0)
	if err := c.StartJob("square.gcode", 100, gcode.Parse(scenarioText), 600, 0); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	c.rebase(base)

	// Hammer ticks around the wrap boundary; every snapshot must be
	// internally consistent.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				now := base.Add(time.Duration(j*i) * 25 * time.Millisecond)
				st := c.GetStatus(now)
				if st.Job.Completion < 0 || st.Job.Completion > 1 {
					t.Errorf("completion %f out of range", st.Job.Completion)
					return
				}
				if st.Job.Offset < 0 || st.Job.Offset > st.Job.Size {
					t.Errorf("offset %d out of range", st.Job.Offset)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestSelectTool(t *testing.T) {
	c := newTestController()
	if err := c.SelectTool(-1); err == nil {
		t.Error("negative tool index should fail")
	}
	if err := c.SelectTool(2); err != nil {
		t.Fatalf("SelectTool failed: %v", err)
	}
	if st := c.GetStatus(time.Now()); st.Tool != 2 {
		t.Errorf("tool = %d, want 2", st.Tool)
	}
}
