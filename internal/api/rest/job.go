package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printemu/printemu/internal/machine"
	"github.com/printemu/printemu/internal/types"
	"go.uber.org/zap"
)

// stateText maps the run mode to the OctoPrint status vocabulary.
func stateText(st machine.State) string {
	switch st {
	case machine.StatePrinting:
		return "Printing"
	case machine.StatePaused:
		return "Paused"
	default:
		return "Operational"
	}
}

// GET /api/job
func (s *Server) getJob(c *gin.Context) {
	status := s.lm.MachineController().GetStatus(time.Now())

	job := gin.H{
		"file": gin.H{
			"name":   nil,
			"origin": "local",
			"size":   nil,
		},
		"estimatedPrintTime": nil,
	}
	progress := gin.H{
		"completion":    nil,
		"filepos":       nil,
		"printTime":     nil,
		"printTimeLeft": nil,
	}

	if j := status.Job; j != nil {
		job["file"] = gin.H{
			"name":   j.Name,
			"origin": "local",
			"size":   j.Size,
		}
		job["estimatedPrintTime"] = j.Estimated.Seconds()

		progress["completion"] = j.Completion * 100
		progress["filepos"] = j.Offset
		progress["printTime"] = j.Elapsed.Seconds()
		progress["printTimeLeft"] = (j.Estimated - j.Elapsed).Seconds()
	}

	c.JSON(http.StatusOK, gin.H{
		"job":      job,
		"progress": progress,
		"state":    stateText(status.State),
	})
}

// POST /api/job
// Commands: start (optionally naming a stored file and an override
// duration in seconds), cancel, pause, resume.
func (s *Server) postJobCommand(c *gin.Context) {
	var req struct {
		Command  string  `json:"command" binding:"required"`
		File     string  `json:"file"`
		Duration float64 `json:"duration"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"JOB_400", "Invalid request body", err.Error()))
		return
	}

	ctrl := s.lm.MachineController()
	var err error

	switch req.Command {
	case "start":
		if req.File != "" {
			entry, ok := s.lm.Store().Get(req.File)
			if !ok {
				c.JSON(http.StatusNotFound, types.NewErrorResponse(
					"JOB_404", "File not found", req.File))
				return
			}
			override := time.Duration(req.Duration * float64(time.Second))
			err = ctrl.StartJob(entry.Name, entry.Size, entry.Program,
				s.lm.EffectiveFeedRate(), override)
		} else {
			err = ctrl.ExecuteCommand(machine.CommandStart)
		}
	case "cancel":
		err = ctrl.ExecuteCommand(machine.CommandCancel)
	case "pause":
		err = ctrl.ExecuteCommand(machine.CommandPause)
	case "resume":
		err = ctrl.ExecuteCommand(machine.CommandResume)
	default:
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"JOB_400", "Unknown command", req.Command))
		return
	}

	if err != nil {
		s.logger.Warn("Job command failed",
			zap.String("command", req.Command),
			zap.Error(err))
		c.JSON(http.StatusConflict, types.NewErrorResponse(
			"JOB_409", "Command refused", err.Error()))
		return
	}

	c.Status(http.StatusNoContent)
}
