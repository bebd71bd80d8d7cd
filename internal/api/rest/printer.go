package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printemu/printemu/internal/machine"
	"github.com/printemu/printemu/internal/types"
)

// GET /api/printer
// State flags plus head position. Temperatures are fixed plausible values;
// thermal simulation is out of scope.
func (s *Server) getPrinter(c *gin.Context) {
	status := s.lm.MachineController().GetStatus(time.Now())
	printing := status.State == machine.StatePrinting
	paused := status.State == machine.StatePaused

	bedTarget := 0.0
	toolTarget := 0.0
	if printing || paused {
		bedTarget = 60.0
		toolTarget = 210.0
	}

	c.JSON(http.StatusOK, gin.H{
		"state": gin.H{
			"text": stateText(status.State),
			"flags": gin.H{
				"operational": true,
				"printing":    printing,
				"paused":      paused,
				"ready":       !printing && !paused,
				"error":       false,
			},
		},
		"temperature": gin.H{
			"tool0": gin.H{"actual": toolTarget, "target": toolTarget},
			"bed":   gin.H{"actual": bedTarget, "target": bedTarget},
		},
		"sd": gin.H{"ready": true},
		"telemetry": gin.H{
			"head": status.Head,
			"tool": status.Tool,
		},
		"profile": s.lm.Profile(),
	})
}

// POST /api/printer/tool
// {"command": "select", "tool": "tool1"}
func (s *Server) postToolCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
		Tool    string `json:"tool"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"TOOL_400", "Invalid request body", err.Error()))
		return
	}
	if req.Command != "select" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"TOOL_400", "Unknown command", req.Command))
		return
	}

	idx, err := strconv.Atoi(strings.TrimPrefix(req.Tool, "tool"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"TOOL_400", "Invalid tool", req.Tool))
		return
	}
	if idx >= s.lm.Profile().Extruders {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"TOOL_400", "Tool index out of range",
			fmt.Sprintf("profile has %d extruders", s.lm.Profile().Extruders)))
		return
	}
	if err := s.lm.MachineController().SelectTool(idx); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"TOOL_400", "Tool select failed", err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
