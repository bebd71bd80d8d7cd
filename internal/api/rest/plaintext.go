package rest

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printemu/printemu/internal/api/websocket"
	"github.com/printemu/printemu/internal/machine"
)

// The plain-text dialect speaks the way a Marlin firmware answers over
// serial, for clients that poll M27/M114-style status lines over HTTP.

// GET /printer/status
func (s *Server) textStatus(c *gin.Context) {
	status := s.lm.MachineController().GetStatus(time.Now())

	if j := status.Job; j != nil && status.State == machine.StatePrinting {
		c.String(http.StatusOK, "SD printing byte %d/%d\n", j.Offset, j.Size)
		return
	}
	c.String(http.StatusOK, "Not SD printing\n")
}

// GET /printer/position
func (s *Server) textPosition(c *gin.Context) {
	status := s.lm.MachineController().GetStatus(time.Now())
	h := status.Head
	c.String(http.StatusOK, "X:%.2f Y:%.2f Z:%.2f E:0.00 Count T:%d\n",
		h.X, h.Y, h.Z, status.Tool)
}

// POST /printer/gcode?name=<file>
// Raw-body upload for clients that do not speak multipart.
func (s *Server) uploadRaw(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.String(http.StatusBadRequest, "error: missing name parameter\n")
		return
	}

	content, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "error: %v\n", err)
		return
	}

	entry, err := s.lm.Store().Put(name, content)
	if err != nil {
		c.String(http.StatusRequestEntityTooLarge, "error: %v\n", err)
		return
	}
	s.wsHub.Broadcast(websocket.NewFileMessage(websocket.MessageTypeFileAdded, entry.Name, entry.Size))

	c.String(http.StatusCreated, "ok %s %d\n", entry.Name, entry.Size)
}
