package rest

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printemu/printemu/internal/api/websocket"
	"github.com/printemu/printemu/internal/gcode"
	"github.com/printemu/printemu/internal/storage"
	"github.com/printemu/printemu/internal/types"
	"go.uber.org/zap"
)

// fileInfo renders one store entry in the OctoPrint file shape, analysis
// included.
func (s *Server) fileInfo(e storage.Entry) gin.H {
	a := e.Program.Analysis
	estimate := gcode.EstimateDuration(a.PrintedLength, s.lm.EffectiveFeedRate())

	return gin.H{
		"name":   e.Name,
		"origin": "local",
		"size":   e.Size,
		"date":   e.UploadedAt.Unix(),
		"gcodeAnalysis": gin.H{
			"estimatedPrintTime": estimate.Seconds(),
			"filament": gin.H{
				"length": a.PrintedLength,
			},
			"dimensions": gin.H{
				"width":  a.Bounds.Max.X - a.Bounds.Min.X,
				"depth":  a.Bounds.Max.Y - a.Bounds.Min.Y,
				"height": a.Bounds.Max.Z - a.Bounds.Min.Z,
			},
			"printingArea": gin.H{
				"minX": a.Bounds.Min.X,
				"minY": a.Bounds.Min.Y,
				"minZ": a.PrintedZMin,
				"maxX": a.Bounds.Max.X,
				"maxY": a.Bounds.Max.Y,
				"maxZ": a.PrintedZMax,
			},
			"segments":  len(e.Program.Segments),
			"endpoints": len(a.Endpoints),
		},
		"refs": gin.H{
			"download": fmt.Sprintf("/api/files/local/%s?download=true", e.Name),
		},
	}
}

// GET /api/files
func (s *Server) listFiles(c *gin.Context) {
	entries := s.lm.Store().List()
	files := make([]gin.H, 0, len(entries))
	var total int64
	for _, e := range entries {
		files = append(files, s.fileInfo(e))
		total += e.Size
	}
	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"total": total,
	})
}

// POST /api/files/local
// Multipart upload; "print=true" starts the job right away.
func (s *Server) uploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"FILES_400", "Missing file part", err.Error()))
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"FILES_400", "Cannot open upload", err.Error()))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			"FILES_400", "Cannot read upload", err.Error()))
		return
	}

	entry, err := s.lm.Store().Put(header.Filename, content)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, types.NewErrorResponse(
			"FILES_413", "Upload rejected", err.Error()))
		return
	}

	s.wsHub.Broadcast(websocket.NewFileMessage(websocket.MessageTypeFileAdded, entry.Name, entry.Size))

	started := false
	if c.PostForm("print") == "true" {
		err := s.lm.MachineController().StartJob(
			entry.Name, entry.Size, entry.Program, s.lm.EffectiveFeedRate(), 0)
		if err != nil {
			s.logger.Warn("Upload print request refused", zap.Error(err))
		} else {
			started = true
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"done": true,
		"files": gin.H{
			"local": s.fileInfo(entry),
		},
		"effectivePrint": started,
	})
}

// GET /api/files/local/:name
func (s *Server) getFile(c *gin.Context) {
	name := c.Param("name")

	if c.Query("download") == "true" {
		content, ok := s.lm.Store().Content(name)
		if !ok {
			c.JSON(http.StatusNotFound, types.NewErrorResponse(
				"FILES_404", "File not found", name))
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
		return
	}

	entry, ok := s.lm.Store().Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(
			"FILES_404", "File not found", name))
		return
	}
	c.JSON(http.StatusOK, s.fileInfo(entry))
}

// DELETE /api/files/local/:name
func (s *Server) deleteFile(c *gin.Context) {
	name := c.Param("name")
	if !s.lm.Store().Delete(name) {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(
			"FILES_404", "File not found", name))
		return
	}
	s.wsHub.Broadcast(websocket.NewFileMessage(websocket.MessageTypeFileRemoved, name, 0))
	c.Status(http.StatusNoContent)
}
