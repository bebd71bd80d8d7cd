package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printemu/printemu/internal/api/websocket"
	"github.com/printemu/printemu/internal/config"
	"github.com/printemu/printemu/internal/interfaces"
	"go.uber.org/zap"
)

// Server exposes the two protocol dialects: an OctoPrint-compatible JSON
// API under /api and a plain-text Marlin-flavoured surface under /printer.
type Server struct {
	router *gin.Engine
	lm     interfaces.LifecycleManager
	logger *zap.Logger
	server *http.Server
	wsHub  *websocket.Hub
}

func NewServer(cfg *config.Config, lm interfaces.LifecycleManager, logger *zap.Logger, wsHub *websocket.Hub) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		lm:     lm,
		logger: logger,
		wsHub:  wsHub,
	}

	s.setupRoutes(cfg.Server.APIKey)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes(apiKey string) {
	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes (no key required)
	s.router.GET("/health", s.healthCheck)

	// ==================== OCTOPRINT DIALECT ====================
	api := s.router.Group("/api")
	api.Use(APIKeyMiddleware(apiKey))
	{
		api.GET("/version", s.getVersion)

		files := api.Group("/files")
		{
			files.GET("", s.listFiles)
			files.POST("/local", s.uploadFile)
			files.GET("/local/:name", s.getFile)
			files.DELETE("/local/:name", s.deleteFile)
		}

		api.GET("/job", s.getJob)
		api.POST("/job", s.postJobCommand)

		api.GET("/printer", s.getPrinter)
		api.POST("/printer/tool", s.postToolCommand)
	}

	// ==================== PLAIN-TEXT DIALECT ====================
	printer := s.router.Group("/printer")
	{
		printer.GET("/status", s.textStatus)
		printer.GET("/position", s.textPosition)
		printer.POST("/gcode", s.uploadRaw)
	}

	// ==================== WEBSOCKET ====================
	ws := s.router.Group("/ws")
	{
		ws.GET("/live", s.wsLiveConnection)
		ws.GET("/status", s.wsStatus)
	}
}

// WebSocket handlers
func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	status := s.lm.GetCurrentStatus()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"state":     status.State,
		"timestamp": time.Now().Unix(),
	})
}

// GET /api/version
func (s *Server) getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api":    "0.1",
		"server": "1.9.3",
		"text":   "OctoPrint 1.9.3 (printemu)",
	})
}
