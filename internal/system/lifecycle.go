package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/printemu/printemu/internal/api/rest"
	"github.com/printemu/printemu/internal/api/websocket"
	"github.com/printemu/printemu/internal/config"
	"github.com/printemu/printemu/internal/interfaces"
	"github.com/printemu/printemu/internal/machine"
	"github.com/printemu/printemu/internal/profiles"
	"github.com/printemu/printemu/internal/storage"
	"go.uber.org/zap"
)

// LifecycleManager owns the subsystems and their startup/shutdown order.
type LifecycleManager struct {
	config            *config.Config
	store             *storage.Store
	profile           *profiles.Profile
	wsHub             *websocket.Hub
	machineController *machine.Controller
	logger            *zap.Logger

	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(cfg *config.Config, logger *zap.Logger) *LifecycleManager {
	store := storage.NewStore(logger, cfg.Storage.MaxFileSize)
	wsHub := websocket.NewHub(logger)
	controller := machine.NewController(logger, wsHub)

	lm := &LifecycleManager{
		config:            cfg,
		store:             store,
		profile:           loadProfile(cfg, logger),
		wsHub:             wsHub,
		machineController: controller,
		logger:            logger,
		currentState:      StateInitializing,
		shutdownChan:      make(chan struct{}),
	}

	wsHub.SetMachineStatusProvider(lm)
	return lm
}

// loadProfile resolves the configured printer profile, falling back to the
// generic default when none is configured or the file is broken.
func loadProfile(cfg *config.Config, logger *zap.Logger) *profiles.Profile {
	if cfg.Simulation.Profile == "" {
		return profiles.Default()
	}

	loader, err := profiles.NewLoader(cfg.Profiles.SearchPaths)
	if err != nil {
		logger.Warn("Failed to create profile loader, using default profile", zap.Error(err))
		return profiles.Default()
	}
	profile, err := loader.Load(cfg.Simulation.Profile)
	if err != nil {
		logger.Warn("Failed to load printer profile, using default profile",
			zap.String("profile", cfg.Simulation.Profile),
			zap.Error(err))
		return profiles.Default()
	}
	logger.Info("Printer profile loaded",
		zap.String("profile", profile.ID),
		zap.String("model", profile.Model),
		zap.Int("extruders", profile.Extruders))
	return profile
}

func (lm *LifecycleManager) Config() *config.Config                 { return lm.config }
func (lm *LifecycleManager) Store() *storage.Store                  { return lm.store }
func (lm *LifecycleManager) Profile() *profiles.Profile             { return lm.profile }
func (lm *LifecycleManager) MachineController() *machine.Controller { return lm.machineController }

// EffectiveFeedRate is the profile feed rate when set, otherwise the
// configured default.
func (lm *LifecycleManager) EffectiveFeedRate() float64 {
	if lm.profile.FeedRate > 0 {
		return lm.profile.FeedRate
	}
	return lm.config.Simulation.DefaultFeedRate
}

// GetStatusSnapshot feeds the websocket hub's connect-time snapshot.
func (lm *LifecycleManager) GetStatusSnapshot() any {
	return lm.machineController.GetStatus(time.Now())
}

func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return interfaces.SystemStatus{
		State:     lm.currentState.String(),
		FileCount: lm.store.Count(),
		Clients:   lm.wsHub.GetClientCount(),
	}
}

// Start starts the entire system
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting printemu")

	// Preload the bundled sample programs
	if err := lm.store.PreloadSamples(lm.config.Storage.SamplesPath); err != nil {
		lm.logger.Warn("Failed to preload sample library", zap.Error(err))
		// Continue anyway, not critical
	}

	// WebSocket hub
	go lm.wsHub.Run()

	// REST API server (both dialects)
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub)
	if err := lm.restServer.Start(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.String("profile", lm.profile.ID),
		zap.Int("preloaded_files", lm.store.Count()))
	return nil
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)

		if lm.restServer != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}

		lm.setState(StateStopped)
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Forcing system state transition", zap.Error(err))
	}
	lm.currentState = state
	lm.logger.Info("System state changed", zap.String("state", state.String()))
}
