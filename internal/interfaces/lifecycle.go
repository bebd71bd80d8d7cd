package interfaces

import (
	"context"

	"github.com/printemu/printemu/internal/config"
	"github.com/printemu/printemu/internal/machine"
	"github.com/printemu/printemu/internal/profiles"
	"github.com/printemu/printemu/internal/storage"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State     string `json:"state"`
	FileCount int    `json:"file_count"`
	Clients   int    `json:"connected_clients"`
}

// LifecycleManager wires the subsystems together and is what the API
// layer talks to.
type LifecycleManager interface {
	Config() *config.Config
	Store() *storage.Store
	Profile() *profiles.Profile
	MachineController() *machine.Controller
	// EffectiveFeedRate is the configured default feed rate, overridden
	// by the active profile when it sets one. mm/min.
	EffectiveFeedRate() float64
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
