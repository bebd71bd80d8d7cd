package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Profiles   ProfilesConfig   `mapstructure:"profiles"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// APIKey guards the JSON dialect when set. Empty means open access.
	APIKey string `mapstructure:"api_key"`
}

type SimulationConfig struct {
	// DefaultFeedRate feeds the duration estimate, mm/min. A profile may
	// override it.
	DefaultFeedRate float64 `mapstructure:"default_feed_rate"`
	Profile         string  `mapstructure:"profile"`
}

type StorageConfig struct {
	MaxFileSize int64  `mapstructure:"max_file_size"`
	SamplesPath string `mapstructure:"samples_path"`
}

type ProfilesConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_port", 5000)
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("simulation.default_feed_rate", 4800.0)
	viper.SetDefault("simulation.profile", "")
	viper.SetDefault("storage.max_file_size", 64*1024*1024)
	viper.SetDefault("storage.samples_path", "samples")
	viper.SetDefault("profiles.search_paths", []string{"profiles"})

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PRINTEMU")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
