// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// FrontendConfig is the static configuration for the front-tier HTTP service.
type FrontendConfig struct {
	IP             string        `mapstructure:"ip"`
	Port           int           `mapstructure:"port"`
	Workers        int           `mapstructure:"workers"` // advisory only, see Open Questions
	ProcessingHost string        `mapstructure:"processing_host"`
	ProcessingPort int           `mapstructure:"processing_port"`
	MaxTasks       int           `mapstructure:"max_tasks"`
	Verbose        bool          `mapstructure:"verbose"`
	Log            LogConfig     `mapstructure:"log"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

// BackendConfig is the static configuration for the back-tier dispatcher.
type BackendConfig struct {
	IP        string        `mapstructure:"ip"`
	Port      int           `mapstructure:"port"`
	Processes int           `mapstructure:"processes"` // 0 = host CPU count
	Verbose   bool          `mapstructure:"verbose"`
	Log       LogConfig     `mapstructure:"log"`
	Metrics   MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string         `mapstructure:"level"`  // debug / info / warn / error
	Format  string         `mapstructure:"format"` // json / text
	Outputs []OutputConfig `mapstructure:"outputs"`
}

// OutputConfig configures a single structured log output destination.
type OutputConfig struct {
	Type       string `mapstructure:"type"` // console | stdout | file
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// configRoot is the top-level wrapper matching the on-disk YAML structure.
type configRoot struct {
	Frontend FrontendConfig `mapstructure:"frontend"`
	Backend  BackendConfig  `mapstructure:"backend"`
}

// LoadFrontend loads front-tier configuration from an optional file, falling
// back to defaults when path is empty or the file does not exist.
func LoadFrontend(path string) (*FrontendConfig, error) {
	v := newViper()
	setFrontendDefaults(v)
	if err := readIfPresent(v, path); err != nil {
		return nil, err
	}

	var root configRoot
	root.Frontend = defaultFrontendConfig()
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frontend config: %w", err)
	}
	cfg := root.Frontend
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadBackend loads back-tier configuration from an optional file, falling
// back to defaults when path is empty or the file does not exist.
func LoadBackend(path string) (*BackendConfig, error) {
	v := newViper()
	setBackendDefaults(v)
	if err := readIfPresent(v, path); err != nil {
		return nil, err
	}

	var root configRoot
	root.Backend = defaultBackendConfig()
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backend config: %w", err)
	}
	cfg := root.Backend
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SCRAPEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readIfPresent(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func defaultFrontendConfig() FrontendConfig {
	return FrontendConfig{
		IP:             "0.0.0.0",
		Port:           8000,
		Workers:        4,
		ProcessingHost: "127.0.0.1",
		ProcessingPort: 9000,
		MaxTasks:       1000,
		Log:            defaultLogConfig(),
		Metrics:        defaultMetricsConfig(),
	}
}

func defaultBackendConfig() BackendConfig {
	return BackendConfig{
		IP:        "0.0.0.0",
		Port:      9000,
		Processes: 0,
		Log:       defaultLogConfig(),
		Metrics:   defaultMetricsConfig(),
	}
}

func defaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
		Outputs: []OutputConfig{
			{Type: "console"},
		},
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: true,
		Listen:  ":9091",
		Path:    "/metrics",
	}
}

func setFrontendDefaults(v *viper.Viper) {
	d := defaultFrontendConfig()
	v.SetDefault("frontend.ip", d.IP)
	v.SetDefault("frontend.port", d.Port)
	v.SetDefault("frontend.workers", d.Workers)
	v.SetDefault("frontend.processing_host", d.ProcessingHost)
	v.SetDefault("frontend.processing_port", d.ProcessingPort)
	v.SetDefault("frontend.max_tasks", d.MaxTasks)
	v.SetDefault("frontend.log.level", d.Log.Level)
	v.SetDefault("frontend.log.format", d.Log.Format)
	v.SetDefault("frontend.metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("frontend.metrics.listen", d.Metrics.Listen)
	v.SetDefault("frontend.metrics.path", d.Metrics.Path)
}

func setBackendDefaults(v *viper.Viper) {
	d := defaultBackendConfig()
	v.SetDefault("backend.ip", d.IP)
	v.SetDefault("backend.port", d.Port)
	v.SetDefault("backend.processes", d.Processes)
	v.SetDefault("backend.log.level", d.Log.Level)
	v.SetDefault("backend.log.format", d.Log.Format)
	v.SetDefault("backend.metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("backend.metrics.listen", d.Metrics.Listen)
	v.SetDefault("backend.metrics.path", d.Metrics.Path)
}

func (cfg *FrontendConfig) validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.MaxTasks <= 0 {
		return fmt.Errorf("max_tasks must be positive, got %d", cfg.MaxTasks)
	}
	return nil
}

func (cfg *BackendConfig) validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Processes < 0 {
		return fmt.Errorf("processes must be >= 0, got %d", cfg.Processes)
	}
	return nil
}
