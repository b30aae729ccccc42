// Package config handles configuration loading, validation, and persistence
// for teracodecd.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/teracodec-project/teracodec/internal/util"
)

var log = util.ComponentLogger("config")

const (
	DefaultConfigDir  = "config"
	DefaultConfigFile = "config.json"
	DefaultAPIPort    = 5000
)

// Config is the root configuration structure for teracodecd.
type Config struct {
	mu   sync.RWMutex
	path string

	SchemaData    SchemaData    `json:"schema_data"`
	APIData       APIData       `json:"api_data"`
	StoreData     StoreData     `json:"store_data"`
	TelemetryData TelemetryData `json:"telemetry_data"`
	Logging       LoggingConfig `json:"logging"`
}

// SchemaData locates the .def/.map schema directory and controls reload.
type SchemaData struct {
	Path              string `json:"path"`
	ReloadIntervalSec int    `json:"reload_interval_sec"`
	WatchForChanges   bool   `json:"watch_for_changes"`
}

// APIData configures the HTTP debug/introspection API.
type APIData struct {
	Enabled        bool     `json:"enabled"`
	BindAddress    string   `json:"bind_address"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
	TLSEnabled     bool     `json:"tls_enabled"`
	TLSCertFile    string   `json:"tls_cert_file"`
	TLSKeyFile     string   `json:"tls_key_file"`
}

// StoreData configures the audit log.
type StoreData struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// TelemetryData configures the MQTT event publisher.
type TelemetryData struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
	Topic     string `json:"topic"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SchemaData: SchemaData{
			Path:              "schemas",
			ReloadIntervalSec: 30,
			WatchForChanges:   true,
		},
		APIData: APIData{
			Enabled:      true,
			BindAddress:  "127.0.0.1",
			Port:         DefaultAPIPort,
			RateLimitRPS: 100,
		},
		StoreData: StoreData{
			Enabled: true,
			Path:    "data/frames.db",
		},
		TelemetryData: TelemetryData{
			Enabled: false,
			Port:    8883,
			UseTLS:  true,
			Topic:   "teracodec/events",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Directory:  "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Load reads configuration from a JSON file, creating a default one if it
// does not yet exist.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig() // start with defaults, then overlay
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Msg("configuration loaded")

	// Re-save so config.json always reflects any new default fields added
	// in code updates.
	if saveErr := cfg.Save(); saveErr != nil {
		log.Warn().Err(saveErr).Msg("failed to re-save config with updated defaults")
	}

	return cfg, nil
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetSchemaData returns a copy of the schema directory configuration.
func (c *Config) GetSchemaData() SchemaData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SchemaData
}

// GetAPIData returns a copy of the API configuration.
func (c *Config) GetAPIData() APIData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.APIData
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}
