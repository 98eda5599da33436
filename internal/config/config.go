// Package config handles configuration loading, validation, and persistence
// for the manawire client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir  = "config"
	DefaultConfigFile = "config.json"
	DefaultAPIPort    = 5080
	DefaultLoginPort  = 6901
)

// Config is the root configuration structure.
type Config struct {
	mu   sync.RWMutex
	path string

	Server       ServerConfig       `json:"server"`
	Network      NetworkConfig      `json:"network"`
	PacketLimits PacketLimitsConfig `json:"packet_limits"`
	Logging      LoggingConfig      `json:"logging"`
	MQTT         MQTTConfig         `json:"mqtt"`
	API          APIConfig          `json:"api"`
	Journal      JournalConfig      `json:"journal"`
	Metrics      MetricsConfig      `json:"metrics"`
}

// ServerConfig selects the login server and the protocol it speaks.
type ServerConfig struct {
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`

	// "tmwathena" or "eathena"
	Type string `json:"type"`
	// EAthena only: "main", "re" or "zero"
	Flavor        string `json:"flavor"`
	PacketVersion int    `json:"packet_version"`

	// Charset of fixed-length strings, e.g. "windows-1252". Empty is UTF-8.
	StringEncoding string `json:"string_encoding"`

	// Name used as the speaker prefix of public chat lines.
	CharacterName string `json:"character_name"`
}

// NetworkConfig tunes the connection worker and dispatch loop.
type NetworkConfig struct {
	ConnectTimeoutSec int `json:"connect_timeout_sec"`
	WriteTimeoutMs    int `json:"write_timeout_ms"`
	DispatchTickMs    int `json:"dispatch_tick_ms"`
	BufferLimit       int `json:"buffer_limit"`
	NetworkSleepMs    int `json:"network_sleep_ms"`
	IdleTimeoutSec    int `json:"idle_timeout_sec"`
	HealthIntervalSec int `json:"health_interval_sec"`
}

// PacketLimitsConfig controls the outbound packet limiter.
type PacketLimitsConfig struct {
	Enabled bool   `json:"enabled"`
	File    string `json:"file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	TraceReads bool   `json:"trace_reads"`
}

// MQTTConfig holds MQTT telemetry settings.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
	Topic     string `json:"topic_prefix"`
}

// APIConfig holds the status API settings.
type APIConfig struct {
	Enabled        bool     `json:"enabled"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
}

// JournalConfig holds the packet diagnostics journal settings.
type JournalConfig struct {
	Enabled       bool   `json:"enabled"`
	Path          string `json:"path"`
	RetentionDays int    `json:"retention_days"`
	CleanupTime   string `json:"cleanup_time"`
}

// MetricsConfig holds the Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:   DefaultLoginPort,
			Type:   "tmwathena",
			Flavor: "main",
		},
		Network: NetworkConfig{
			ConnectTimeoutSec: 10,
			WriteTimeoutMs:    100,
			DispatchTickMs:    10,
			BufferLimit:       930000,
			HealthIntervalSec: 5,
		},
		PacketLimits: PacketLimitsConfig{
			Enabled: true,
			File:    "config/packetlimiter.txt",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Directory: "logs",
		},
		MQTT: MQTTConfig{
			Port:  1883,
			Topic: "manawire",
		},
		API: APIConfig{
			Enabled:        true,
			Port:           DefaultAPIPort,
			AllowedOrigins: []string{"*"},
			RateLimitRPS:   50,
		},
		Journal: JournalConfig{
			Enabled:       true,
			Path:          "data/journal.db",
			RetentionDays: 7,
			CleanupTime:   "04:00",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "manawire",
		},
	}
}

// Load reads configuration from a JSON file.
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

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Msg("configuration loaded")

	// Persist fields added since the file was written.
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

// GetServer returns a copy of the server section.
func (c *Config) GetServer() ServerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Server
}

// SetServer replaces the server section.
func (c *Config) SetServer(s ServerConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Server = s
}

// GetNetwork returns a copy of the network section.
func (c *Config) GetNetwork() NetworkConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Network
}

// UpdateServerField updates a single server field by its JSON name.
func (c *Config) UpdateServerField(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, _ := json.Marshal(c.Server)
	m := make(map[string]interface{})
	json.Unmarshal(data, &m)

	if _, ok := m[key]; !ok {
		return fmt.Errorf("unknown server field %q", key)
	}
	m[key] = value

	updated, _ := json.Marshal(m)
	var next ServerConfig
	if err := json.Unmarshal(updated, &next); err != nil {
		return fmt.Errorf("failed to update field %s: %w", key, err)
	}
	c.Server = next
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

// SetPath sets the file Save writes to.
func (c *Config) SetPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
}

// IsFirstRun returns true if the configuration needs initial setup.
func (c *Config) IsFirstRun() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Server.Hostname == ""
}
