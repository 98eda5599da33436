package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/manawire-project/manawire/internal/protocol"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: message})
}

// Validate performs comprehensive validation of the configuration.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	validateServer(&cfg.Server, result)
	validateNetwork(&cfg.Network, result)
	validateServices(cfg, result)

	return result
}

func validateServer(s *ServerConfig, result *ValidationResult) {
	if strings.TrimSpace(s.Hostname) == "" {
		result.AddError("server.hostname", "login server hostname is required")
	}
	validatePort(s.Port, "server.port", result)

	st, err := protocol.ParseServerType(s.Type)
	switch {
	case err != nil:
		result.AddError("server.type", err.Error())
	case st == protocol.ServerManaServ:
		result.AddError("server.type", "manaserv uses an ENet transport and is not supported")
	case st == protocol.ServerEAthena:
		flavor, err := protocol.ParseFlavor(s.Flavor)
		if err != nil {
			result.AddError("server.flavor", err.Error())
		}
		if s.PacketVersion < 0 {
			result.AddError("server.packet_version", "packet version must not be negative")
		}
		if flavor == protocol.FlavorRe && s.PacketVersion >= protocol.ItemIDWideVersion {
			result.AddWarning("server.packet_version",
				fmt.Sprintf("renewal %d sends 4-byte item ids", s.PacketVersion))
		}
	case st == protocol.ServerTmwAthena:
		if s.Flavor != "" && s.Flavor != "main" {
			result.AddWarning("server.flavor", "flavor is ignored for tmwathena servers")
		}
	}

	if _, err := protocol.LookupCharset(s.StringEncoding); err != nil {
		result.AddError("server.string_encoding", err.Error())
	}
}

func validateNetwork(n *NetworkConfig, result *ValidationResult) {
	if n.ConnectTimeoutSec < 1 {
		result.AddError("network.connect_timeout_sec", "connect timeout must be at least 1 second")
	}
	if n.DispatchTickMs < 1 {
		result.AddError("network.dispatch_tick_ms", "dispatch tick must be at least 1ms")
	} else if n.DispatchTickMs > 1000 {
		result.AddWarning("network.dispatch_tick_ms", "dispatch tick above 1s will make the client sluggish")
	}
	if n.BufferLimit < protocol.MaxMessageSize {
		result.AddError("network.buffer_limit",
			fmt.Sprintf("buffer limit must hold at least one maximum size message (%d bytes)", protocol.MaxMessageSize))
	}
	if n.IdleTimeoutSec < 0 {
		result.AddError("network.idle_timeout_sec", "idle timeout must not be negative")
	}
}

func validateServices(cfg *Config, result *ValidationResult) {
	if cfg.MQTT.Enabled {
		if strings.TrimSpace(cfg.MQTT.BrokerURL) == "" {
			result.AddError("mqtt.broker_url", "MQTT broker URL is required when enabled")
		}
		if cfg.MQTT.Port < 1 || cfg.MQTT.Port > 65535 {
			result.AddError("mqtt.port", "invalid MQTT port")
		}
	}

	if cfg.API.Enabled {
		validatePort(cfg.API.Port, "api.port", result)
		if cfg.API.RateLimitRPS < 1 {
			result.AddWarning("api.rate_limit_rps",
				"rate limit is disabled (0 RPS), this may expose the API to abuse")
		}
	}

	if cfg.Journal.Enabled {
		if strings.TrimSpace(cfg.Journal.Path) == "" {
			result.AddError("journal.path", "journal path is required when enabled")
		}
		if cfg.Journal.RetentionDays < 1 {
			result.AddError("journal.retention_days", "retention days must be at least 1")
		}
		if _, err := time.Parse("15:04", cfg.Journal.CleanupTime); err != nil {
			result.AddError("journal.cleanup_time", "cleanup time must be HH:MM")
		}
	}

	if cfg.PacketLimits.Enabled && strings.TrimSpace(cfg.PacketLimits.File) == "" {
		result.AddWarning("packet_limits.file", "no limits file, defaults will not be persisted")
	}
}

func validatePort(port int, field string, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("invalid port number: %d (must be 1-65535)", port))
	}
}
