package config

import (
	"fmt"
	"net"
	"os"
	"strings"
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

	validateSchemaData(&cfg.SchemaData, result)
	validateAPIData(&cfg.APIData, result)
	validateStoreData(&cfg.StoreData, result)
	validateTelemetryData(&cfg.TelemetryData, result)

	return result
}

func validateSchemaData(data *SchemaData, result *ValidationResult) {
	if strings.TrimSpace(data.Path) == "" {
		result.AddError("schema_data.path", "schema directory path is required")
	} else if info, err := os.Stat(data.Path); err != nil {
		if os.IsNotExist(err) {
			result.AddWarning("schema_data.path", fmt.Sprintf("directory does not exist: %s", data.Path))
		}
	} else if !info.IsDir() {
		result.AddError("schema_data.path", fmt.Sprintf("%s is not a directory", data.Path))
	}

	if data.ReloadIntervalSec > 0 && data.ReloadIntervalSec < 5 {
		result.AddWarning("schema_data.reload_interval_sec",
			"reload interval under 5s may cause excessive directory scans")
	}
}

func validateAPIData(data *APIData, result *ValidationResult) {
	if !data.Enabled {
		return
	}

	validatePort(data.Port, "api_data.port", result)

	if data.RateLimitRPS < 1 {
		result.AddWarning("api_data.rate_limit_rps",
			"rate limit is disabled (0 RPS), this may expose the debug API to abuse")
	}

	if data.TLSEnabled && (strings.TrimSpace(data.TLSCertFile) == "" || strings.TrimSpace(data.TLSKeyFile) == "") {
		result.AddWarning("api_data.tls_cert_file",
			"TLS enabled without cert/key files configured, a self-signed certificate will be generated")
	}
}

func validateStoreData(data *StoreData, result *ValidationResult) {
	if !data.Enabled {
		return
	}
	if strings.TrimSpace(data.Path) == "" {
		result.AddError("store_data.path", "audit store path is required when enabled")
	}
}

func validateTelemetryData(data *TelemetryData, result *ValidationResult) {
	if !data.Enabled {
		return
	}
	if strings.TrimSpace(data.BrokerURL) == "" {
		result.AddError("telemetry_data.broker_url", "MQTT broker URL is required when telemetry is enabled")
	}
	if data.Port < 1 || data.Port > 65535 {
		result.AddError("telemetry_data.port", "invalid MQTT port")
	}
	if data.UseTLS && strings.TrimSpace(data.CAFile) == "" {
		result.AddWarning("telemetry_data.ca_file", "TLS enabled without a CA file, using system trust store")
	}
}

func validatePort(port int, field string, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("invalid port number: %d (must be 1-65535)", port))
		return
	}
	if port < 1024 {
		result.AddWarning(field,
			fmt.Sprintf("port %d is a privileged port, may require elevated permissions", port))
	}
}

// IsPortAvailable checks if a port is available for binding.
func IsPortAvailable(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
