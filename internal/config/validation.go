package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateDBus(&c.DBus)...)
	errs = append(errs, validateRelay(&c.Relay)...)
	errs = append(errs, validateStore(&c.Store)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDBus(d *DBusConfig) ValidationErrors {
	var errs ValidationErrors

	if d.Service == "" {
		errs = append(errs, ValidationError{Field: "dbus.service", Message: "must not be empty"})
	}
	if d.CallTimeoutMs < 100 || d.CallTimeoutMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "dbus.call_timeout_ms",
			Message: fmt.Sprintf("must be between 100 and 60000, got %d", d.CallTimeoutMs),
		})
	}
	if d.Address != "" && !strings.Contains(d.Address, ":") {
		errs = append(errs, ValidationError{
			Field:   "dbus.address",
			Message: fmt.Sprintf("not a D-Bus address: %q", d.Address),
		})
	}

	return errs
}

func validateRelay(r *RelayConfig) ValidationErrors {
	var errs ValidationErrors

	if r.TickIntervalMs < 1 || r.TickIntervalMs > 10000 {
		errs = append(errs, ValidationError{
			Field:   "relay.tick_interval_ms",
			Message: fmt.Sprintf("must be between 1 and 10000, got %d", r.TickIntervalMs),
		})
	}

	return errs
}

func validateStore(s *StoreConfig) ValidationErrors {
	var errs ValidationErrors

	if s.Enabled && s.Path == "" {
		errs = append(errs, ValidationError{Field: "store.path", Message: "required when store is enabled"})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", l.Level)})
	}

	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", l.Format)})
	}

	switch strings.ToLower(l.Output) {
	case "stdout", "stderr", "discard":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{Field: "logging.file_path", Message: "required for file output"})
		}
	default:
		errs = append(errs, ValidationError{Field: "logging.output", Message: fmt.Sprintf("unknown output %q", l.Output)})
	}

	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{Field: "logging", Message: "rotation limits must not be negative"})
	}

	return errs
}
