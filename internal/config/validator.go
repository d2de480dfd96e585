package config

import (
	"fmt"
	"net"
	"strings"

	cronlib "github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var scheduleParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateServer(&cfg.Server)
	v.validateData(&cfg.Data)
	v.validateLog(&cfg.Log)
	v.validateCleanup(&cfg.Cleanup)
	v.validateEvents(&cfg.Events)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

// validateServer pins the listener to loopback. Binding the task API to a
// routable interface would expose the token-gated control surface to the
// network.
func (v *Validator) validateServer(cfg *ServerConfig) {
	if !isLoopbackHost(cfg.Host) {
		v.addError("server.host", cfg.Host, "must be a loopback address")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
}

func (v *Validator) validateData(cfg *DataConfig) {
	if cfg.Dir == "" {
		v.addError("data.dir", cfg.Dir, "must not be empty")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}
	switch cfg.Format {
	case "auto", "text", "json":
	default:
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateCleanup(cfg *CleanupConfig) {
	if _, err := scheduleParser.Parse(cfg.Schedule); err != nil {
		v.addError("cleanup.schedule", cfg.Schedule, "not a valid cron expression")
	}
	if cfg.DoneGrace <= 0 {
		v.addError("cleanup.done_grace", cfg.DoneGrace, "must be positive")
	}
	if cfg.IdleMax <= 0 {
		v.addError("cleanup.idle_max", cfg.IdleMax, "must be positive")
	}
}

func (v *Validator) validateEvents(cfg *EventsConfig) {
	if cfg.Buffer < 1 {
		v.addError("events.buffer", cfg.Buffer, "must be at least 1")
	}
}

// isLoopbackHost accepts "localhost" and any literal loopback IP.
func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
