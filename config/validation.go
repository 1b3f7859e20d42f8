package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator provides configuration validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: []ValidationError{},
	}
}

// RequireNonEmpty validates that a string field is not empty
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: "value cannot be empty",
		})
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be positive, got %d", value),
		})
	}
	return v
}

// ValidateRange validates that an integer field is within a range [min, max]
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be between %d and %d, got %d", min, max, value),
		})
	}
	return v
}

// ValidateFloatRange validates that a float field is within a range [min, max]
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be between %.2f and %.2f, got %.2f", min, max, value),
		})
	}
	return v
}

// ValidatePort validates that a port number is valid (1-65535)
func (v *Validator) ValidatePort(field string, port int) *Validator {
	return v.ValidateRange(field, port, 1, 65535)
}

// ValidateOneOf validates that a string value is one of the allowed options
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be one of %v, got %q", allowed, value),
	})
	return v
}

// ValidateRoutePath validates that a value is an absolute URL path that does
// not shadow any of the reserved routes.
func (v *Validator) ValidateRoutePath(field, value string, reserved ...string) *Validator {
	if !strings.HasPrefix(value, "/") || value == "/" {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be an absolute path other than \"/\", got %q", value),
		})
		return v
	}
	for _, r := range reserved {
		if value == r || strings.HasPrefix(value, r+"/") {
			v.errors = append(v.errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("value %q collides with reserved route %q", value, r),
			})
			return v
		}
	}
	return v
}

// ValidateURL validates that a string is an absolute http(s) URL
func (v *Validator) ValidateURL(field, value string) *Validator {
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be an absolute http(s) URL, got %q", value),
		})
	}
	return v
}

// HasErrors returns true if there are any validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns a combined error message or nil if no errors
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for _, e := range v.errors {
		fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
	}
	return errors.New(b.String())
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ValidateServerConfig validates the HTTP/MCP server configuration
func ValidateServerConfig(cfg ServerConfig) error {
	v := NewValidator()

	v.RequireNonEmpty("host", cfg.Host)
	v.ValidatePort("port", cfg.Port)
	v.ValidateOneOf("transport", cfg.Transport, TransportHTTP, TransportStdio)
	v.ValidateRoutePath("mcpPath", cfg.MCPPath, ReservedRoutes...)
	if len(cfg.CORSOrigins) == 0 {
		v.errors = append(v.errors, ValidationError{Field: "corsOrigins", Message: "at least one origin is required"})
	}
	if cfg.ShutdownTimeout <= 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   "shutdownTimeout",
			Message: fmt.Sprintf("value must be positive, got %s", cfg.ShutdownTimeout),
		})
	}

	return v.Error()
}

// ValidateLLMConfig validates the chat-completion endpoint used by the probe
func ValidateLLMConfig(cfg LLMConfig) error {
	v := NewValidator()

	v.ValidateURL("url", cfg.URL)
	v.RequireNonEmpty("model", cfg.Model)
	v.ValidateFloatRange("temperature", cfg.Temperature, 0.0, 2.0)
	v.RequirePositive("maxTokens", cfg.MaxTokens)
	if cfg.Timeout <= 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   "timeout",
			Message: fmt.Sprintf("value must be positive, got %s", cfg.Timeout),
		})
	}

	return v.Error()
}

// ValidateTracingConfig checks the sampling ratio; the endpoint is dialed lazily.
func ValidateTracingConfig(cfg TracingConfig) error {
	return NewValidator().
		ValidateFloatRange("sampleRatio", cfg.SampleRatio, 0.0, 1.0).
		Error()
}
