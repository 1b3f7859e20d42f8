package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "non-empty value", value: "valid", wantError: false},
		{name: "empty value", value: "", wantError: true},
		{name: "whitespace only", value: "   ", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("test_field", tt.value)
			assert.Equal(t, tt.wantError, v.HasErrors())
		})
	}
}

func TestValidatorRequirePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{name: "positive value", value: 10, wantError: false},
		{name: "zero value", value: 0, wantError: true},
		{name: "negative value", value: -5, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequirePositive("test_field", tt.value)
			assert.Equal(t, tt.wantError, v.HasErrors())
		})
	}
}

func TestValidatorValidatePort(t *testing.T) {
	tests := []struct {
		name      string
		port      int
		wantError bool
	}{
		{name: "lowest", port: 1, wantError: false},
		{name: "default", port: 8000, wantError: false},
		{name: "highest", port: 65535, wantError: false},
		{name: "zero", port: 0, wantError: true},
		{name: "too high", port: 65536, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator().ValidatePort("port", tt.port)
			assert.Equal(t, tt.wantError, v.HasErrors())
		})
	}
}

func TestValidatorValidateRoutePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{name: "default mount", path: "/mcp", wantError: false},
		{name: "nested mount", path: "/mcp/mcp", wantError: false},
		{name: "relative", path: "mcp", wantError: true},
		{name: "root", path: "/", wantError: true},
		{name: "health collision", path: "/health", wantError: true},
		{name: "lorem subtree collision", path: "/lorem/tool", wantError: true},
		{name: "prefix is not a collision", path: "/loremtool", wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator().ValidateRoutePath("mcpPath", tt.path, ReservedRoutes...)
			assert.Equal(t, tt.wantError, v.HasErrors())
		})
	}
}

func TestValidatorValidateURL(t *testing.T) {
	assert.False(t, NewValidator().ValidateURL("url", "http://localhost:1234/v1").HasErrors())
	assert.False(t, NewValidator().ValidateURL("url", "https://api.openai.com/v1/chat/completions").HasErrors())
	assert.True(t, NewValidator().ValidateURL("url", "localhost:1234").HasErrors())
	assert.True(t, NewValidator().ValidateURL("url", "ftp://example.com").HasErrors())
	assert.True(t, NewValidator().ValidateURL("url", "").HasErrors())
}

func TestValidatorChainingCollectsAllErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("host", "").
		ValidatePort("port", 0).
		ValidateOneOf("transport", "grpc", TransportHTTP, TransportStdio)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)

	err := v.Error()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host")
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "transport")
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator().RequireNonEmpty("host", "localhost")
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Field: "port", Message: "value must be positive"}
	assert.Equal(t, `config validation failed for field "port": value must be positive`, err.Error())
}

func validServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "127.0.0.1",
		Port:            8000,
		MCPPath:         "/mcp",
		Transport:       TransportHTTP,
		CORSOrigins:     []string{"*"},
		MetricsEnabled:  true,
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestValidateServerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ServerConfig)
		wantError bool
	}{
		{name: "valid", mutate: func(*ServerConfig) {}, wantError: false},
		{name: "stdio transport", mutate: func(c *ServerConfig) { c.Transport = TransportStdio }, wantError: false},
		{name: "unknown transport", mutate: func(c *ServerConfig) { c.Transport = "sse" }, wantError: true},
		{name: "bad port", mutate: func(c *ServerConfig) { c.Port = 70000 }, wantError: true},
		{name: "empty host", mutate: func(c *ServerConfig) { c.Host = "" }, wantError: true},
		{name: "mcp on metrics", mutate: func(c *ServerConfig) { c.MCPPath = "/metrics" }, wantError: true},
		{name: "no cors origins", mutate: func(c *ServerConfig) { c.CORSOrigins = nil }, wantError: true},
		{name: "zero shutdown timeout", mutate: func(c *ServerConfig) { c.ShutdownTimeout = 0 }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validServerConfig()
			tt.mutate(&cfg)
			err := ValidateServerConfig(cfg)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLLMConfig(t *testing.T) {
	valid := LLMConfig{
		URL:         "http://localhost:1234/v1/chat/completions",
		Model:       "gemma-3-27b-it-qat",
		Temperature: 0.1,
		MaxTokens:   500,
		Timeout:     30 * time.Second,
	}
	assert.NoError(t, ValidateLLMConfig(valid))

	hot := valid
	hot.Temperature = 2.5
	assert.Error(t, ValidateLLMConfig(hot))

	noModel := valid
	noModel.Model = ""
	assert.Error(t, ValidateLLMConfig(noModel))

	noTokens := valid
	noTokens.MaxTokens = 0
	assert.Error(t, ValidateLLMConfig(noTokens))

	badURL := valid
	badURL.URL = "not a url"
	assert.Error(t, ValidateLLMConfig(badURL))
}

func TestValidateTracingConfig(t *testing.T) {
	assert.NoError(t, ValidateTracingConfig(TracingConfig{SampleRatio: 1}))
	assert.NoError(t, ValidateTracingConfig(TracingConfig{SampleRatio: 0.1}))

	err := ValidateTracingConfig(TracingConfig{SampleRatio: 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampleRatio")
}
