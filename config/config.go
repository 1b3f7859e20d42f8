package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Transports supported by the MCP surface.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// ReservedRoutes are served by the REST surface and cannot host the MCP endpoint.
var ReservedRoutes = []string{"/health", "/lorem", "/metrics"}

// Config holds the whole service configuration.
type Config struct {
	Server  ServerConfig
	Tracing TracingConfig
	LLM     LLMConfig
}

// ServerConfig configures the REST and MCP surfaces.
type ServerConfig struct {
	Host            string        `envconfig:"LOREM_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"LOREM_PORT" default:"8000"`
	MCPPath         string        `envconfig:"LOREM_MCP_PATH" default:"/mcp"`
	Transport       string        `envconfig:"LOREM_TRANSPORT" default:"http"`
	CORSOrigins     []string      `envconfig:"LOREM_CORS_ORIGINS" default:"*"`
	MetricsEnabled  bool          `envconfig:"LOREM_METRICS_ENABLED" default:"true"`
	ShutdownTimeout time.Duration `envconfig:"LOREM_SHUTDOWN_TIMEOUT" default:"5s"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TracingConfig controls OpenTelemetry export. Without an endpoint spans are
// written to stderr.
type TracingConfig struct {
	Enabled     bool    `envconfig:"LOREM_TRACING_ENABLED" default:"false"`
	Environment string  `envconfig:"LOREM_ENVIRONMENT" default:"development"`
	Endpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRatio float64 `envconfig:"LOREM_TRACE_SAMPLE_RATIO" default:"1"`
}

// LLMConfig points the probe at an OpenAI-compatible chat-completion API.
type LLMConfig struct {
	URL         string        `envconfig:"LLM_API_URL" default:"http://localhost:1234/v1/chat/completions"`
	Model       string        `envconfig:"LLM_MODEL" default:"gemma-3-27b-it-qat"`
	APIKey      string        `envconfig:"OPENAI_API_KEY"`
	Temperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	MaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"800"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
}

// Load reads an optional .env file from the working directory and then the
// process environment. Values already present in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	return &cfg, nil
}
