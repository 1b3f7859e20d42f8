package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/lorem-mcp/lorem"
	"github.com/sweetpotato0/lorem-mcp/pkg/logging"
	"github.com/sweetpotato0/lorem-mcp/pkg/metrics"
	"github.com/sweetpotato0/lorem-mcp/pkg/telemetry"
)

// Server identity advertised during initialization.
const (
	ServerName    = "lorem-ipsum-mcp"
	ServerTitle   = "Lorem Ipsum MCP"
	ServerVersion = "0.1.0"
)

const instructions = "Use generate_lorem_ipsum whenever placeholder or lorem ipsum text is requested."

// ServerOption configures NewServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger *slog.Logger
}

// WithServerLogger sets the logger used for tool invocations.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(cfg *serverConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// NewServer builds the MCP server exposing generate_lorem_ipsum backed by g.
// The same server serves both the streamable HTTP and the stdio transports.
func NewServer(g *lorem.Generator, opts ...ServerOption) *sdkmcp.Server {
	cfg := serverConfig{logger: logging.WithComponent("mcp")}
	for _, opt := range opts {
		opt(&cfg)
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    ServerName,
		Title:   ServerTitle,
		Version: ServerVersion,
	}, &sdkmcp.ServerOptions{
		Instructions: instructions,
	})

	addLoremTool(server, g, cfg.logger)

	return server
}

// NewHTTPHandler returns the streamable HTTP handler serving server.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, nil)
}

// InputSchema is the JSON schema of generate_lorem_ipsum's arguments.
func InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			lorem.ParagraphCountParam: {
				Type:        "integer",
				Description: lorem.ParagraphCountDescriptor,
				Default:     json.RawMessage(strconv.Itoa(lorem.DefaultParagraphCount)),
			},
		},
	}
}

func addLoremTool(server *sdkmcp.Server, g *lorem.Generator, logger *slog.Logger) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        lorem.ToolName,
		Description: lorem.ToolDescription,
		InputSchema: InputSchema(),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, args lorem.ToolArgs) (*sdkmcp.CallToolResult, any, error) {
		n := args.Count()
		_, span := telemetry.Start(ctx, "mcp.generate_lorem_ipsum", attribute.Int("lorem.paragraph_count", n))

		text, err := g.Generate(n)
		telemetry.End(span, err)
		metrics.ObserveGeneration(metrics.SurfaceMCP, n, err)
		if err != nil {
			logger.Warn("tool call rejected", "tool", lorem.ToolName, "paragraph_count", n, "error", err)
			return &sdkmcp.CallToolResult{
				IsError: true,
				Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: err.Error()}},
			}, nil, nil
		}

		logger.Debug("tool call served", "tool", lorem.ToolName, "paragraph_count", n, "bytes", len(text))
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{
				&sdkmcp.TextContent{Text: text},
			},
		}, nil, nil
	})
}
