package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/sweetpotato0/lorem-mcp/config"
	"github.com/sweetpotato0/lorem-mcp/lorem"
	"github.com/sweetpotato0/lorem-mcp/mcp"
	"github.com/sweetpotato0/lorem-mcp/pkg/telemetry"
	"github.com/sweetpotato0/lorem-mcp/server"
)

type serveFlags struct {
	host      string
	port      int
	mcpPath   string
	transport string
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and the MCP endpoint",
		Long: `Serves GET /health, GET /lorem/{count}, GET /metrics and the MCP
streamable HTTP endpoint on one port. With --transport stdio the MCP server
speaks over stdin/stdout instead and no HTTP listener is opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, &a.cfg.Server)
			if err := config.ValidateServerConfig(a.cfg.Server); err != nil {
				return err
			}
			if err := config.ValidateTracingConfig(a.cfg.Tracing); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&f.host, "host", "", "Listen host (LOREM_HOST)")
	cmd.Flags().IntVar(&f.port, "port", 0, "Listen port (LOREM_PORT)")
	cmd.Flags().StringVar(&f.mcpPath, "mcp-path", "", "Route of the MCP endpoint (LOREM_MCP_PATH)")
	cmd.Flags().StringVar(&f.transport, "transport", "", "MCP transport: http or stdio (LOREM_TRANSPORT)")
	return cmd
}

// apply copies the flags the user set onto cfg.
func (f serveFlags) apply(cmd *cobra.Command, cfg *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("mcp-path") {
		cfg.MCPPath = f.mcpPath
	}
	if flags.Changed("transport") {
		cfg.Transport = f.transport
	}
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := a.initTracing(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn("trace flush failed", "error", err)
		}
	}()

	g := lorem.NewGenerator()

	if a.cfg.Server.Transport == config.TransportStdio {
		a.logger.Info("serving MCP over stdio", "server", mcp.ServerName, "version", mcp.ServerVersion)
		mcpServer := mcp.NewServer(g, mcp.WithServerLogger(a.logger.With("component", "mcp")))
		if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(a.cfg.Server, g, server.WithLogger(a.logger.With("component", "http")))
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func (a *app) initTracing(ctx context.Context) (telemetry.Shutdown, error) {
	t := a.cfg.Tracing
	return telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "lorem-mcp",
		ServiceVersion: mcp.ServerVersion,
		Environment:    t.Environment,
		Disable:        !t.Enabled,
		Endpoint:       t.Endpoint,
		SampleRatio:    t.SampleRatio,
		Logger:         a.logger.With("component", "telemetry"),
	})
}
