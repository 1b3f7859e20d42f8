// Package server hosts the REST surface and mounts the MCP streamable HTTP
// endpoint on the same gin engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sweetpotato0/lorem-mcp/config"
	"github.com/sweetpotato0/lorem-mcp/lorem"
	"github.com/sweetpotato0/lorem-mcp/mcp"
	"github.com/sweetpotato0/lorem-mcp/pkg/logging"
)

// Route paths of the REST surface.
const (
	HealthPath  = "/health"
	LoremPath   = "/lorem/:count"
	MetricsPath = "/metrics"
)

var (
	promOnce sync.Once
	prom     *ginprometheus.Prometheus
)

// gin request metrics register on the default registry, so the collector set
// is built once per process and attached to every engine.
func requestMetrics() *ginprometheus.Prometheus {
	promOnce.Do(func() {
		prom = ginprometheus.NewPrometheus("gin")
		prom.MetricsPath = MetricsPath
		prom.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			if route := c.FullPath(); route != "" {
				return route
			}
			return "unmatched"
		}
	})
	return prom
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and lifecycle logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server serves health, paragraphs, metrics and the MCP endpoint.
type Server struct {
	cfg       config.ServerConfig
	generator *lorem.Generator
	mcp       *sdkmcp.Server
	logger    *slog.Logger

	engine  *gin.Engine
	handler http.Handler
}

// New validates cfg and builds the HTTP handler tree.
func New(cfg config.ServerConfig, g *lorem.Generator, opts ...Option) (*Server, error) {
	if g == nil {
		return nil, errors.New("server: generator is required")
	}
	if err := config.ValidateServerConfig(cfg); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		generator: g,
		logger:    logging.WithComponent("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcp = mcp.NewServer(g, mcp.WithServerLogger(s.logger.With("component", "mcp")))

	s.engine = s.routes()
	s.handler = otelhttp.NewHandler(s.engine, "lorem-mcp",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(s.logger))
	engine.Use(cors.New(corsConfig(s.cfg.CORSOrigins)))

	if s.cfg.MetricsEnabled {
		requestMetrics().Use(engine)
	}

	engine.GET(HealthPath, s.health)
	engine.HEAD(HealthPath, s.health)
	engine.GET(LoremPath, s.paragraphs)
	engine.Any(s.cfg.MCPPath, gin.WrapH(mcp.NewHTTPHandler(s.mcp)))

	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Accept", "Content-Type", "Authorization",
			"Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID", RequestIDHeader,
		},
		ExposeHeaders: []string{"Mcp-Session-Id", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Handler returns the instrumented handler tree.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening",
			"addr", ln.Addr().String(),
			"mcp_path", s.cfg.MCPPath,
			"metrics", s.cfg.MetricsEnabled,
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Open MCP event streams can outlive the timeout.
		s.logger.Warn("graceful shutdown incomplete, closing connections", "error", err)
		if cerr := srv.Close(); cerr != nil {
			return fmt.Errorf("server: close: %w", cerr)
		}
	}
	s.logger.Info("http server stopped")
	return nil
}
