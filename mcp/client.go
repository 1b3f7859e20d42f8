package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/lorem-mcp/pkg/logging"
)

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.New("mcp: client closed")

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	info       sdkmcp.Implementation
	logger     *slog.Logger
	keepAlive  time.Duration
	httpClient *http.Client
	maxRetries *int
}

// WithClientInfo sets the name and version the client announces.
func WithClientInfo(name, version string) Option {
	return func(o *clientOptions) {
		if name != "" {
			o.info.Name = name
		}
		if version != "" {
			o.info.Version = version
		}
	}
}

// WithLogger receives client diagnostics and server log notifications.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithKeepAlive pings the server at the given interval.
func WithKeepAlive(interval time.Duration) Option {
	return func(o *clientOptions) {
		o.keepAlive = interval
	}
}

// WithHTTPClient is used by the streamable transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithStreamableMaxRetries bounds reconnect attempts of the streamable transport.
func WithStreamableMaxRetries(retries int) Option {
	return func(o *clientOptions) {
		o.maxRetries = &retries
	}
}

func newClientOptions(opts []Option) clientOptions {
	o := clientOptions{
		info: sdkmcp.Implementation{Name: "lorem-mcp-client", Version: ServerVersion},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	return o
}

// Client is one initialized session with an MCP server.
type Client struct {
	session *sdkmcp.ClientSession
	logger  *slog.Logger

	toolsChanged chan struct{}
	done         chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewClient initializes a session over transport.
func NewClient(ctx context.Context, transport sdkmcp.Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, errors.New("mcp: transport cannot be nil")
	}
	return connect(ctx, transport, newClientOptions(opts))
}

// NewStreamableClient initializes a session with the streamable HTTP
// endpoint, e.g. http://localhost:8000/mcp.
func NewStreamableClient(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("mcp: endpoint cannot be empty")
	}
	o := newClientOptions(opts)

	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: o.httpClient,
	}
	if o.maxRetries != nil {
		transport.MaxRetries = *o.maxRetries
	}
	return connect(ctx, transport, o)
}

func connect(ctx context.Context, transport sdkmcp.Transport, o clientOptions) (*Client, error) {
	c := &Client{
		logger:       o.logger,
		toolsChanged: make(chan struct{}, 1),
		done:         make(chan struct{}),
	}

	sdkClient := sdkmcp.NewClient(&o.info, &sdkmcp.ClientOptions{
		KeepAlive: o.keepAlive,
		ToolListChangedHandler: func(context.Context, *sdkmcp.ToolListChangedRequest) {
			select {
			case c.toolsChanged <- struct{}{}:
			default:
			}
		},
		LoggingMessageHandler: func(_ context.Context, req *sdkmcp.LoggingMessageRequest) {
			if req != nil && req.Params != nil {
				c.logger.Info("mcp server log", "level", req.Params.Level, "logger", req.Params.Logger, "data", req.Params.Data)
			}
		},
	})

	session, err := sdkClient.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect: %w", err)
	}
	c.session = session

	if res := session.InitializeResult(); res != nil && res.ServerInfo != nil {
		c.logger.Debug("mcp session initialized",
			"server", res.ServerInfo.Name,
			"version", res.ServerInfo.Version,
			"protocol", res.ProtocolVersion,
		)
	}

	go c.watch()
	return c, nil
}

// InitializeResult is what the server answered during the handshake.
func (c *Client) InitializeResult() *sdkmcp.InitializeResult {
	return c.session.InitializeResult()
}

// ToolsChanged signals (coalesced) tool list change notifications.
func (c *Client) ToolsChanged() <-chan struct{} {
	return c.toolsChanged
}

// Done is closed once the session has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close ends the session. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.session.Close()
		close(c.done)
	})
	return c.closeErr
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// watch closes the client when the server side goes away.
func (c *Client) watch() {
	if err := c.session.Wait(); err != nil && !errors.Is(err, sdkmcp.ErrConnectionClosed) {
		c.logger.Warn("mcp session ended", "error", err)
	}
	_ = c.Close()
}
