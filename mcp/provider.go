package mcp

import (
	"context"
	"errors"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/lorem-mcp/tool"
)

var _ tool.Provider = (*Provider)(nil)

// Config locates an MCP server. Transport takes precedence over Endpoint.
type Config struct {
	// Endpoint is a streamable HTTP URL, e.g. http://localhost:8000/mcp.
	Endpoint  string
	Transport sdkmcp.Transport
}

func (c Config) dial(ctx context.Context, opts []Option) (*Client, error) {
	switch {
	case c.Transport != nil:
		return NewClient(ctx, c.Transport, opts...)
	case strings.TrimSpace(c.Endpoint) != "":
		return NewStreamableClient(ctx, c.Endpoint, opts...)
	}
	return nil, errors.New("mcp: endpoint or transport is required")
}

// Provider serves the tools of one MCP server to a tool.Registry. Calls to
// those tools travel over the provider's session.
type Provider struct {
	client *Client
}

// NewProvider connects and lists the server's tools once, so an unusable
// server is reported here rather than on first Sync.
func NewProvider(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	client, err := cfg.dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	if _, err := client.ListAllTools(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Tools(ctx context.Context) ([]*tool.Tool, error) {
	return p.client.BuildTools(ctx)
}

func (p *Provider) ToolsChanged() <-chan struct{} {
	return p.client.ToolsChanged()
}

// Client is the session the provider's tools call through.
func (p *Provider) Client() *Client {
	return p.client
}

func (p *Provider) Close() error {
	return p.client.Close()
}
