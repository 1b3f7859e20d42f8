package tool

import "context"

// Provider is a remote source of tools, such as an MCP server.
type Provider interface {
	Tools(ctx context.Context) ([]*Tool, error)
	Close() error
	// ToolsChanged fires when the tool set was updated. It may be nil.
	ToolsChanged() <-chan struct{}
}
