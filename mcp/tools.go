package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/lorem-mcp/pkg/telemetry"
	"github.com/sweetpotato0/lorem-mcp/tool"
)

// ToolError carries the text of a tool result flagged isError.
type ToolError struct {
	Name    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp tool %s: %s", e.Name, e.Message)
}

// ListTools fetches one page of tool definitions starting at cursor.
func (c *Client) ListTools(ctx context.Context, cursor string) (*sdkmcp.ListToolsResult, error) {
	if c.closed() {
		return nil, ErrClientClosed
	}
	return c.session.ListTools(ctx, &sdkmcp.ListToolsParams{Cursor: cursor})
}

// ListAllTools follows pagination until every tool has been fetched.
func (c *Client) ListAllTools(ctx context.Context) ([]*sdkmcp.Tool, error) {
	if c.closed() {
		return nil, ErrClientClosed
	}
	var tools []*sdkmcp.Tool
	for t, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp: list tools: %w", err)
		}
		tools = append(tools, t)
	}
	return tools, nil
}

// CallTool invokes name and flattens the result content to text. A result
// flagged isError comes back as *ToolError.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.closed() {
		return "", ErrClientClosed
	}

	ctx, span := telemetry.Start(ctx, "mcp.client.call_tool", attribute.String("mcp.tool", name))

	result, err := c.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		err = fmt.Errorf("mcp: call %s: %w", name, err)
		telemetry.End(span, err)
		return "", err
	}

	text := contentText(result.Content)
	if result.IsError {
		if text == "" {
			text = "tool reported an error without content"
		}
		err = &ToolError{Name: name, Message: text}
	}
	telemetry.End(span, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// BuildTools mirrors the server's tools as registry entries whose handlers
// call back over this session.
func (c *Client) BuildTools(ctx context.Context) ([]*tool.Tool, error) {
	defs, err := c.ListAllTools(ctx)
	if err != nil {
		return nil, err
	}

	tools := make([]*tool.Tool, 0, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		description := def.Description
		if description == "" && def.Annotations != nil {
			description = def.Annotations.Title
		}

		name := def.Name
		tools = append(tools, &tool.Tool{
			Name:        name,
			Description: description,
			Parameters:  parametersFromSchema(def.InputSchema),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				if args == nil {
					args = map[string]any{}
				}
				return c.CallTool(ctx, name, args)
			},
		})
	}
	return tools, nil
}

// RegisterTools adds the server's tools to registry. Names already present
// are an error.
func (c *Client) RegisterTools(ctx context.Context, registry *tool.Registry) error {
	tools, err := c.BuildTools(ctx)
	if err != nil {
		return err
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("mcp: register %s: %w", t.Name, err)
		}
	}
	return nil
}

// contentText joins text blocks; other content kinds are kept as their JSON.
func contentText(content []sdkmcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, block := range content {
		if text, ok := block.(*sdkmcp.TextContent); ok {
			parts = append(parts, text.Text)
			continue
		}
		if raw, err := block.MarshalJSON(); err == nil {
			parts = append(parts, string(raw))
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// parametersFromSchema flattens the top-level properties of an object
// schema. The SDK hands schemas over as decoded JSON, raw bytes or a typed
// schema depending on where they came from, so all are normalized first.
func parametersFromSchema(input any) []tool.Parameter {
	schema := decodeSchema(input)
	if schema == nil || schemaType(schema) != tool.TypeObject || len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]tool.Parameter, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		if prop == nil {
			continue
		}
		p := tool.Parameter{
			Name:        name,
			Type:        schemaType(prop),
			Description: prop.Description,
			Required:    required[name],
		}
		if len(prop.Default) > 0 {
			var def any
			if err := json.Unmarshal(prop.Default, &def); err == nil {
				p.Default = def
			}
		}
		for _, v := range prop.Enum {
			if s, ok := v.(string); ok {
				p.Enum = append(p.Enum, s)
			}
		}
		params = append(params, p)
	}
	return params
}

func decodeSchema(input any) *jsonschema.Schema {
	var raw []byte
	switch v := input.(type) {
	case nil:
		return nil
	case *jsonschema.Schema:
		return v
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		raw = encoded
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil
	}
	return &schema
}

// schemaType resolves the declared type, inferring one when it is missing.
func schemaType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	for _, t := range s.Types {
		if t != "null" {
			return t
		}
	}
	switch {
	case s.Items != nil:
		return tool.TypeArray
	case len(s.Properties) > 0:
		return tool.TypeObject
	default:
		return tool.TypeString
	}
}
