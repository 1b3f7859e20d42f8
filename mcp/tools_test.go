package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentText(t *testing.T) {
	content := []sdkmcp.Content{
		&sdkmcp.TextContent{Text: "hello"},
		&sdkmcp.ResourceLink{URI: "file://foo", Name: "foo.txt"},
	}

	got := contentText(content)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2, "got %q", got)
	assert.Equal(t, "hello", lines[0])
	assert.Contains(t, lines[1], `"resource_link"`)

	assert.Equal(t, "", contentText(nil))
}

func TestParametersFromSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "search query",
			},
			"limit": map[string]any{
				"type":        "number",
				"description": "maximum items",
				"default":     10,
			},
			"tags": map[string]any{
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"query"},
	}

	params := parametersFromSchema(schema)
	require.Len(t, params, 3)

	assert.Equal(t, []string{"limit", "query", "tags"}, []string{params[0].Name, params[1].Name, params[2].Name})
	assert.True(t, params[1].Required)
	assert.False(t, params[0].Required)
	assert.EqualValues(t, 10, params[0].Default)
	assert.Equal(t, "array", params[2].Type)
}

func TestParametersFromTypedSchema(t *testing.T) {
	params := parametersFromSchema(InputSchema())
	require.Len(t, params, 1)

	p := params[0]
	assert.Equal(t, "paragraph_count", p.Name)
	assert.Equal(t, "integer", p.Type)
	assert.False(t, p.Required)
	assert.EqualValues(t, 1, p.Default)
}

func TestParametersFromRawSchema(t *testing.T) {
	raw := json.RawMessage(`{"type":"object","properties":{"n":{"type":"integer","enum":["1","2"]}}}`)

	params := parametersFromSchema(raw)
	require.Len(t, params, 1)
	assert.Equal(t, []string{"1", "2"}, params[0].Enum)
}

func TestParametersFromNonObjectSchema(t *testing.T) {
	assert.Nil(t, parametersFromSchema(map[string]any{"type": "string"}))
	assert.Nil(t, parametersFromSchema(nil))
	assert.Nil(t, parametersFromSchema(json.RawMessage(`not json`)))
}

func TestToolErrorMessage(t *testing.T) {
	err := &ToolError{Name: "generate_lorem_ipsum", Message: "boom"}
	assert.Equal(t, "mcp tool generate_lorem_ipsum: boom", err.Error())
}
