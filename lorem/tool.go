package lorem

import (
	"context"

	"github.com/sweetpotato0/lorem-mcp/tool"
)

// Capability advertised to agents.
const (
	ToolName                 = "generate_lorem_ipsum"
	ToolDescription          = "Generate lorem ipsum text with specified number of paragraphs."
	ParagraphCountParam      = "paragraph_count"
	ParagraphCountDescriptor = "Number of paragraphs to generate"
)

// DefaultParagraphCount applies when a tool call omits paragraph_count.
const DefaultParagraphCount = 1

// ToolArgs are the structured arguments of generate_lorem_ipsum.
type ToolArgs struct {
	ParagraphCount *int `json:"paragraph_count,omitempty"`
}

// Count resolves the paragraph count, falling back to DefaultParagraphCount.
func (a ToolArgs) Count() int {
	if a.ParagraphCount == nil {
		return DefaultParagraphCount
	}
	return *a.ParagraphCount
}

// NewTool describes generate_lorem_ipsum for a tool registry, backed by g.
func NewTool(g *Generator) *tool.Tool {
	return &tool.Tool{
		Name:        ToolName,
		Description: ToolDescription,
		Parameters: []tool.Parameter{
			{
				Name:        ParagraphCountParam,
				Type:        tool.TypeInteger,
				Description: ParagraphCountDescriptor,
				Default:     DefaultParagraphCount,
			},
		},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			var a ToolArgs
			n, ok, err := tool.IntArg(args, ParagraphCountParam)
			if err != nil {
				return "", err
			}
			if ok {
				a.ParagraphCount = &n
			}
			return g.Generate(a.Count())
		},
	}
}
