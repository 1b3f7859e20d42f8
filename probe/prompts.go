package probe

import (
	"fmt"

	"github.com/sweetpotato0/lorem-mcp/lorem"
	"github.com/sweetpotato0/lorem-mcp/prompt"
)

// DefaultParagraphs is the paragraph count the probe conversations ask for.
const DefaultParagraphs = 2

// Prompts are the rendered messages of the three probe conversations.
type Prompts struct {
	Plain  string
	Hint   string
	Tool   string
	System string
}

// BuildPrompts renders the conversations from m asking for count paragraphs.
func BuildPrompts(m *prompt.Manager, count int) (Prompts, error) {
	vars := prompt.Vars{Count: count, Tool: lorem.ToolName}

	var (
		p   Prompts
		err error
	)
	for _, r := range []struct {
		name string
		dst  *string
	}{
		{prompt.Plain, &p.Plain},
		{prompt.Hint, &p.Hint},
		{prompt.ToolCall, &p.Tool},
		{prompt.SystemHint, &p.System},
	} {
		if *r.dst, err = m.Render(r.name, vars); err != nil {
			return Prompts{}, fmt.Errorf("probe: %w", err)
		}
	}
	return p, nil
}

// DefaultPrompts renders the built-in templates for DefaultParagraphs.
func DefaultPrompts() Prompts {
	p, err := BuildPrompts(prompt.Defaults(), DefaultParagraphs)
	if err != nil {
		panic(err)
	}
	return p
}
