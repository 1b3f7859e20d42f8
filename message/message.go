package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one turn of a probe conversation.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolID links a RoleTool message to the call it answers.
	ToolID    string    `json:"tool_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToolCall is a call the model asked for and, once run, what it returned.
type ToolCall struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Args     map[string]any `json:"args"`
	Response string         `json:"response,omitempty"`
}

func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewToolCallMessage is an assistant turn requesting calls.
func NewToolCallMessage(content string, calls []ToolCall) *Message {
	m := NewMessage(RoleAssistant, content)
	m.ToolCalls = calls
	return m
}

// NewToolResponseMessage answers the call with id callID.
func NewToolResponseMessage(callID, content string) *Message {
	m := NewMessage(RoleTool, content)
	m.ToolID = callID
	return m
}

// HasToolCalls reports whether the message requests any tool invocation.
func (m *Message) HasToolCalls() bool {
	return m != nil && len(m.ToolCalls) > 0
}

// String renders the message as a single transcript entry.
func (m *Message) String() string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(string(m.Role)))
	if m.ToolID != "" {
		fmt.Fprintf(&b, " [%s]", m.ToolID)
	}
	b.WriteString(": ")
	b.WriteString(m.Content)
	for _, tc := range m.ToolCalls {
		args, _ := json.Marshal(tc.Args)
		fmt.Fprintf(&b, "\n  -> %s(%s)", tc.Name, args)
	}
	return b.String()
}

// Transcript is an ordered conversation.
type Transcript []*Message

// String renders every message separated by a blank line.
func (t Transcript) String() string {
	parts := make([]string, 0, len(t))
	for _, m := range t {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, "\n\n")
}
