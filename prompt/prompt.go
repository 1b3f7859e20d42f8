// Package prompt renders the messages the probe sends to a model.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"

	apperrors "github.com/sweetpotato0/lorem-mcp/errors"
)

// Names of the built-in probe templates.
const (
	Plain      = "plain"
	Hint       = "hint"
	ToolCall   = "tool_call"
	SystemHint = "system_hint"
)

var builtins = map[string]string{
	Plain:      `Generate exactly {{.Count}} {{if eq .Count 1}}paragraph{{else}}paragraphs{{end}} of lorem ipsum text`,
	Hint:       `Please use your available tools to generate {{.Count}} {{if eq .Count 1}}paragraph{{else}}paragraphs{{end}} of lorem ipsum`,
	ToolCall:   `Generate {{.Count}} {{if eq .Count 1}}paragraph{{else}}paragraphs{{end}} of lorem ipsum`,
	SystemHint: `You have access to a tool called {{.Tool}} that generates proper lorem ipsum text. Always use this tool when asked for lorem ipsum.`,
}

// Vars are the values a template may reference.
type Vars struct {
	Count int
	Tool  string
}

// Template is a named text/template. Missing keys are errors.
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

// NewTemplate parses content.
func NewTemplate(name, content string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: parse template %s: %v", apperrors.ErrInvalidInput, name, err)
	}
	return &Template{
		Name:     name,
		Content:  content,
		template: tmpl,
	}, nil
}

// Render executes the template with vars.
func (t *Template) Render(vars Vars) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.Name, err)
	}
	return buf.String(), nil
}

// Manager holds templates by name. It is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
	}
}

// Defaults returns a manager preloaded with the probe conversations.
func Defaults() *Manager {
	m := NewManager()
	for name, content := range builtins {
		// Built-in templates are constant and known to parse.
		if err := m.RegisterString(name, content); err != nil {
			panic(err)
		}
	}
	return m
}

// Register adds tmpl, refusing to replace an existing name.
func (m *Manager) Register(tmpl *Template) error {
	if tmpl == nil || tmpl.Name == "" {
		return fmt.Errorf("%w: template name cannot be empty", apperrors.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.templates[tmpl.Name]; exists {
		return fmt.Errorf("template %s: %w", tmpl.Name, apperrors.ErrAlreadyExists)
	}
	m.templates[tmpl.Name] = tmpl
	return nil
}

// RegisterString parses content and registers it under name.
func (m *Manager) RegisterString(name, content string) error {
	tmpl, err := NewTemplate(name, content)
	if err != nil {
		return err
	}
	return m.Register(tmpl)
}

// Override replaces, or adds, the template called name.
func (m *Manager) Override(name, content string) error {
	tmpl, err := NewTemplate(name, content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[name] = tmpl
	return nil
}

// Get retrieves a template by name.
func (m *Manager) Get(name string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", name, apperrors.ErrNotFound)
	}
	return tmpl, nil
}

// Render renders the template called name.
func (m *Manager) Render(name string, vars Vars) (string, error) {
	tmpl, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(vars)
}

// List returns the registered names in order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
