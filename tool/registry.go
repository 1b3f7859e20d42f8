package tool

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	apperrors "github.com/sweetpotato0/lorem-mcp/errors"
)

// Registry is a concurrency-safe set of tools keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds t. A name already taken is ErrAlreadyExists.
func (r *Registry) Register(t *Tool) error {
	if err := checkTool(t); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.tools[t.Name]; taken {
		return fmt.Errorf("tool %s: %w", t.Name, apperrors.ErrAlreadyExists)
	}
	r.tools[t.Name] = t
	return nil
}

// Upsert adds t or replaces the tool of the same name.
func (r *Registry) Upsert(t *Tool) error {
	if err := checkTool(t); err != nil {
		return err
	}
	r.mu.Lock()
	r.tools[t.Name] = t
	r.mu.Unlock()
	return nil
}

func checkTool(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("%w: tool name cannot be empty", apperrors.ErrInvalidInput)
	}
	return nil
}

func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tool %s: %w", name, apperrors.ErrNotFound)
	}
	return t, nil
}

// List returns the tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	tools := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(tools, func(a, b *Tool) int { return cmp.Compare(a.Name, b.Name) })
	return tools
}

// Execute looks up name and runs it with args.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return t.Execute(ctx, args)
}

// Sync upserts every tool of p and reports how many were loaded. Call it
// again after p.ToolsChanged fires to refresh.
func (r *Registry) Sync(ctx context.Context, p Provider) (int, error) {
	tools, err := p.Tools(ctx)
	if err != nil {
		return 0, fmt.Errorf("sync tools: %w", err)
	}
	for _, t := range tools {
		if err := r.Upsert(t); err != nil {
			return 0, err
		}
	}
	return len(tools), nil
}
