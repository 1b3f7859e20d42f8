// Package tool describes callable tools and keeps a registry of them.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	apperrors "github.com/sweetpotato0/lorem-mcp/errors"
)

// JSON schema types a Parameter may declare.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Handler runs a tool with validated arguments.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Parameter is one top-level argument of a tool.
type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// Tool is a named, described handler.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Handler     Handler     `json:"-"`
}

// Execute fills in defaults, checks the arguments and runs the handler. args
// is never modified.
func (t *Tool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if t.Handler == nil {
		return "", fmt.Errorf("tool %s: no handler", t.Name)
	}

	args = t.ApplyDefaults(args)
	if err := t.ValidateArgs(args); err != nil {
		return "", fmt.Errorf("tool %s: %w", t.Name, err)
	}
	return t.Handler(ctx, args)
}

// ApplyDefaults returns a copy of args completed with declared defaults.
func (t *Tool) ApplyDefaults(args map[string]any) map[string]any {
	out := maps.Clone(args)
	if out == nil {
		out = make(map[string]any, len(t.Parameters))
	}
	for _, p := range t.Parameters {
		if _, set := out[p.Name]; !set && p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}

// ValidateArgs checks presence of required parameters, integer typing and
// enums. Failures wrap ErrInvalidInput.
func (t *Tool) ValidateArgs(args map[string]any) error {
	for _, p := range t.Parameters {
		value, set := args[p.Name]
		switch {
		case !set && p.Required:
			return fmt.Errorf("%w: missing required parameter %s", apperrors.ErrInvalidInput, p.Name)
		case !set:
			continue
		}

		if p.Type == TypeInteger {
			if _, err := asInt(value); err != nil {
				return fmt.Errorf("%w: parameter %s: %v", apperrors.ErrInvalidInput, p.Name, err)
			}
		}
		if len(p.Enum) > 0 {
			if s, _ := value.(string); !slices.Contains(p.Enum, s) {
				return fmt.Errorf("%w: parameter %s must be one of %v", apperrors.ErrInvalidInput, p.Name, p.Enum)
			}
		}
	}
	return nil
}

// IntArg reads an integer argument. Whole float64 values are accepted since
// that is how JSON numbers decode. present is false when name is absent or null.
func IntArg(args map[string]any, name string) (n int, present bool, err error) {
	value, ok := args[name]
	if !ok || value == nil {
		return 0, false, nil
	}
	if n, err = asInt(value); err != nil {
		return 0, true, fmt.Errorf("%w: parameter %s: %v", apperrors.ErrInvalidInput, name, err)
	}
	return n, true, nil
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) || v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", v.String())
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", value)
}
