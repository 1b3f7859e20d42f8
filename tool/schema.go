package tool

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema renders the parameters as a JSON schema object.
func (t *Tool) Schema() (*jsonschema.Schema, error) {
	s := &jsonschema.Schema{
		Type:       TypeObject,
		Properties: make(map[string]*jsonschema.Schema, len(t.Parameters)),
	}
	for _, p := range t.Parameters {
		prop := &jsonschema.Schema{Type: p.Type, Description: p.Description}
		for _, v := range p.Enum {
			prop.Enum = append(prop.Enum, v)
		}
		if p.Default != nil {
			raw, err := json.Marshal(p.Default)
			if err != nil {
				return nil, fmt.Errorf("tool %s: default of %s: %w", t.Name, p.Name, err)
			}
			prop.Default = raw
		}
		s.Properties[p.Name] = prop
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s, nil
}

// ParametersSchema is Schema as decoded JSON, the shape chat-completion APIs
// take for function parameters.
func (t *Tool) ParametersSchema() (map[string]any, error) {
	s, err := t.Schema()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("tool %s: encode schema: %w", t.Name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("tool %s: decode schema: %w", t.Name, err)
	}
	return out, nil
}
