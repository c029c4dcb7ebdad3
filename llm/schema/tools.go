package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

type ToolType string

const (
	ToolTypeFunction ToolType = "function"
)

// Property describes one function argument.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Parameters is the JSON-schema-like object describing a function's
// arguments. Every name in Required should appear in Properties; see
// Tool.Validate.
type Parameters struct {
	Properties map[string]Property
	Required   []string
}

// With returns a copy of p with the property added.
func (p Parameters) With(name, typ, description string, required bool) Parameters {
	props := make(map[string]Property, len(p.Properties)+1)
	for k, v := range p.Properties {
		props[k] = v
	}
	props[name] = Property{Type: typ, Description: description}

	req := append([]string(nil), p.Required...)
	if required {
		req = append(req, name)
	}
	return Parameters{Properties: props, Required: req}
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	props := p.Properties
	if props == nil {
		props = map[string]Property{}
	}
	req := p.Required
	if req == nil {
		req = []string{}
	}
	return json.Marshal(struct {
		Type       string              `json:"type"`
		Properties map[string]Property `json:"properties"`
		Required   []string            `json:"required"`
	}{"object", props, req})
}

// Tool is a function the model may ask the caller to invoke.
type Tool struct {
	Name        string
	Description string
	Parameters  Parameters
}

// NewTool 创建函数调用工具
func NewTool(name, description string, parameters Parameters) (Tool, error) {
	if name == "" {
		return Tool{}, fmt.Errorf("function name required")
	}
	return Tool{Name: name, Description: description, Parameters: parameters}, nil
}

func (t Tool) MarshalJSON() ([]byte, error) {
	type function struct {
		Description string     `json:"description"`
		Name        string     `json:"name"`
		Parameters  Parameters `json:"parameters"`
	}
	return json.Marshal(struct {
		Type     ToolType `json:"type"`
		Function function `json:"function"`
	}{ToolTypeFunction, function{t.Description, t.Name, t.Parameters}})
}

// UndeclaredRequiredError reports required argument names that have no
// matching property.
type UndeclaredRequiredError struct {
	Tool  string
	Names []string
}

func (e *UndeclaredRequiredError) Error() string {
	return fmt.Sprintf("schema: tool %q requires undeclared properties %v", e.Tool, e.Names)
}

// Validate checks that every required name is a declared property.
func (t Tool) Validate() error {
	if t.Name == "" {
		return errors.New("schema: tool name required")
	}
	var missing []string
	for _, name := range t.Parameters.Required {
		if _, ok := t.Parameters.Properties[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &UndeclaredRequiredError{Tool: t.Name, Names: missing}
}

type toolChoiceMode string

const (
	toolChoiceNone     toolChoiceMode = "none"
	toolChoiceAuto     toolChoiceMode = "auto"
	toolChoiceRequired toolChoiceMode = "required"
	toolChoiceNamed    toolChoiceMode = "function"
)

// ToolChoice selects whether and which tool the model must call.
type ToolChoice struct {
	mode toolChoiceMode
	name string
}

var (
	ToolChoiceNone     = ToolChoice{mode: toolChoiceNone}
	ToolChoiceAuto     = ToolChoice{mode: toolChoiceAuto}
	ToolChoiceRequired = ToolChoice{mode: toolChoiceRequired}
)

// ToolChoiceNamed forces a call to the named function.
func ToolChoiceNamed(name string) ToolChoice {
	return ToolChoice{mode: toolChoiceNamed, name: name}
}

func (c ToolChoice) IsZero() bool { return c.mode == "" }

// FunctionName is empty unless c was built with ToolChoiceNamed.
func (c ToolChoice) FunctionName() string { return c.name }

func (c ToolChoice) String() string {
	if c.mode == toolChoiceNamed {
		return "function:" + c.name
	}
	return string(c.mode)
}

// Validate rejects the zero value and a named choice without a name.
func (c ToolChoice) Validate() error {
	switch {
	case c.mode == "":
		return errors.New("schema: empty tool choice")
	case c.mode == toolChoiceNamed && c.name == "":
		return errors.New("schema: named tool choice without a function name")
	}
	return nil
}

func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.mode {
	case toolChoiceNone, toolChoiceAuto, toolChoiceRequired:
		return json.Marshal(string(c.mode))
	case toolChoiceNamed:
		type fn struct {
			Name string `json:"name"`
		}
		return json.Marshal(struct {
			Type     ToolType `json:"type"`
			Function fn       `json:"function"`
		}{ToolTypeFunction, fn{c.name}})
	default:
		return nil, errors.New("schema: empty tool choice")
	}
}
