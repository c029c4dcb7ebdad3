package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestNewTool 测试工具创建 - 包含验证逻辑
func TestNewTool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		nameParam   string
		wantErr     bool
		errContains string
	}{
		{name: "valid tool", nameParam: "get_weather"},
		{name: "empty name - error", nameParam: "", wantErr: true, errContains: "function name required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTool(tt.nameParam, "desc", Parameters{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTool() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Fatalf("error %q does not contain %q", err, tt.errContains)
			}
		})
	}
}

func TestToolMarshal(t *testing.T) {
	t.Parallel()

	tool, err := NewTool("get_weather", "Get weather of a location",
		Parameters{}.With("location", "string", "The city", true))
	if err != nil {
		t.Fatalf("NewTool: %v", err)
	}
	b, err := json.Marshal(tool)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"type":"function","function":{"description":"Get weather of a location","name":"get_weather","parameters":{"type":"object","properties":{"location":{"type":"string","description":"The city"}},"required":["location"]}}}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}

func TestToolMarshal_EmptyParameters(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Tool{Name: "ping"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"parameters":{"type":"object","properties":{},"required":[]}`) {
		t.Fatalf("unexpected parameters: %s", b)
	}
}

func TestToolValidate(t *testing.T) {
	t.Parallel()

	ok := Tool{Name: "f", Parameters: Parameters{}.With("a", "string", "", true)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := Tool{Name: "f", Parameters: Parameters{
		Properties: map[string]Property{"a": {Type: "string"}},
		Required:   []string{"z", "a", "b"},
	}}
	err := bad.Validate()
	var ue *UndeclaredRequiredError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UndeclaredRequiredError, got %v", err)
	}
	if strings.Join(ue.Names, ",") != "b,z" {
		t.Fatalf("Names=%v", ue.Names)
	}
}

func TestParametersWithCopies(t *testing.T) {
	t.Parallel()

	base := Parameters{}.With("a", "string", "", false)
	next := base.With("b", "integer", "", true)
	if len(base.Properties) != 1 || len(base.Required) != 0 {
		t.Fatalf("base mutated: %+v", base)
	}
	if len(next.Properties) != 2 || len(next.Required) != 1 {
		t.Fatalf("unexpected next: %+v", next)
	}
}

func TestToolChoiceMarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		choice ToolChoice
		want   string
	}{
		{name: "none", choice: ToolChoiceNone, want: `"none"`},
		{name: "auto", choice: ToolChoiceAuto, want: `"auto"`},
		{name: "required", choice: ToolChoiceRequired, want: `"required"`},
		{name: "named", choice: ToolChoiceNamed("foo"), want: `{"type":"function","function":{"name":"foo"}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := json.Marshal(tt.choice)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Fatalf("got %s, want %s", b, tt.want)
			}
		})
	}

	if _, err := json.Marshal(ToolChoice{}); err == nil {
		t.Fatal("expected error for zero tool choice")
	}
	if _, err := json.Marshal(ToolChoiceNamed("")); err == nil {
		t.Fatal("expected error for named tool choice without a name")
	}
	if err := ToolChoiceNamed("foo").Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestResponseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseResponseFormat("json")
	if err != nil || f != ResponseFormatJSONObject {
		t.Fatalf("ParseResponseFormat(json) = %q, %v", f, err)
	}
	b, _ := json.Marshal(ResponseFormatJSONObject)
	if string(b) != `"json_object"` {
		t.Fatalf("got %s", b)
	}
	if _, err := json.Marshal(ResponseFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
