package schema

import (
	"encoding/json"
	"testing"
)

// TestMessageMarshal 测试各变体的 role 判别字段与可选字段省略
func TestMessageMarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "system",
			msg:  System("You are a helpful assistant."),
			want: `{"role":"system","content":"You are a helpful assistant."}`,
		},
		{
			name: "user with name",
			msg:  User("2+2?").WithName("alice"),
			want: `{"role":"user","content":"2+2?","name":"alice"}`,
		},
		{
			name: "assistant empty content is kept",
			msg:  Assistant(""),
			want: `{"role":"assistant","content":""}`,
		},
		{
			name: "tool ignores name",
			msg:  ToolResult("call_1", "42").WithName("ignored"),
			want: `{"role":"tool","content":"42","tool_call_id":"call_1"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if got := string(b); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMessageMarshal_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := json.Marshal(Message{}); err == nil {
		t.Fatal("expected error for zero message")
	}
	if _, err := json.Marshal(ToolResult("", "x")); err == nil {
		t.Fatal("expected error for tool message without call id")
	}
}

func TestMessageUnmarshal(t *testing.T) {
	t.Parallel()

	var m Message
	if err := json.Unmarshal([]byte(`{"role":"tool","content":"ok","tool_call_id":"c1","name":"x"}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Role() != RoleTool || m.Content() != "ok" || m.ToolCallID() != "c1" || m.Name() != "" {
		t.Fatalf("unexpected message: %+v", m)
	}

	if err := json.Unmarshal([]byte(`{"role":"developer","content":"x"}`), &m); err == nil {
		t.Fatal("expected unknown role error")
	}
}

func TestWithNameDoesNotMutate(t *testing.T) {
	t.Parallel()

	base := User("hi")
	named := base.WithName("bob")
	if base.Name() != "" {
		t.Fatalf("base mutated: %q", base.Name())
	}
	if named.Name() != "bob" {
		t.Fatalf("Name()=%q", named.Name())
	}
}
