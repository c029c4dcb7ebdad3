package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// UnmarshalJSON rejects roles outside the known set.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !Role(s).Valid() {
		return fmt.Errorf("schema: unknown message role %q", s)
	}
	*r = Role(s)
	return nil
}

// Message 是一轮对话，按 role 区分 System/User/Assistant/Tool 四种变体。
//
// 只能通过 System/User/Assistant/ToolResult 构造；零值不可序列化。
type Message struct {
	role       Role
	content    string
	name       string
	toolCallID string
}

// System 创建系统消息
func System(content string) Message {
	return Message{role: RoleSystem, content: content}
}

// User 创建用户消息
func User(content string) Message {
	return Message{role: RoleUser, content: content}
}

// Assistant 创建助手消息
func Assistant(content string) Message {
	return Message{role: RoleAssistant, content: content}
}

// ToolResult 创建工具调用结果消息，toolCallID 关联此前的工具调用
func ToolResult(toolCallID, content string) Message {
	return Message{role: RoleTool, content: content, toolCallID: toolCallID}
}

// WithName returns a copy carrying the participant name. Tool messages have
// no name and are returned unchanged.
func (m Message) WithName(name string) Message {
	if m.role == RoleTool {
		return m
	}
	m.name = name
	return m
}

func (m Message) Role() Role         { return m.role }
func (m Message) Content() string    { return m.content }
func (m Message) Name() string       { return m.name }
func (m Message) ToolCallID() string { return m.toolCallID }

var errZeroMessage = errors.New("schema: message has no role")

type wireMessage struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	if m.role == "" {
		return nil, errZeroMessage
	}
	if m.role == RoleTool && m.toolCallID == "" {
		return nil, fmt.Errorf("schema: tool message requires tool_call_id")
	}
	return json.Marshal(wireMessage{
		Role:       m.role,
		Content:    m.content,
		Name:       m.name,
		ToolCallID: m.toolCallID,
	})
}

// UnmarshalJSON accepts the wire form produced by MarshalJSON so stored
// conversations can be replayed.
func (m *Message) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if !w.Role.Valid() {
		return fmt.Errorf("schema: unknown message role %q", w.Role)
	}
	if w.Role == RoleTool && w.ToolCallID == "" {
		return fmt.Errorf("schema: tool message requires tool_call_id")
	}
	*m = Message{role: w.Role, content: w.Content, name: w.Name, toolCallID: w.ToolCallID}
	if w.Role == RoleTool {
		m.name = ""
	}
	return nil
}
