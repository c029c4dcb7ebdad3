package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckenco/rgi/httpx"
	"github.com/luckenco/rgi/llm"
	"github.com/luckenco/rgi/llm/params"
	"github.com/luckenco/rgi/llm/schema"
)

const messageJSON = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-20241022",
  "content": [{"type": "text", "text": "Hello"}, {"type": "text", "text": " there"}],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 3}
}`

func TestEncodeRequest(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	tool, err := schema.NewTool("lookup", "Look up", schema.Parameters{}.With("q", "string", "query", true))
	require.NoError(t, err)
	stop, err := params.NewStopSequences("END")
	require.NoError(t, err)
	req, err := llm.Assemble("claude", []schema.Message{
		schema.System("Be brief."),
		schema.User("hi"),
		schema.Assistant("calling"),
		schema.ToolResult("toolu_1", "42"),
	}, llm.WithTools(tool), llm.WithToolChoice(schema.ToolChoiceRequired), llm.WithStop(stop),
		llm.WithTemperature(params.TemperatureData))
	require.NoError(t, err)

	b, err := p.EncodeRequest(req)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "Be brief.", got["system"])
	assert.Equal(t, float64(params.DefaultMaxTokens), got["max_tokens"])
	assert.Equal(t, float64(1), got["temperature"])
	assert.Equal(t, []any{"END"}, got["stop_sequences"])
	assert.Equal(t, map[string]any{"type": "any"}, got["tool_choice"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	last := msgs[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Contains(t, string(b), `"tool_use_id":"toolu_1"`)

	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Contains(t, tools[0], "input_schema")
}

func TestEncodeRequest_Rejects(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	req, err := llm.Assemble("claude", []schema.Message{schema.User("hi")}, llm.WithTemperature(params.TemperaturePoetry))
	require.NoError(t, err)
	_, err = p.EncodeRequest(req)
	assert.ErrorContains(t, err, "temperature")

	req, err = llm.Assemble("claude", []schema.Message{schema.User("hi")}, llm.WithResponseFormat(schema.ResponseFormatJSONObject))
	require.NoError(t, err)
	_, err = p.EncodeRequest(req)
	assert.Error(t, err)

	req, err = llm.Assemble("claude", []schema.Message{schema.User("hi")}, llm.WithToolChoice(schema.ToolChoiceNamed("")))
	require.NoError(t, err)
	_, err = p.EncodeRequest(req)
	assert.ErrorContains(t, err, "function name")

	req, err = llm.Assemble("claude", []schema.Message{schema.System("only system")})
	require.NoError(t, err)
	_, err = p.EncodeRequest(req)
	assert.Error(t, err)
}

func TestDecodeCompletion(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	c, err := p.DecodeCompletion([]byte(messageJSON))
	require.NoError(t, err)
	assert.Equal(t, "msg_01", c.ID)
	assert.Equal(t, "Hello there", c.Text())
	assert.Equal(t, llm.FinishReasonStop, c.Choices[0].FinishReason)
	assert.Equal(t, schema.RoleAssistant, c.Choices[0].Message.Role)
	assert.Equal(t, 15, c.Usage.TotalTokens)
}

func TestDecodeCompletion_StopReasons(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	tests := map[string]llm.FinishReason{
		"stop_sequence": llm.FinishReasonStop,
		"max_tokens":    llm.FinishReasonLength,
		"tool_use":      llm.FinishReasonToolCalls,
		"refusal":       llm.FinishReasonContentFilter,
	}
	for in, want := range tests {
		raw := strings.Replace(messageJSON, `"end_turn"`, `"`+in+`"`, 1)
		c, err := p.DecodeCompletion([]byte(raw))
		require.NoError(t, err, in)
		assert.Equal(t, want, c.Choices[0].FinishReason, in)
	}

	_, err = p.DecodeCompletion([]byte(strings.Replace(messageJSON, `"end_turn"`, `"pause_turn"`, 1)))
	var de *llm.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "anthropic", de.Provider)

	_, err = p.DecodeCompletion([]byte(`{"type":"message"}`))
	assert.ErrorContains(t, err, "missing field id")
}

func TestClient_ChatThroughAnthropic(t *testing.T) {
	rt := httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("x-api-key") != "sk-ant" || r.Header.Get("anthropic-version") != DefaultVersion {
			t.Errorf("headers=%v", r.Header)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(messageJSON)),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})
	p, err := New()
	require.NoError(t, err)
	c, err := llm.NewClient(p, "sk-ant", llm.WithHTTPTransport(rt))
	require.NoError(t, err)

	req, err := llm.Assemble("", []schema.Message{schema.User("hi")})
	require.NoError(t, err)
	comp, err := c.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", comp.Text())

	_, err = c.ChatStream(context.Background(), req)
	assert.ErrorIs(t, err, llm.ErrStreamingUnsupported)
}
