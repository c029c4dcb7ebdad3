package llm

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fragmentBody hands out one fragment per Read, then io.EOF.
type fragmentBody struct {
	frags  []string
	err    error
	closed bool
}

func (b *fragmentBody) Read(p []byte) (int, error) {
	if len(b.frags) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.frags[0])
	b.frags[0] = b.frags[0][n:]
	if b.frags[0] == "" {
		b.frags = b.frags[1:]
	}
	return n, nil
}

func (b *fragmentBody) Close() error {
	b.closed = true
	return nil
}

func chunkJSON(content string) string {
	return `{"id":"c","choices":[{"index":0,"delta":{"content":"` + content + `"},"finish_reason":null}],"created":1,"model":"m","object":"chat.completion.chunk"}`
}

func collect(t *testing.T, s *ChunkStream) ([]string, error) {
	t.Helper()
	var out []string
	for {
		c, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, c.Text())
	}
}

func TestChunkStream_OneChunkThenDone(t *testing.T) {
	t.Parallel()

	body := &fragmentBody{frags: []string{"data: " + chunkJSON("hi") + "\n\n", "data: [DONE]\n\n"}}
	s := newChunkStream("test", body, nil)

	got, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, got)
	assert.True(t, body.closed)

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChunkStream_DelimiterSplitAcrossReads(t *testing.T) {
	t.Parallel()

	body := &fragmentBody{frags: []string{"data: " + chunkJSON("a") + "\n", "\n", "data: [DONE]\n", "\n"}}
	got, err := collect(t, newChunkStream("test", body, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestChunkStream_MalformedChunkEndsStream(t *testing.T) {
	t.Parallel()

	body := &fragmentBody{frags: []string{
		"data: " + chunkJSON("ok") + "\n\n" +
			"data: {malformed json}\n\n" +
			"data: " + chunkJSON("never") + "\n\n" +
			"data: [DONE]\n\n",
	}}
	var finished error
	s := newChunkStream("test", body, nil)
	s.onFinish = func(_ Summary, err error) { finished = err }

	got, err := collect(t, s)
	assert.Equal(t, []string{"ok"}, got)

	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "{malformed json}", pe.Payload)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "test", de.Provider)
	assert.Equal(t, CategoryProtocol, CategoryOf(err))
	assert.True(t, body.closed)
	assert.Equal(t, err, finished)

	_, again := s.Recv()
	assert.Equal(t, err, again)
}

func TestChunkStream_EOFWithoutDoneIsCleanEnd(t *testing.T) {
	t.Parallel()

	body := &fragmentBody{frags: []string{"data: " + chunkJSON("a") + "\n\n", "data: " + chunkJSON("partial")}}
	got, err := collect(t, newChunkStream("test", body, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestChunkStream_MultipleDataLinesAreSeparatePayloads(t *testing.T) {
	t.Parallel()

	body := &fragmentBody{frags: []string{
		": keep-alive\nevent: message\ndata: " + chunkJSON("a") + "\ndata: " + chunkJSON("b") + "\n\ndata: [DONE]\n\n",
	}}
	got, err := collect(t, newChunkStream("test", body, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestChunkStream_ReadErrorIsTransport(t *testing.T) {
	t.Parallel()

	body := &fragmentBody{frags: []string{"data: " + chunkJSON("a") + "\n\n"}, err: errors.New("connection reset")}
	got, err := collect(t, newChunkStream("test", body, nil))
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, CategoryTransport, CategoryOf(err))
	assert.ErrorContains(t, err, "connection reset")
}

func TestChunkStream_CloseEarly(t *testing.T) {
	t.Parallel()

	body := &fragmentBody{frags: []string{"data: " + chunkJSON("a") + "\n\n", "data: " + chunkJSON("b") + "\n\n"}}
	var finished error
	s := newChunkStream("test", body, nil)
	s.onFinish = func(_ Summary, err error) { finished = err }

	_, err := s.Recv()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.True(t, body.closed)
	assert.ErrorIs(t, finished, ErrStreamClosed)
	_, err = s.Recv()
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestAccumulate(t *testing.T) {
	t.Parallel()

	sse := strings.Join([]string{
		`data: {"id":"c","choices":[{"index":0,"delta":{"role":"assistant","reasoning_content":"think"},"finish_reason":null}],"created":1,"model":"deepseek-reasoner","object":"chat.completion.chunk"}`,
		`data: {"id":"c","choices":[{"index":0,"delta":{"content":"Hello"},"finish_reason":null}],"created":1,"model":"deepseek-reasoner","object":"chat.completion.chunk"}`,
		`data: {"id":"c","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":"stop"}],"created":1,"model":"deepseek-reasoner","object":"chat.completion.chunk"}`,
		`data: {"id":"c","choices":[],"created":1,"model":"deepseek-reasoner","object":"chat.completion.chunk","usage":{"completion_tokens":3,"prompt_tokens":4,"total_tokens":7}}`,
		`data: [DONE]`,
	}, "\n\n") + "\n\n"

	sum, err := Accumulate(newChunkStream("test", &fragmentBody{frags: []string{sse}}, nil))
	require.NoError(t, err)
	assert.Equal(t, "c", sum.ID)
	assert.Equal(t, "deepseek-reasoner", sum.Model)
	assert.Equal(t, "Hello world", sum.Content)
	assert.Equal(t, "think", sum.Reasoning)
	assert.Equal(t, FinishReasonStop, sum.FinishReason)
	require.NotNil(t, sum.Usage)
	assert.Equal(t, 7, sum.Usage.TotalTokens)
	assert.Equal(t, 4, sum.Chunks)
}
