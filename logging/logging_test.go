package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RedactsSensitiveKeysAndSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: slog.LevelDebug, Format: "json", Writer: &buf, Secrets: []string{"sk-12345"}})

	l.Debug("request",
		"Authorization", "Bearer sk-12345",
		"url", "https://example.test/?key=sk-12345",
		"err", errors.New("bad key sk-12345"),
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, Redacted, rec["Authorization"])
	assert.Equal(t, "https://example.test/?key=[REDACTED]", rec["url"])
	assert.Equal(t, "bad key [REDACTED]", rec["err"])
	assert.NotContains(t, buf.String(), "sk-12345")
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: slog.LevelWarn, Writer: &buf})

	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
		} else {
			require.Error(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelFromFlags(slog.LevelInfo, false, false))
	assert.Equal(t, slog.LevelDebug, LevelFromFlags(slog.LevelInfo, true, false))
	assert.Equal(t, slog.LevelWarn, LevelFromFlags(slog.LevelDebug, false, true))
	assert.Equal(t, slog.LevelWarn, LevelFromFlags(slog.LevelDebug, true, true))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "key=[REDACTED]", Redact("key=abcdef", "abcdef"))
	assert.Equal(t, "a b c", Redact("a b c", "b", ""))
}
