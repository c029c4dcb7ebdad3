// Package logging builds the slog logger used by the rgi CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Redacted replaces secret values in output.
const Redacted = "[REDACTED]"

// sensitiveKeys are attribute keys whose values are never printed.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"api_key":       true,
	"x-api-key":     true,
}

type Options struct {
	Level  slog.Level
	Format string // "text" (default) or "json"
	Writer io.Writer

	// Secrets are scrubbed from every string attribute.
	Secrets []string
}

// New returns a logger writing to o.Writer (stderr when nil).
func New(o Options) *slog.Logger {
	w := o.Writer
	if w == nil {
		w = os.Stderr
	}
	secrets := nonEmpty(o.Secrets)
	ho := &slog.HandlerOptions{
		Level: o.Level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if sensitiveKeys[strings.ToLower(a.Key)] {
				return slog.String(a.Key, Redacted)
			}
			if len(secrets) > 0 {
				switch a.Value.Kind() {
				case slog.KindString:
					return slog.String(a.Key, redact(a.Value.String(), secrets))
				case slog.KindAny:
					if err, ok := a.Value.Any().(error); ok {
						return slog.String(a.Key, redact(err.Error(), secrets))
					}
				}
			}
			return a
		},
	}
	var h slog.Handler
	if o.Format == "json" {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	return slog.New(h)
}

// ParseLevel accepts debug, info, warn and error, in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: %w", err)
	}
	return l, nil
}

// LevelFromFlags lets -v and -q override the configured level.
//
//   - quiet:   WARN and above
//   - verbose: DEBUG and above
func LevelFromFlags(base slog.Level, verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return base
	}
}

// Redact replaces every occurrence of each secret in s. Secrets shorter
// than four bytes are ignored; they would mangle ordinary text.
func Redact(s string, secrets ...string) string {
	return redact(s, nonEmpty(secrets))
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, Redacted)
	}
	return s
}

func nonEmpty(secrets []string) []string {
	var out []string
	for _, s := range secrets {
		if len(s) >= 4 {
			out = append(out, s)
		}
	}
	return out
}
