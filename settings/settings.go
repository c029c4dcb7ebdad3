// Package settings is the rgi client configuration: which provider to talk
// to, with what credentials, and how patiently.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luckenco/rgi/config"
	"github.com/luckenco/rgi/llm/providers/openai_compat"
)

// EnvPrefix prefixes every environment override, e.g. RGI_API_KEY.
const EnvPrefix = "RGI"

type Settings struct {
	Provider      string        `mapstructure:"provider" yaml:"provider"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model         string        `mapstructure:"model" yaml:"model,omitempty"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	StreamTimeout time.Duration `mapstructure:"stream_timeout" yaml:"stream_timeout"`

	Retry      Retry      `mapstructure:"retry" yaml:"retry"`
	RateLimit  RateLimit  `mapstructure:"rate_limit" yaml:"rate_limit"`
	Log        Log        `mapstructure:"log" yaml:"log"`
	Transcript Transcript `mapstructure:"transcript" yaml:"transcript"`
}

type Retry struct {
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

type RateLimit struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Transcript struct {
	// Path of the SQLite database. Empty disables recording.
	Path string `mapstructure:"path" yaml:"path"`
}

const (
	ProviderDeepSeek  = "deepseek"
	ProviderAnthropic = "anthropic"
	// ProviderCompat is a generic OpenAI-compatible server; BaseURL is required.
	ProviderCompat = "openai_compat"
)

// Providers lists every accepted provider name.
func Providers() []string {
	names := []string{ProviderDeepSeek, ProviderAnthropic, ProviderCompat}
	names = append(names, openai_compat.PresetNames()...)
	slices.Sort(names)
	return names
}

func Defaults() Settings {
	return Settings{
		Provider:      ProviderDeepSeek,
		Timeout:       60 * time.Second,
		StreamTimeout: 0,
		Retry:         Retry{MaxAttempts: 3},
		RateLimit:     RateLimit{RPS: 0, Burst: 1},
		Log:           Log{Level: "info", Format: "text"},
		Transcript:    Transcript{Path: DefaultTranscriptPath()},
	}
}

// DefaultTranscriptPath is ~/.rgi/transcripts.db, or empty when there is no
// home directory.
func DefaultTranscriptPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rgi", "transcripts.db")
}

func defaultsMap() map[string]any {
	d := Defaults()
	return map[string]any{
		"provider":           d.Provider,
		"api_key":            d.APIKey,
		"base_url":           d.BaseURL,
		"model":              d.Model,
		"timeout":            d.Timeout,
		"stream_timeout":     d.StreamTimeout,
		"retry.max_attempts": d.Retry.MaxAttempts,
		"rate_limit.rps":     d.RateLimit.RPS,
		"rate_limit.burst":   d.RateLimit.Burst,
		"log.level":          d.Log.Level,
		"log.format":         d.Log.Format,
		"transcript.path":    d.Transcript.Path,
	}
}

// providerKeyEnv holds the conventional key variable of each provider,
// consulted when api_key is not set.
var providerKeyEnv = map[string]string{
	ProviderDeepSeek:  "DEEPSEEK_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderCompat:    "OPENAI_API_KEY",
	"openai":          "OPENAI_API_KEY",
	"openrouter":      "OPENROUTER_API_KEY",
	"qwen":            "DASHSCOPE_API_KEY",
	"kimi":            "MOONSHOT_API_KEY",
}

// Load reads path (optional), a .env file in the working directory, and
// RGI_* environment variables, in increasing priority.
func Load(path string) (*config.Config[Settings], Settings, error) {
	c, err := config.Load(path,
		config.WithDefaults[Settings](defaultsMap()),
		config.WithDotEnv[Settings](),
		config.WithEnv[Settings](EnvPrefix),
	)
	if err != nil {
		return nil, Settings{}, err
	}
	s := c.Get()
	s.ResolveAPIKey()
	return c, s, nil
}

// ResolveAPIKey fills APIKey from the provider's conventional variable.
func (s *Settings) ResolveAPIKey() {
	if s.APIKey != "" {
		return
	}
	if env, ok := providerKeyEnv[s.Provider]; ok {
		s.APIKey = strings.TrimSpace(os.Getenv(env))
	}
}

// Validate reports every problem at once.
func (s Settings) Validate() error {
	var errs []error
	if !slices.Contains(Providers(), s.Provider) {
		errs = append(errs, fmt.Errorf("provider %q is not one of %s", s.Provider, strings.Join(Providers(), ", ")))
	}
	if s.APIKey == "" && s.Provider != ProviderCompat && openai_compat.RequiresAPIKey(s.Provider) {
		hint := "set api_key or RGI_API_KEY"
		if env, ok := providerKeyEnv[s.Provider]; ok {
			hint += " or " + env
		}
		errs = append(errs, fmt.Errorf("api_key is required for %s (%s)", s.Provider, hint))
	}
	if s.Provider == ProviderCompat && s.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required for openai_compat"))
	}
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", s.Timeout))
	}
	if s.StreamTimeout < 0 {
		errs = append(errs, fmt.Errorf("stream_timeout must not be negative, got %s", s.StreamTimeout))
	}
	if s.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", s.Retry.MaxAttempts))
	}
	if s.RateLimit.RPS < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.rps must not be negative, got %v", s.RateLimit.RPS))
	}
	if s.RateLimit.RPS > 0 && s.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.burst must be at least 1, got %d", s.RateLimit.Burst))
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s.Log.Level))
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", s.Log.Format))
	}
	return errors.Join(errs...)
}

// Write saves s as YAML, creating parent directories. The API key is never
// written; keep it in the environment.
func Write(path string, s Settings) error {
	s.APIKey = ""
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
