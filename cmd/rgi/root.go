package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/luckenco/rgi/logging"
	"github.com/luckenco/rgi/settings"
)

// app holds the global flags and whatever they resolve to.
type app struct {
	cfgPath  string
	provider string
	model    string
	verbose  bool
	quiet    bool
	noColor  bool

	settings settings.Settings
	logger   *slog.Logger
}

func newApp() *app {
	return &app{logger: slog.New(slog.DiscardHandler)}
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rgi",
		Short: "Chat with LLM providers from the terminal",
		Long: `rgi sends chat-completion requests to DeepSeek, Anthropic and any
OpenAI-compatible server, streams the answers back, and keeps a local
transcript of every exchange.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default ~/.rgi/config.yaml if it exists)")
	pf.StringVar(&a.provider, "provider", "", "provider name, overrides the config")
	pf.StringVarP(&a.model, "model", "m", "", "model name, overrides the config")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log requests and retries")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		a.chatCmd(),
		a.streamCmd(),
		a.compareCmd(),
		a.historyCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return cmd
}

// defaultConfigPath is ~/.rgi/config.yaml.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rgi", "config.yaml")
}

// configPath is --config, or the default file when it exists.
func (a *app) configPath() string {
	if a.cfgPath != "" {
		return a.cfgPath
	}
	p := defaultConfigPath()
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// load resolves and validates settings, then sets up the logger.
func (a *app) load(cmd *cobra.Command) error {
	if err := a.loadSettings(cmd); err != nil {
		return err
	}
	return a.settings.Validate()
}

// loadSettings resolves settings without validating them. Flag overrides
// are applied before the API key fallback so --provider picks up that
// provider's key variable.
func (a *app) loadSettings(cmd *cobra.Command) error {
	c, _, err := settings.Load(a.configPath())
	if err != nil {
		return err
	}
	s := c.Get()
	if a.provider != "" && a.provider != s.Provider {
		s.Provider = a.provider
		s.BaseURL = ""
		s.Model = ""
	}
	if a.model != "" {
		s.Model = a.model
	}
	s.ResolveAPIKey()
	a.settings = s
	a.setupLogger(cmd.ErrOrStderr())
	return nil
}

// setupLogger falls back to info on a bad log.level; Validate reports it.
func (a *app) setupLogger(w io.Writer) {
	level, err := logging.ParseLevel(a.settings.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	a.logger = logging.New(logging.Options{
		Level:   logging.LevelFromFlags(level, a.verbose, a.quiet),
		Format:  a.settings.Log.Format,
		Writer:  w,
		Secrets: []string{a.settings.APIKey},
	})
}

// redact scrubs the API key from text shown to the user.
func (a *app) redact(s string) string {
	return logging.Redact(s, a.settings.APIKey)
}

var errInterrupted = errors.New("interrupted")

// interrupted reports errors caused by Ctrl-C rather than the server.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}

func printErr(w io.Writer, format string, args ...any) {
	_, _ = color.New(color.FgRed).Fprintf(w, format, args...)
	fmt.Fprintln(w)
}
