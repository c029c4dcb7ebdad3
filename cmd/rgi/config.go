package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/luckenco/rgi/logging"
	"github.com/luckenco/rgi/settings"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration",
	}
	cmd.AddCommand(a.configInitCmd(), a.configShowCmd())
	return cmd
}

func (a *app) configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Long: `Write a config file with the default settings, to path or
~/.rgi/config.yaml. The API key is never written; export it as
RGI_API_KEY or the provider's own variable (e.g. DEEPSEEK_API_KEY).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no home directory; pass a path")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			s := settings.Defaults()
			if a.provider != "" {
				s.Provider = a.provider
			}
			s.Model = a.model
			if err := settings.Write(path, s); err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func (a *app) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings after files, .env and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadSettings(cmd); err != nil {
				return err
			}
			s := a.settings
			if s.APIKey != "" {
				s.APIKey = logging.Redacted
			}
			b, err := yaml.Marshal(s)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if p := a.configPath(); p != "" {
				fmt.Fprintf(w, "# %s\n", p)
			}
			fmt.Fprint(w, string(b))
			if err := s.Validate(); err != nil {
				printErr(cmd.ErrOrStderr(), "%v", err)
			}
			return nil
		},
	}
}
