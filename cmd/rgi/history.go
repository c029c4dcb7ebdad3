package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/luckenco/rgi/transcript"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded exchanges",
	}
	cmd.AddCommand(a.historyListCmd(), a.historyShowCmd())
	return cmd
}

// openStore opens the configured transcript database.
func (a *app) openStore(cmd *cobra.Command) (*transcript.Store, error) {
	if err := a.loadSettings(cmd); err != nil {
		return nil, err
	}
	if a.settings.Transcript.Path == "" {
		return nil, errors.New("transcripts are disabled (transcript.path is empty)")
	}
	return transcript.Open(a.settings.Transcript.Path)
}

func (a *app) historyListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent exchanges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

func (a *app) historyShowCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one exchange; a unique id prefix is enough",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), e, raw)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "also print the request and response bodies")
	return cmd
}

func printEntries(w io.Writer, entries []transcript.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no exchanges recorded")
		return
	}
	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("ID", "STARTED", "PROVIDER", "MODEL", "MODE", "TOKENS", "TIME", "RESULT")
	for _, e := range entries {
		mode := "chat"
		if e.Stream {
			mode = "stream"
		}
		result := e.FinishReason
		if e.Error != "" {
			result = "error: " + e.ErrorCategory
		}
		table.AddRow(shortID(e.ID), e.StartedAt.Local().Format(time.DateTime), e.Provider, e.Model, mode,
			e.TotalTokens, e.Duration.Round(time.Millisecond), result)
	}
	fmt.Fprintln(w, table)
}

func printEntry(w io.Writer, e transcript.Entry, raw bool) {
	label := color.New(color.Bold)
	table := uitable.New()
	table.MaxColWidth = 100
	table.Wrap = true
	table.AddRow("id:", e.ID)
	table.AddRow("started:", e.StartedAt.Local().Format(time.RFC3339))
	table.AddRow("provider:", e.Provider)
	table.AddRow("model:", e.Model)
	table.AddRow("stream:", e.Stream)
	table.AddRow("duration:", e.Duration.Round(time.Millisecond))
	table.AddRow("finish:", e.FinishReason)
	table.AddRow("tokens:", fmt.Sprintf("prompt=%d completion=%d total=%d", e.PromptTokens, e.CompletionTokens, e.TotalTokens))
	if e.Error != "" {
		table.AddRow("error:", fmt.Sprintf("[%s] %s", e.ErrorCategory, e.Error))
	}
	fmt.Fprintln(w, table)

	if e.Reasoning != "" {
		_, _ = label.Fprintln(w, "\nreasoning:")
		_, _ = color.New(color.Faint).Fprintln(w, e.Reasoning)
	}
	if e.Content != "" {
		_, _ = label.Fprintln(w, "\nanswer:")
		fmt.Fprintln(w, e.Content)
	}
	if raw {
		_, _ = label.Fprintln(w, "\nrequest:")
		fmt.Fprintln(w, string(e.Request))
		_, _ = label.Fprintln(w, "\nresponse:")
		fmt.Fprintln(w, string(e.Response))
	}
}

// shortID is the first 8 characters of id, enough for history show.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
