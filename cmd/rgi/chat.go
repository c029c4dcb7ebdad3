package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/luckenco/rgi/llm"
)

// output holds the display flags of chat and stream.
type output struct {
	hideReasoning bool
	usage         bool
}

func (a *app) chatCmd() *cobra.Command {
	var (
		rf  requestFlags
		out output
	)
	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: "Send one prompt and print the whole answer",
		Long: `Send one prompt and print the answer once it is complete.
With no arguments, or "-", the prompt is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			req, err := rf.build(cmd.Flags(), a.settings.Model, prompt)
			if err != nil {
				return err
			}
			client, closeFn, err := newClient(a.settings, a.logger)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runChat(ctx, client, req, cmd.OutOrStdout(), out)
		},
	}
	rf.register(cmd.Flags())
	cmd.Flags().BoolVar(&out.hideReasoning, "hide-reasoning", false, "do not print the model's reasoning")
	cmd.Flags().BoolVar(&out.usage, "usage", false, "print token usage after the answer")
	return cmd
}

func runChat(ctx context.Context, client *llm.Client, req *llm.ChatRequest, w io.Writer, out output) error {
	comp, err := client.Chat(ctx, req)
	if interrupted(ctx, err) {
		return errInterrupted
	}
	if err != nil {
		return err
	}
	var (
		reasoning string
		finish    llm.FinishReason
	)
	if len(comp.Choices) > 0 {
		reasoning = comp.Choices[0].Message.ReasoningContent
		finish = comp.Choices[0].FinishReason
	}
	if !out.hideReasoning && reasoning != "" {
		_, _ = color.New(color.Faint).Fprintln(w, reasoning)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, comp.Text())
	if out.usage {
		printUsage(w, &comp.Usage, finish)
	}
	return nil
}

func printUsage(w io.Writer, u *llm.Usage, finish llm.FinishReason) {
	c := color.New(color.FgCyan)
	if u == nil {
		_, _ = c.Fprintf(w, "finish=%s usage=unreported\n", finish)
		return
	}
	_, _ = c.Fprintf(w, "finish=%s prompt=%d completion=%d total=%d", finish, u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	if r := u.ReasoningTokens(); r > 0 {
		_, _ = c.Fprintf(w, " reasoning=%d", r)
	}
	if u.PromptCacheHitTokens > 0 {
		_, _ = c.Fprintf(w, " cache_hit=%d", u.PromptCacheHitTokens)
	}
	fmt.Fprintln(w)
}
