package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/luckenco/rgi/llm"
	"github.com/luckenco/rgi/llm/schema"
)

func (a *app) streamCmd() *cobra.Command {
	var (
		rf  requestFlags
		out output
	)
	cmd := &cobra.Command{
		Use:   "stream [prompt...]",
		Short: "Send one prompt and print the answer as it arrives",
		Long: `Send one prompt and print each fragment of the answer as the server
streams it. Reasoning is printed dimmed ahead of the answer. With no
arguments, or "-", the prompt is read from stdin.`,
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
			return runStream(ctx, client, req, cmd.OutOrStdout(), out)
		},
	}
	rf.register(cmd.Flags())
	cmd.Flags().BoolVar(&out.hideReasoning, "hide-reasoning", false, "do not print the model's reasoning")
	cmd.Flags().BoolVar(&out.usage, "usage", false, "print token usage after the answer")
	return cmd
}

func runStream(ctx context.Context, client *llm.Client, req *llm.ChatRequest, w io.Writer, out output) error {
	if out.usage && req.StreamOptions == nil {
		req = req.Clone()
		req.StreamOptions = &schema.StreamOptions{IncludeUsage: true}
	}
	stream, err := client.ChatStream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	faint := color.New(color.Faint)
	var inReasoning, answered bool
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if answered || inReasoning {
				fmt.Fprintln(w)
			}
			if interrupted(ctx, err) {
				return errInterrupted
			}
			return err
		}
		if r := chunk.Reasoning(); r != "" && !out.hideReasoning {
			inReasoning = true
			_, _ = faint.Fprint(w, r)
		}
		if t := chunk.Text(); t != "" {
			if inReasoning && !answered {
				fmt.Fprint(w, "\n\n")
			}
			answered = true
			fmt.Fprint(w, t)
		}
	}
	fmt.Fprintln(w)

	if out.usage {
		sum := stream.Summary()
		printUsage(w, sum.Usage, sum.FinishReason)
	}
	return nil
}
