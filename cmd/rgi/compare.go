package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luckenco/rgi/llm"
)

// compareResult is one provider's answer, or its failure.
type compareResult struct {
	provider string
	model    string
	answer   string
	finish   llm.FinishReason
	tokens   int
	elapsed  time.Duration
	err      error
}

func (a *app) compareCmd() *cobra.Command {
	var (
		rf        requestFlags
		providers []string
		parallel  int
		width     uint
	)
	cmd := &cobra.Command{
		Use:   "compare [prompt...]",
		Short: "Send the same prompt to several providers side by side",
		Long: `Send the same prompt to every provider given with --providers, in
parallel, and print one row per provider. Each provider uses its own
default model and its conventional API key variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(providers) == 0 {
				return errors.New("--providers is required")
			}
			prompt, err := readPrompt(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			req, err := rf.build(cmd.Flags(), "", prompt)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			results := a.runCompare(ctx, providers, parallel, req)

			printCompare(cmd.OutOrStdout(), results, width)
			var failed int
			for _, r := range results {
				if r.err != nil {
					failed++
					printErr(cmd.ErrOrStderr(), "%s: %s", r.provider, a.redact(r.err.Error()))
				}
			}
			if failed == len(results) {
				return errors.New("every provider failed")
			}
			return nil
		},
	}
	rf.register(cmd.Flags())
	cmd.Flags().StringSliceVarP(&providers, "providers", "p", nil, "providers to ask, comma separated")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "max requests in flight")
	cmd.Flags().UintVar(&width, "width", 60, "answer column width")
	return cmd
}

// runCompare asks every provider concurrently. A failing provider does not
// cancel the others; its error lands in its result.
func (a *app) runCompare(ctx context.Context, providers []string, parallel int, req *llm.ChatRequest) []compareResult {
	results := make([]compareResult, len(providers))
	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, name := range providers {
		g.Go(func() error {
			results[i] = a.ask(ctx, name, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *app) ask(ctx context.Context, provider string, req *llm.ChatRequest) compareResult {
	res := compareResult{provider: provider}

	s := a.settings
	if provider != s.Provider {
		s.Provider = provider
		s.APIKey = ""
		s.BaseURL = ""
		s.Model = ""
		s.ResolveAPIKey()
	}
	if err := s.Validate(); err != nil {
		res.err = err
		return res
	}
	client, closeFn, err := newClient(s, a.logger.With("compare", provider))
	if err != nil {
		res.err = err
		return res
	}
	defer closeFn()

	r := req.Clone()
	r.Model = s.Model
	res.model = model(s, client)

	started := time.Now()
	comp, err := client.Chat(ctx, r)
	res.elapsed = time.Since(started)
	if err != nil {
		res.err = err
		return res
	}
	res.model = comp.Model
	res.answer = comp.Text()
	res.tokens = comp.Usage.TotalTokens
	if len(comp.Choices) > 0 {
		res.finish = comp.Choices[0].FinishReason
	}
	return res
}

func printCompare(w io.Writer, results []compareResult, width uint) {
	table := uitable.New()
	table.MaxColWidth = width
	table.Wrap = true
	table.AddRow("PROVIDER", "MODEL", "TIME", "TOKENS", "FINISH", "ANSWER")
	for _, r := range results {
		if r.err != nil {
			table.AddRow(r.provider, r.model, r.elapsed.Round(time.Millisecond), "-", "error", "-")
			continue
		}
		answer := strings.Join(strings.Fields(r.answer), " ")
		table.AddRow(r.provider, r.model, r.elapsed.Round(time.Millisecond), r.tokens, r.finish, answer)
	}
	fmt.Fprintln(w, table)
}
