package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/luckenco/rgi/llm"
	"github.com/luckenco/rgi/llm/params"
	"github.com/luckenco/rgi/llm/schema"
)

// requestFlags are the sampling flags shared by chat, stream and compare.
type requestFlags struct {
	system      string
	temperature float64
	topP        float64
	maxTokens   int
	stop        []string
	json        bool
	strict      bool
}

func (f *requestFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.system, "system", "s", "", "system prompt")
	fs.Float64VarP(&f.temperature, "temperature", "t", params.DefaultTemperature, "sampling temperature [0, 2]")
	fs.Float64Var(&f.topP, "top-p", params.DefaultTopP, "nucleus sampling mass (0, 1]")
	fs.IntVar(&f.maxTokens, "max-tokens", 0, "cap on generated tokens (provider default when unset)")
	fs.StringSliceVar(&f.stop, "stop", nil, "stop sequence, repeatable")
	fs.BoolVar(&f.json, "json", false, "ask for a JSON object answer")
	fs.BoolVar(&f.strict, "strict", false, "reject temperature together with top-p")
}

// build turns the flags that were set into a request. Unset flags are left
// out so the provider's defaults apply.
func (f *requestFlags) build(fs *pflag.FlagSet, model, prompt string) (*llm.ChatRequest, error) {
	b := llm.NewBuilder(model)
	if f.system != "" {
		b.Messages(schema.System(f.system))
	}
	b.Messages(schema.User(prompt))

	if fs.Changed("temperature") {
		v, err := params.NewTemperature(f.temperature)
		if err != nil {
			return nil, err
		}
		b.Temperature(v)
	}
	if fs.Changed("top-p") {
		v, err := params.NewTopP(f.topP)
		if err != nil {
			return nil, err
		}
		b.TopP(v)
	}
	if fs.Changed("max-tokens") {
		v, err := params.NewMaxTokens(f.maxTokens)
		if err != nil {
			return nil, err
		}
		b.MaxTokens(v)
	}
	if len(f.stop) > 0 {
		v, err := params.NewStopSequences(f.stop...)
		if err != nil {
			return nil, err
		}
		b.Stop(v)
	}
	if f.json {
		b.ResponseFormat(schema.ResponseFormatJSONObject)
	}
	if f.strict {
		b.Strict()
	}
	return b.Build()
}

// readPrompt joins args, or reads stdin when there are none or the only
// arg is "-".
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	p := strings.TrimSpace(string(b))
	if p == "" {
		return "", errors.New("empty prompt")
	}
	return p, nil
}
