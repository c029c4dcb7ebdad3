package params

import "encoding/json"

const (
	MinMaxTokens     = 1
	MaxMaxTokens     = 8000
	DefaultMaxTokens = 4000

	MinTopLogProbs = 0
	MaxTopLogProbs = 20
)

// MaxTokens caps the number of generated tokens.
type MaxTokens struct{ v int }

func NewMaxTokens(v int) (MaxTokens, error) {
	if err := check("max_tokens", v, MinMaxTokens, MaxMaxTokens); err != nil {
		return MaxTokens{}, err
	}
	return MaxTokens{v}, nil
}

func DefaultMaxTokensValue() MaxTokens { return MaxTokens{DefaultMaxTokens} }

func (m MaxTokens) Int() int { return m.v }

// IsZero reports whether m was never constructed through NewMaxTokens.
func (m MaxTokens) IsZero() bool { return m.v == 0 }

func (m MaxTokens) MarshalJSON() ([]byte, error) { return json.Marshal(m.v) }

// TopLogProbs is the number of most likely tokens to return log
// probabilities for at each position. Requires logprobs=true.
type TopLogProbs struct{ v int }

func NewTopLogProbs(v int) (TopLogProbs, error) {
	if err := check("top_logprobs", v, MinTopLogProbs, MaxTopLogProbs); err != nil {
		return TopLogProbs{}, err
	}
	return TopLogProbs{v}, nil
}

func (t TopLogProbs) Int() int { return t.v }

func (t TopLogProbs) MarshalJSON() ([]byte, error) { return json.Marshal(t.v) }
