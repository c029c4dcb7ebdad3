package params

import "encoding/json"

const (
	MinPenalty     = -2.0
	MaxPenalty     = 2.0
	DefaultPenalty = 0.0
)

// FrequencyPenalty penalizes tokens by how often they already appear.
// Positive values reduce verbatim repetition.
type FrequencyPenalty struct{ v float64 }

func NewFrequencyPenalty(v float64) (FrequencyPenalty, error) {
	if err := check("frequency_penalty", v, MinPenalty, MaxPenalty); err != nil {
		return FrequencyPenalty{}, err
	}
	return FrequencyPenalty{v}, nil
}

func (p FrequencyPenalty) Float64() float64 { return p.v }

func (p FrequencyPenalty) MarshalJSON() ([]byte, error) { return json.Marshal(p.v) }

// PresencePenalty penalizes tokens that appeared at all, nudging the model
// toward new topics.
type PresencePenalty struct{ v float64 }

func NewPresencePenalty(v float64) (PresencePenalty, error) {
	if err := check("presence_penalty", v, MinPenalty, MaxPenalty); err != nil {
		return PresencePenalty{}, err
	}
	return PresencePenalty{v}, nil
}

func (p PresencePenalty) Float64() float64 { return p.v }

func (p PresencePenalty) MarshalJSON() ([]byte, error) { return json.Marshal(p.v) }
