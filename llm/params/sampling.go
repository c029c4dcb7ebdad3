package params

import "encoding/json"

const (
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	DefaultTemperature = 1.0

	MinTopP     = 0.0
	MaxTopP     = 1.0
	DefaultTopP = 1.0
)

// Temperature controls sampling randomness. Higher values make output more
// random. Set this or TopP, not both.
type Temperature struct{ v float64 }

// Presets for common workloads.
var (
	TemperatureCoding       = Temperature{MinTemperature}
	TemperatureData         = Temperature{1.0}
	TemperatureConversation = Temperature{1.3}
	TemperatureTranslation  = Temperature{1.3}
	TemperaturePoetry       = Temperature{MaxTemperature}
)

func NewTemperature(v float64) (Temperature, error) {
	if err := check("temperature", v, MinTemperature, MaxTemperature); err != nil {
		return Temperature{}, err
	}
	return Temperature{v}, nil
}

func DefaultTemperatureValue() Temperature { return Temperature{DefaultTemperature} }

func (t Temperature) Float64() float64 { return t.v }

func (t Temperature) MarshalJSON() ([]byte, error) { return json.Marshal(t.v) }

// TopP is nucleus sampling mass: only tokens in the top p probability mass
// are considered.
type TopP struct{ v float64 }

func NewTopP(v float64) (TopP, error) {
	if err := check("top_p", v, MinTopP, MaxTopP); err != nil {
		return TopP{}, err
	}
	return TopP{v}, nil
}

func DefaultTopPValue() TopP { return TopP{DefaultTopP} }

func (p TopP) Float64() float64 { return p.v }

func (p TopP) MarshalJSON() ([]byte, error) { return json.Marshal(p.v) }
