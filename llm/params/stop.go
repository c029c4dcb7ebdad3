package params

import "encoding/json"

const MaxStopSequences = 16

// StopSequences lists up to MaxStopSequences strings at which generation
// halts. An empty list is valid and is left out of the request.
type StopSequences struct{ v []string }

func NewStopSequences(stop ...string) (StopSequences, error) {
	if len(stop) > MaxStopSequences {
		return StopSequences{}, &StopError{Len: len(stop), Max: MaxStopSequences}
	}
	return StopSequences{v: append([]string(nil), stop...)}, nil
}

func (s StopSequences) Len() int { return len(s.v) }

// Strings returns a copy of the sequences.
func (s StopSequences) Strings() []string { return append([]string(nil), s.v...) }

func (s StopSequences) MarshalJSON() ([]byte, error) {
	if s.v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.v)
}
