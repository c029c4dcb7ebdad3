package params_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckenco/rgi/llm/params"
)

func TestNewTemperature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      float64
		wantErr params.Violation
	}{
		{name: "min", in: 0.0},
		{name: "max", in: 2.0},
		{name: "middle", in: 0.7},
		{name: "below", in: -0.01, wantErr: params.TooLow},
		{name: "above", in: 2.01, wantErr: params.TooHigh},
		{name: "nan", in: math.NaN(), wantErr: params.TooHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := params.NewTemperature(tt.in)
			if tt.wantErr == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.in, got.Float64())
				return
			}
			var re *params.RangeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.wantErr, re.Kind)
			assert.Equal(t, "temperature", re.Field)
		})
	}
}

func TestTemperaturePresets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, params.TemperatureCoding.Float64())
	assert.Equal(t, 1.0, params.TemperatureData.Float64())
	assert.Equal(t, 1.3, params.TemperatureConversation.Float64())
	assert.Equal(t, 1.3, params.TemperatureTranslation.Float64())
	assert.Equal(t, 2.0, params.TemperaturePoetry.Float64())
	assert.Equal(t, 1.0, params.DefaultTemperatureValue().Float64())
}

func TestRangeLaws(t *testing.T) {
	t.Parallel()

	floats := []struct {
		name   string
		lo, hi float64
		ctor   func(float64) error
	}{
		{"top_p", 0, 1, func(v float64) error { _, err := params.NewTopP(v); return err }},
		{"frequency_penalty", -2, 2, func(v float64) error { _, err := params.NewFrequencyPenalty(v); return err }},
		{"presence_penalty", -2, 2, func(v float64) error { _, err := params.NewPresencePenalty(v); return err }},
	}
	for _, f := range floats {
		for _, v := range []float64{f.lo - 1, f.lo - 0.001, f.lo, (f.lo + f.hi) / 2, f.hi, f.hi + 0.001, f.hi + 1} {
			err := f.ctor(v)
			if v >= f.lo && v <= f.hi {
				assert.NoError(t, err, "%s(%v)", f.name, v)
				continue
			}
			assert.Error(t, err, "%s(%v)", f.name, v)
			assert.Equal(t, v < f.lo, params.IsTooLow(err), "%s(%v)", f.name, v)
			assert.Equal(t, v > f.hi, params.IsTooHigh(err), "%s(%v)", f.name, v)
		}
	}

	ints := []struct {
		name   string
		lo, hi int
		ctor   func(int) error
	}{
		{"max_tokens", 1, 8000, func(v int) error { _, err := params.NewMaxTokens(v); return err }},
		{"top_logprobs", 0, 20, func(v int) error { _, err := params.NewTopLogProbs(v); return err }},
	}
	for _, f := range ints {
		for _, v := range []int{f.lo - 1, f.lo, f.hi, f.hi + 1} {
			err := f.ctor(v)
			if v >= f.lo && v <= f.hi {
				assert.NoError(t, err, "%s(%d)", f.name, v)
				continue
			}
			var re *params.RangeError
			require.ErrorAs(t, err, &re, "%s(%d)", f.name, v)
			assert.Equal(t, f.name, re.Field)
			if v < f.lo {
				assert.Equal(t, float64(f.lo), re.Bound)
			} else {
				assert.Equal(t, float64(f.hi), re.Bound)
			}
		}
	}
}

func TestRangeErrorMessage(t *testing.T) {
	t.Parallel()

	_, err := params.NewMaxTokens(9000)
	require.Error(t, err)
	assert.Equal(t, "params: max_tokens 9000 > 8000", err.Error())

	_, err = params.NewFrequencyPenalty(-3)
	require.Error(t, err)
	assert.Equal(t, "params: frequency_penalty -3 < -2", err.Error())
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4000, params.DefaultMaxTokensValue().Int())
	assert.Equal(t, 1.0, params.DefaultTopPValue().Float64())
	assert.True(t, params.MaxTokens{}.IsZero())
}

func TestNewStopSequences(t *testing.T) {
	t.Parallel()

	ok := make([]string, params.MaxStopSequences)
	for i := range ok {
		ok[i] = strings.Repeat("x", i+1)
	}
	s, err := params.NewStopSequences(ok...)
	require.NoError(t, err)
	assert.Equal(t, 16, s.Len())

	_, err = params.NewStopSequences(append(ok, "17")...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, params.ErrTooManyStops))
	var se *params.StopError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 17, se.Len)

	empty, err := params.NewStopSequences()
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestStopSequencesCopies(t *testing.T) {
	t.Parallel()

	in := []string{"a", "b"}
	s, err := params.NewStopSequences(in...)
	require.NoError(t, err)
	in[0] = "changed"
	out := s.Strings()
	out[1] = "changed"
	assert.Equal(t, []string{"a", "b"}, s.Strings())
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	temp, _ := params.NewTemperature(0.5)
	mt, _ := params.NewMaxTokens(256)
	stop, _ := params.NewStopSequences("END")

	b, err := json.Marshal(struct {
		T params.Temperature   `json:"t"`
		M params.MaxTokens     `json:"m"`
		S params.StopSequences `json:"s"`
	}{temp, mt, stop})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":0.5,"m":256,"s":["END"]}`, string(b))
}
