package schema

import (
	"encoding/json"
	"fmt"
)

// ResponseFormat selects plain text or a JSON object as the output shape.
type ResponseFormat string

const (
	ResponseFormatText       ResponseFormat = "text"
	ResponseFormatJSONObject ResponseFormat = "json_object"
)

func (f ResponseFormat) MarshalJSON() ([]byte, error) {
	switch f {
	case ResponseFormatText, ResponseFormatJSONObject:
		return json.Marshal(string(f))
	default:
		return nil, fmt.Errorf("schema: unknown response format %q", string(f))
	}
}

// ParseResponseFormat maps "text" and "json_object" (or "json") to a format.
func ParseResponseFormat(s string) (ResponseFormat, error) {
	switch s {
	case "text":
		return ResponseFormatText, nil
	case "json_object", "json":
		return ResponseFormatJSONObject, nil
	}
	return "", fmt.Errorf("schema: unknown response format %q", s)
}

type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}
