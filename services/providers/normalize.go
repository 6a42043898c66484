package providers

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Response is the normalized result of one Process call.
type Response struct {
	// Raw is the generated text exactly as the provider returned it
	Raw string

	// Structured is true when Raw parsed as a JSON document
	Structured bool

	// Data holds the parsed document when Structured is true
	Data any
}

// Value returns the parsed document, or {"text": Raw} when Raw was not JSON.
func (r *Response) Value() any {
	if r.Structured {
		return r.Data
	}
	return map[string]any{"text": r.Raw}
}

// MarshalJSON encodes Value.
func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

// ParseStructured reports whether raw is a JSON document and returns it decoded.
// Numbers decode to float64, except integers beyond float64's exact range,
// which stay json.Number so the document re-encodes unchanged.
func ParseStructured(raw string) (any, bool) {
	if !gjson.Valid(raw) {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return settleNumbers(v), true
}

// maxExactInt is the largest magnitude float64 holds without rounding.
const maxExactInt = 1 << 53

func settleNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = settleNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = settleNumbers(e)
		}
		return x
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if n, err := x.Int64(); err != nil || n > maxExactInt || n < -maxExactInt {
				return x
			}
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x
	default:
		return v
	}
}

// Normalize turns extracted model text into a Response.
func Normalize(raw string) *Response {
	if v, ok := ParseStructured(raw); ok {
		return &Response{Raw: raw, Structured: true, Data: v}
	}
	return &Response{Raw: raw}
}
