package providers

import (
	"encoding/json"
	"fmt"
)

// Generation defaults applied when ProcessOptions leaves a value unset.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 4000
)

// ProcessOptions selects a provider and tunes a single generation call.
//
// Keys outside the known set are kept in Extra so that callers can thread
// their own bookkeeping (for example a dimension name or section index)
// through the call. Providers never read Extra.
type ProcessOptions struct {
	Provider    string         `json:"provider,omitempty"`
	Model       string         `json:"model,omitempty"`
	Temperature *float64       `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int64         `json:"maxTokens,omitempty" validate:"omitempty,gt=0"`
	Extra       map[string]any `json:"-"`
}

var knownOptionKeys = map[string]struct{}{
	"provider":    {},
	"model":       {},
	"temperature": {},
	"maxTokens":   {},
}

// UnmarshalJSON decodes the known keys and collects everything else into Extra.
func (o *ProcessOptions) UnmarshalJSON(data []byte) error {
	type known ProcessOptions
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	var extra map[string]any
	for key, raw := range all {
		if _, ok := knownOptionKeys[key]; ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[key] = v
	}

	*o = ProcessOptions(k)
	o.Extra = extra
	return nil
}

// MarshalJSON emits the known keys merged with Extra. Known keys win on collision.
func (o ProcessOptions) MarshalJSON() ([]byte, error) {
	type known ProcessOptions
	base, err := json.Marshal(known(o))
	if err != nil {
		return nil, err
	}
	if len(o.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]any, len(o.Extra)+len(knownOptionKeys))
	for k, v := range o.Extra {
		merged[k] = v
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// GenerationParams are the fully resolved values sent upstream.
type GenerationParams struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Resolve fills unset options with defaultModel and the package defaults.
// An explicit zero temperature is kept.
func (o ProcessOptions) Resolve(defaultModel string) GenerationParams {
	p := GenerationParams{
		Model:       o.Model,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	if p.Model == "" {
		p.Model = defaultModel
	}
	if o.Temperature != nil {
		p.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil && *o.MaxTokens > 0 {
		p.MaxTokens = *o.MaxTokens
	}
	return p
}
