package insight

import (
	"encoding/json"
	"fmt"
)

// Envelope is an insight as received over the wire, before its chart and
// statistics are interpreted.
type Envelope struct {
	Title      string          `json:"title"`
	Category   Category        `json:"category"`
	ChartType  string          `json:"chartType,omitempty"`
	ChartData  json.RawMessage `json:"chartData,omitempty"`
	Statistics json.RawMessage `json:"statistics"`
}

// Validate checks title and category, and that statistics is a JSON object.
func (e Envelope) Validate() error {
	if e.Title == "" {
		return ErrMissingTitle
	}
	if e.Category == "" {
		return ErrMissingCategory
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)
	}
	if len(e.Statistics) > 0 {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(e.Statistics, &m); err != nil {
			return fmt.Errorf("statistics must be an object: %w", err)
		}
	}
	return nil
}

// StatisticsMap decodes the statistics object into a generic map.
func (e Envelope) StatisticsMap() (map[string]any, error) {
	if len(e.Statistics) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(e.Statistics, &m); err != nil {
		return nil, fmt.Errorf("decoding statistics: %w", err)
	}
	return m, nil
}

// Chart decodes the envelope's chart data.
func (e Envelope) Chart() (Chart, error) {
	return DecodeChart(e.ChartData)
}
