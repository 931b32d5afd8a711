package insight

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Chart is the visualisation payload of an insight.
type Chart interface {
	chart()
}

// Series is one labelled run of values aligned with SeriesChart.Labels.
type Series struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// SeriesChart is a categorical chart such as a bar chart.
type SeriesChart struct {
	Labels   []string `json:"labels"`
	Datasets []Series `json:"datasets"`
}

func (SeriesChart) chart() {}

// Point is a single scatter coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointSeries is one labelled set of scatter points.
type PointSeries struct {
	Label string  `json:"label"`
	Data  []Point `json:"data"`
}

// ScatterChart holds one or more point series.
type ScatterChart struct {
	Datasets []PointSeries `json:"datasets"`
}

func (ScatterChart) chart() {}

// MessageChart stands in for a chart when there is nothing to plot.
type MessageChart struct {
	Message string `json:"message"`
}

func (MessageChart) chart() {}

// ErrUnknownChart is returned when chart data matches no known shape.
var ErrUnknownChart = errors.New("unrecognised chart data")

// DecodeChart recovers a typed chart from its wire form. Scatter and series
// charts are told apart by the shape of their first data element.
func DecodeChart(raw json.RawMessage) (Chart, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var probe struct {
		Message  *string  `json:"message"`
		Labels   []string `json:"labels"`
		Datasets []struct {
			Label string            `json:"label"`
			Data  []json.RawMessage `json:"data"`
		} `json:"datasets"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding chart: %w", err)
	}

	if probe.Message != nil && len(probe.Datasets) == 0 {
		return MessageChart{Message: *probe.Message}, nil
	}
	if len(probe.Datasets) == 0 {
		return nil, ErrUnknownChart
	}

	scatter := false
	for _, ds := range probe.Datasets {
		if len(ds.Data) > 0 {
			scatter = len(ds.Data[0]) > 0 && ds.Data[0][0] == '{'
			break
		}
	}

	if scatter {
		var c ScatterChart
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decoding scatter chart: %w", err)
		}
		return c, nil
	}
	var c SeriesChart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decoding series chart: %w", err)
	}
	return c, nil
}
