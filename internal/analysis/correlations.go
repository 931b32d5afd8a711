package analysis

import (
	"github.com/TobiSchelling/heartbeat/internal/dataset"
	"github.com/TobiSchelling/heartbeat/internal/insight"
)

const correlationNote = "A negative correlation is expected. Max heart rate of patients with disease usually sits below the curve expected for their age."

// Correlations emits the age versus max heart rate scatter split by
// disease status, with the Pearson coefficient over all rows.
func Correlations(t *dataset.Table) ([]insight.Insight, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}

	chart := insight.ScatterChart{
		Datasets: []insight.PointSeries{
			{Label: "With Disease", Data: points(t.Filter(hasDisease))},
			{Label: "Without Disease", Data: points(t.Filter(lacksDisease))},
		},
	}

	var ages, rates []float64
	for _, r := range t.Rows {
		age, ok1 := r.Float(dataset.ColAge)
		hr, ok2 := r.Float(dataset.ColMaxHR)
		if ok1 && ok2 {
			ages = append(ages, age)
			rates = append(rates, hr)
		}
	}

	stats := insight.CorrelationStats{Note: correlationNote, Points: len(ages)}
	if r, err := Pearson(ages, rates); err == nil {
		rounded := insight.Round(r, 3)
		stats.Overall = &rounded
	} else {
		stats.Note = "Correlation undefined: not enough variation in age or max heart rate."
	}

	return []insight.Insight{{
		Title: "Age vs. Maximum Heart Rate (MaxHR)",
		Chart: chart,
		Stats: stats,
	}}, nil
}

func points(t *dataset.Table) []insight.Point {
	out := make([]insight.Point, 0, t.Len())
	for _, r := range t.Rows {
		age, ok1 := r.Float(dataset.ColAge)
		hr, ok2 := r.Float(dataset.ColMaxHR)
		if ok1 && ok2 {
			out = append(out, insight.Point{X: age, Y: hr})
		}
	}
	return out
}

// Trends emits the placeholder for temporal analysis. The dataset has no
// timestamp dimension.
func Trends() []insight.Insight {
	return []insight.Insight{{
		Title: "Placeholder: Risk Trend (Requires Temporal Data)",
		Chart: insight.MessageChart{Message: "Temporal data is not available in the current dataset."},
		Stats: insight.TrendStats{Status: "Waiting for timestamped data before trend analysis."},
	}}
}
