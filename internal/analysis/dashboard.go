package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/TobiSchelling/heartbeat/internal/dataset"
	"github.com/TobiSchelling/heartbeat/internal/insight"
)

const (
	fbsElevated = "1"
	fbsNormal   = "0"
)

// Dashboard emits the overall prevalence record and the prevalence by
// fasting blood sugar group.
func Dashboard(t *dataset.Table) ([]insight.Insight, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}

	sick := t.Filter(hasDisease)
	prevalence, _ := insight.PercentOf(sick.Len(), t.Len())

	overall := insight.PrevalenceStats{
		SamplePrevalence: prevalence,
		TotalPatients:    t.Len(),
	}
	if ages := sick.Floats(dataset.ColAge); len(ages) > 0 {
		mean := insight.Round(stat.Mean(ages, nil), 1)
		overall.MeanDiagnosisAge = &mean
	}

	return []insight.Insight{
		{
			Title: "Heart Disease Prevalence",
			Stats: overall,
		},
		{
			Title: "Disease Risk by Fasting Blood Sugar (FBS)",
			Stats: glycemiaStats(t),
		},
	}, nil
}

func glycemiaStats(t *dataset.Table) insight.GlycemiaStats {
	var s insight.GlycemiaStats

	elevated := t.Filter(func(r dataset.Row) bool { return fbsGroup(r) == fbsElevated })
	normal := t.Filter(func(r dataset.Row) bool { return fbsGroup(r) == fbsNormal })
	s.ElevatedPatients = elevated.Len()
	s.NormalPatients = normal.Len()

	if p, ok := insight.PercentOf(countWhere(elevated, hasDisease), elevated.Len()); ok {
		s.ElevatedPrevalence = &p
	} else {
		s.Undefined = append(s.Undefined, "prevalence_fbs_elevated")
	}
	if p, ok := insight.PercentOf(countWhere(normal, hasDisease), normal.Len()); ok {
		s.NormalPrevalence = &p
	} else {
		s.Undefined = append(s.Undefined, "prevalence_fbs_normal")
	}
	return s
}

// fbsGroup normalises the fasting blood sugar code so "1.0" and "1" agree.
func fbsGroup(r dataset.Row) string {
	v, ok := r.Float(dataset.ColFastingBS)
	if !ok {
		return ""
	}
	switch v {
	case 1:
		return fbsElevated
	case 0:
		return fbsNormal
	}
	return ""
}
