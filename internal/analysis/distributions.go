package analysis

import (
	"fmt"
	"sort"

	"github.com/TobiSchelling/heartbeat/internal/dataset"
	"github.com/TobiSchelling/heartbeat/internal/insight"
)

// Share is one category of a frequency distribution.
type Share struct {
	Label   string
	Count   int
	Percent insight.Percent
}

// Frequencies counts the values of col, most frequent first with ties in
// label order. Rows without a value are not counted.
func Frequencies(t *dataset.Table, col string) []Share {
	counts := map[string]int{}
	total := 0
	for _, r := range t.Rows {
		v, ok := r.Get(col)
		if !ok || v == "" {
			continue
		}
		counts[v]++
		total++
	}

	shares := make([]Share, 0, len(counts))
	for label, n := range counts {
		p, _ := insight.PercentOf(n, total)
		shares = append(shares, Share{Label: label, Count: n, Percent: p})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}

// Distributions emits the chest pain type breakdown among patients with
// heart disease.
func Distributions(t *dataset.Table) ([]insight.Insight, error) {
	sick := t.Filter(hasDisease)
	if sick.Len() == 0 {
		return nil, ErrNoDiseaseRows
	}

	shares := Frequencies(sick, dataset.LabelColumn(dataset.ColChestPainType))
	if len(shares) == 0 {
		return nil, fmt.Errorf("no chest pain labels among %d disease rows", sick.Len())
	}

	chart := insight.SeriesChart{
		Labels:   make([]string, len(shares)),
		Datasets: []insight.Series{{Label: "% of Cardiac Patients", Data: make([]float64, len(shares))}},
	}
	population := 0
	for i, s := range shares {
		chart.Labels[i] = s.Label
		chart.Datasets[0].Data[i] = s.Percent.Rounded()
		population += s.Count
	}

	top := shares[0]
	return []insight.Insight{{
		Title: "Most Common Chest Pain Type in Cardiac Patients",
		Chart: chart,
		Stats: insight.DistributionStats{
			Headline:    fmt.Sprintf("The most prevalent pain type is '%s' (%s)", top.Label, top.Percent),
			TopCategory: top.Label,
			TopShare:    top.Percent,
			Population:  population,
		},
	}}, nil
}
