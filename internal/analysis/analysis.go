// Package analysis derives descriptive insights from the annotated dataset.
// Every generator is a pure function of its input table.
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/TobiSchelling/heartbeat/internal/dataset"
)

var (
	ErrEmptyTable       = errors.New("table has no rows")
	ErrNoDiseaseRows    = errors.New("no rows with disease present")
	ErrUndefinedPearson = errors.New("correlation undefined")
)

func hasDisease(r dataset.Row) bool {
	v, _ := r.Get(dataset.ColTarget)
	return v == dataset.TargetPresent
}

func lacksDisease(r dataset.Row) bool {
	v, _ := r.Get(dataset.ColTarget)
	return v == dataset.TargetAbsent
}

func countWhere(t *dataset.Table, pred func(dataset.Row) bool) int {
	n := 0
	for _, r := range t.Rows {
		if pred(r) {
			n++
		}
	}
	return n
}

// Pearson returns the Pearson correlation coefficient of x and y. It fails
// when the inputs differ in length, hold fewer than two points, or either
// has zero variance.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.New("pearson: length mismatch")
	}
	if len(x) < 2 {
		return 0, ErrUndefinedPearson
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, ErrUndefinedPearson
	}
	return math.Max(-1, math.Min(1, r)), nil
}
