package ml

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Encoder maps categorical columns to a numeric representation.
type Encoder interface {
	Fit(X [][]string) error
	Transform(X [][]string) ([][]float64, error)
	// FeatureNames expands the input column names to one name per output column.
	FeatureNames(columns []string) []string
}

// OneHotEncoder one-hot encodes every column. Categories are learned at fit
// time; a value not seen during fit encodes as all zeros.
type OneHotEncoder struct {
	Categories [][]string
	index      []map[string]int
	width      int
}

func NewOneHotEncoder() *OneHotEncoder { return &OneHotEncoder{} }

func (e *OneHotEncoder) Fit(X [][]string) error {
	if len(X) == 0 {
		return errors.New("encoder: no rows to fit")
	}
	c := len(X[0])
	e.Categories = make([][]string, c)
	e.index = make([]map[string]int, c)
	e.width = 0
	for j := 0; j < c; j++ {
		seen := map[string]bool{}
		for _, row := range X {
			if v := row[j]; v != "" {
				seen[v] = true
			}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sortCategories(cats)

		idx := make(map[string]int, len(cats))
		for k, v := range cats {
			idx[v] = e.width + k
		}
		e.Categories[j] = cats
		e.index[j] = idx
		e.width += len(cats)
	}
	return nil
}

func (e *OneHotEncoder) Transform(X [][]string) ([][]float64, error) {
	if e.index == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(e.index) {
			return nil, fmt.Errorf("encoder: row %d has %d columns, fitted on %d", i, len(row), len(e.index))
		}
		vec := make([]float64, e.width)
		for j, v := range row {
			if k, ok := e.index[j][v]; ok {
				vec[k] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (e *OneHotEncoder) FeatureNames(columns []string) []string {
	names := make([]string, 0, e.width)
	for j, cats := range e.Categories {
		col := fmt.Sprintf("x%d", j)
		if j < len(columns) {
			col = columns[j]
		}
		for _, v := range cats {
			names = append(names, col+"="+v)
		}
	}
	return names
}

// sortCategories orders numerically when every value is a number and
// lexically otherwise.
func sortCategories(cats []string) {
	nums := make(map[string]float64, len(cats))
	for _, v := range cats {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			sort.Strings(cats)
			return
		}
		nums[v] = f
	}
	sort.Slice(cats, func(i, j int) bool { return nums[cats[i]] < nums[cats[j]] })
}
