package ml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is one input row keyed by column name.
type Record map[string]string

// Preprocessor scales numeric columns and encodes categorical columns, then
// concatenates the results in that order. Other columns are dropped.
type Preprocessor struct {
	Numeric     []string
	Categorical []string
	Scaler      Scaler
	Encoder     Encoder
}

func (p *Preprocessor) split(rows []Record) ([][]float64, [][]string, error) {
	num := make([][]float64, len(rows))
	cat := make([][]string, len(rows))
	for i, r := range rows {
		num[i] = make([]float64, len(p.Numeric))
		for j, col := range p.Numeric {
			v, err := strconv.ParseFloat(strings.TrimSpace(r[col]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %q: not a number: %q", i, col, r[col])
			}
			num[i][j] = v
		}
		cat[i] = make([]string, len(p.Categorical))
		for j, col := range p.Categorical {
			cat[i][j] = strings.TrimSpace(r[col])
		}
	}
	return num, cat, nil
}

// Fit learns scaling and encoding parameters from rows.
func (p *Preprocessor) Fit(rows []Record) error {
	if len(p.Numeric)+len(p.Categorical) == 0 {
		return errors.New("preprocessor: no feature columns")
	}
	num, cat, err := p.split(rows)
	if err != nil {
		return err
	}
	if len(p.Numeric) > 0 {
		if err := p.Scaler.Fit(num); err != nil {
			return fmt.Errorf("fitting scaler: %w", err)
		}
	}
	if len(p.Categorical) > 0 {
		if err := p.Encoder.Fit(cat); err != nil {
			return fmt.Errorf("fitting encoder: %w", err)
		}
	}
	return nil
}

// Transform produces the feature matrix for rows.
func (p *Preprocessor) Transform(rows []Record) ([][]float64, error) {
	num, cat, err := p.split(rows)
	if err != nil {
		return nil, err
	}

	var scaled, encoded [][]float64
	if len(p.Numeric) > 0 {
		if scaled, err = p.Scaler.Transform(num); err != nil {
			return nil, fmt.Errorf("scaling: %w", err)
		}
	}
	if len(p.Categorical) > 0 {
		if encoded, err = p.Encoder.Transform(cat); err != nil {
			return nil, fmt.Errorf("encoding: %w", err)
		}
	}

	out := make([][]float64, len(rows))
	for i := range rows {
		var row []float64
		if scaled != nil {
			row = append(row, scaled[i]...)
		}
		if encoded != nil {
			row = append(row, encoded[i]...)
		}
		out[i] = row
	}
	return out, nil
}

// FeatureNames names the output columns of Transform.
func (p *Preprocessor) FeatureNames() []string {
	names := append([]string(nil), p.Numeric...)
	if len(p.Categorical) > 0 {
		names = append(names, p.Encoder.FeatureNames(p.Categorical)...)
	}
	return names
}

// Pipeline chains a preprocessor and a classifier.
type Pipeline struct {
	Pre *Preprocessor
	Clf Classifier
}

func (pl *Pipeline) Fit(rows []Record, y []float64) error {
	if err := pl.Pre.Fit(rows); err != nil {
		return err
	}
	X, err := pl.Pre.Transform(rows)
	if err != nil {
		return err
	}
	return pl.Clf.Fit(X, y)
}

func (pl *Pipeline) Predict(rows []Record) ([]float64, error) {
	X, err := pl.Pre.Transform(rows)
	if err != nil {
		return nil, err
	}
	return pl.Clf.Predict(X), nil
}

// Score returns the accuracy of the pipeline on rows.
func (pl *Pipeline) Score(rows []Record, y []float64) (float64, error) {
	pred, err := pl.Predict(rows)
	if err != nil {
		return 0, err
	}
	return Accuracy(y, pred), nil
}

func (pl *Pipeline) FeatureNames() []string { return pl.Pre.FeatureNames() }

func (pl *Pipeline) Coefficients() []float64 { return pl.Clf.Coefficients() }
