// Package predict trains a risk classifier on the raw dataset and reports
// which features push predicted risk up or down.
package predict

import (
	"errors"
	"fmt"
	"sort"

	"github.com/TobiSchelling/heartbeat/internal/dataset"
	"github.com/TobiSchelling/heartbeat/internal/insight"
	"github.com/TobiSchelling/heartbeat/internal/ml"
)

// NumericFeatures are standardized before training.
var NumericFeatures = []string{
	dataset.ColAge,
	dataset.ColBP,
	dataset.ColCholesterol,
	dataset.ColMaxHR,
	dataset.ColOldpeak,
}

// CategoricalFeatures are one-hot encoded before training.
var CategoricalFeatures = []string{
	dataset.ColSex,
	dataset.ColChestPainType,
	dataset.ColFastingBS,
	dataset.ColRestingECG,
	dataset.ColExAngina,
	dataset.ColSTSlope,
	dataset.ColNumVessels,
	dataset.ColThallium,
}

const modelName = "Logistic Regression"

var (
	ErrSingleClass   = ml.ErrSingleClass
	ErrNoTarget      = errors.New("target column missing")
	ErrNoFeatures    = errors.New("no feature columns present")
	ErrUnknownTarget = errors.New("unknown target level")
)

// Options configures training.
type Options struct {
	Seed      int64
	TestRatio float64
	TopN      int
	MaxIter   int
	C         float64
}

// DefaultOptions mirrors the settings used for published insights.
func DefaultOptions() Options {
	return Options{
		Seed:      42,
		TestRatio: 0.2,
		TopN:      10,
		MaxIter:   1000,
		C:         1.0,
	}
}

// Generator produces the predictions insight.
type Generator struct {
	opts Options
}

// NewGenerator creates a generator, filling zero options with defaults.
func NewGenerator(opts Options) *Generator {
	def := DefaultOptions()
	if opts.TestRatio <= 0 || opts.TestRatio >= 1 {
		opts.TestRatio = def.TestRatio
	}
	if opts.TopN <= 0 {
		opts.TopN = def.TopN
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = def.MaxIter
	}
	if opts.C < 0 {
		opts.C = def.C
	}
	return &Generator{opts: opts}
}

// Result is the outcome of one training run.
type Result struct {
	Accuracy float64
	Ranking  []insight.FeatureWeight
	TrainN   int
	TestN    int
}

// Train fits a fresh pipeline on raw and returns the test accuracy and the
// full coefficient ranking. The model is discarded afterwards.
func (g *Generator) Train(raw *dataset.Table) (*Result, error) {
	if raw == nil || !raw.HasColumn(dataset.ColTarget) {
		return nil, ErrNoTarget
	}

	numeric := present(raw, NumericFeatures)
	categorical := present(raw, CategoricalFeatures)
	if len(numeric)+len(categorical) == 0 {
		return nil, ErrNoFeatures
	}

	records := make([]ml.Record, raw.Len())
	y := make([]float64, raw.Len())
	for i, row := range raw.Rows {
		switch row[dataset.ColTarget] {
		case dataset.TargetPresent:
			y[i] = 1
		case dataset.TargetAbsent:
			y[i] = 0
		default:
			return nil, fmt.Errorf("%w %q on row %d", ErrUnknownTarget, row[dataset.ColTarget], i+1)
		}
		records[i] = ml.Record(row)
	}

	trainIdx, testIdx := ml.TrainTestSplit(len(records), g.opts.TestRatio, g.opts.Seed)
	if len(testIdx) == 0 {
		return nil, fmt.Errorf("need at least 2 rows to split, got %d", len(records))
	}
	trainX, trainY := pick(records, y, trainIdx)
	testX, testY := pick(records, y, testIdx)

	pl := &ml.Pipeline{
		Pre: &ml.Preprocessor{
			Numeric:     numeric,
			Categorical: categorical,
			Scaler:      ml.NewStandardScaler(),
			Encoder:     ml.NewOneHotEncoder(),
		},
		Clf: ml.NewLogisticRegression(g.opts.MaxIter, g.opts.C),
	}
	if err := pl.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}
	acc, err := pl.Score(testX, testY)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	return &Result{
		Accuracy: acc,
		Ranking:  Rank(pl.FeatureNames(), pl.Coefficients()),
		TrainN:   len(trainIdx),
		TestN:    len(testIdx),
	}, nil
}

// Generate trains the model and emits one predictions insight. A nil table
// yields no insights.
func (g *Generator) Generate(raw *dataset.Table) ([]insight.Insight, error) {
	if raw == nil {
		return nil, nil
	}
	res, err := g.Train(raw)
	if err != nil {
		return nil, err
	}
	if len(res.Ranking) == 0 {
		return nil, ErrNoFeatures
	}

	top := res.Ranking
	if len(top) > g.opts.TopN {
		top = top[:g.opts.TopN]
	}
	chart := insight.SeriesChart{
		Labels:   make([]string, len(top)),
		Datasets: []insight.Series{{Label: "Importance (Coefficient)", Data: make([]float64, len(top))}},
	}
	for i, fw := range top {
		chart.Labels[i] = fw.Feature
		chart.Datasets[0].Data[i] = fw.Importance
	}

	return []insight.Insight{{
		Title:     "Predictive Factors of Heart Disease (ML Model)",
		ChartType: insight.ChartBarHorizontal,
		Chart:     chart,
		Stats: insight.PredictionStats{
			Model:        modelName,
			TestAccuracy: insight.Round(res.Accuracy, 2),
			MostPositive: res.Ranking[0],
			MostNegative: res.Ranking[len(res.Ranking)-1],
		},
	}}, nil
}

// Rank pairs names with coefficients and sorts them from most positive to
// most negative. Equal coefficients keep name order.
func Rank(names []string, coefs []float64) []insight.FeatureWeight {
	n := min(len(names), len(coefs))
	out := make([]insight.FeatureWeight, n)
	for i := 0; i < n; i++ {
		out[i] = insight.FeatureWeight{Feature: names[i], Importance: coefs[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

func present(t *dataset.Table, cols []string) []string {
	var out []string
	for _, c := range cols {
		if t.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

func pick(records []ml.Record, y []float64, idx []int) ([]ml.Record, []float64) {
	rx := make([]ml.Record, len(idx))
	ry := make([]float64, len(idx))
	for i, k := range idx {
		rx[i] = records[k]
		ry[i] = y[k]
	}
	return rx, ry
}
