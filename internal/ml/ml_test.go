package ml

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestStandardScaler(t *testing.T) {
	s := NewStandardScaler()
	if _, err := s.Transform([][]float64{{1}}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}

	X := [][]float64{{1, 5}, {2, 5}, {3, 5}}
	if err := s.Fit(X); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.Transform(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum, sumSq float64
	for _, row := range out {
		sum += row[0]
		sumSq += row[0] * row[0]
		if row[1] != 0 {
			t.Errorf("expected constant column to map to 0, got %v", row[1])
		}
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("expected zero mean, got %v", sum/3)
	}
	if math.Abs(sumSq/3-1) > 1e-12 {
		t.Errorf("expected unit variance, got %v", sumSq/3)
	}

	if _, err := s.Transform([][]float64{{1}}); err == nil {
		t.Error("expected error on column count mismatch")
	}
}

func TestOneHotEncoder(t *testing.T) {
	e := NewOneHotEncoder()
	X := [][]string{{"1", "b"}, {"10", "a"}, {"2", "a"}}
	if err := e.Fit(X); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := e.FeatureNames([]string{"num", "txt"})
	want := []string{"num=1", "num=2", "num=10", "txt=a", "txt=b"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}

	out, err := e.Transform([][]string{{"2", "b"}, {"7", "z"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out[0], []float64{0, 1, 0, 0, 1}) {
		t.Errorf("unexpected encoding %v", out[0])
	}
	if !reflect.DeepEqual(out[1], []float64{0, 0, 0, 0, 0}) {
		t.Errorf("expected all-zero encoding for unknown values, got %v", out[1])
	}
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(270, 0.2, 42)
	if len(test) != 54 || len(train) != 216 {
		t.Fatalf("expected 216/54 split, got %d/%d", len(train), len(test))
	}

	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("expected partition of 0..269, index %d is %d", i, v)
		}
	}

	train2, test2 := TrainTestSplit(270, 0.2, 42)
	if !reflect.DeepEqual(train, train2) || !reflect.DeepEqual(test, test2) {
		t.Error("expected identical split for identical seed")
	}

	_, test3 := TrainTestSplit(270, 0.2, 7)
	if reflect.DeepEqual(test, test3) {
		t.Error("expected different split for a different seed")
	}

	tr, te := TrainTestSplit(2, 0.01, 1)
	if len(tr) != 1 || len(te) != 1 {
		t.Errorf("expected 1/1 split for two rows, got %d/%d", len(tr), len(te))
	}
}

func TestLogisticRegressionSeparable(t *testing.T) {
	X := [][]float64{{-2}, {-1.5}, {-1}, {-0.5}, {0.5}, {1}, {1.5}, {2}}
	y := []float64{0, 0, 0, 0, 1, 1, 1, 1}

	m := NewLogisticRegression(2000, 1.0)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Accuracy(y, m.Predict(X)) != 1 {
		t.Errorf("expected perfect training accuracy, got %v", Accuracy(y, m.Predict(X)))
	}
	if coef := m.Coefficients(); len(coef) != 1 || coef[0] <= 0 {
		t.Errorf("expected one positive coefficient, got %v", coef)
	}
}

// noisyRows draws n rows of four standard-normal features with labels
// sampled from a known logistic model, so the classes overlap.
func noisyRows(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	beta := []float64{1.2, -0.8, 0.5, 0}
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		row := make([]float64, len(beta))
		z := -0.3
		for j := range row {
			row[j] = rng.NormFloat64()
			z += beta[j] * row[j]
		}
		X[i] = row
		if rng.Float64() < sigmoid(z) {
			y[i] = 1
		}
	}
	return X, y
}

func TestLogisticRegressionConverges(t *testing.T) {
	X, y := noisyRows(270, 11)

	m := NewLogisticRegression(1000, 1.0)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obj := objective{X: X, y: y, penalty: 1 / (m.C * float64(len(X)))}
	theta := append(m.Coefficients(), m.B)
	g := make([]float64, len(theta))
	obj.grad(g, theta)
	for j, v := range g {
		if math.Abs(v) >= m.Tol {
			t.Errorf("gradient[%d] = %g, expected below %g (status %v after %d iterations)", j, v, m.Tol, m.Status, m.Iterations)
		}
	}
	if m.Iterations >= m.MaxIter {
		t.Errorf("expected convergence before the iteration limit, used %d", m.Iterations)
	}

	// A larger budget must not move the optimum.
	long := NewLogisticRegression(100000, 1.0)
	if err := long.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for j := range m.W {
		if math.Abs(m.W[j]-long.W[j]) > 1e-4 {
			t.Errorf("coefficient %d moved with the iteration budget: %v vs %v", j, m.W[j], long.W[j])
		}
	}

	again := NewLogisticRegression(1000, 1.0)
	if err := again.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(m.W, again.W) || m.B != again.B {
		t.Error("expected identical coefficients for identical input")
	}
}

func TestObjectiveGradientMatchesFiniteDifference(t *testing.T) {
	X, y := noisyRows(40, 3)
	obj := objective{X: X, y: y, penalty: 0.05}
	theta := []float64{0.3, -0.2, 0.1, 0.4, -0.1}

	g := make([]float64, len(theta))
	obj.grad(g, theta)
	const h = 1e-6
	for j := range theta {
		up := append([]float64(nil), theta...)
		down := append([]float64(nil), theta...)
		up[j] += h
		down[j] -= h
		fd := (obj.value(up) - obj.value(down)) / (2 * h)
		if math.Abs(fd-g[j]) > 1e-6 {
			t.Errorf("gradient[%d] = %g, finite difference %g", j, g[j], fd)
		}
	}
}

func TestLogisticRegressionErrors(t *testing.T) {
	m := NewLogisticRegression(10, 1)
	if err := m.Fit([][]float64{{1}, {2}}, []float64{1, 1}); !errors.Is(err, ErrSingleClass) {
		t.Errorf("expected ErrSingleClass, got %v", err)
	}
	if err := m.Fit(nil, nil); err == nil {
		t.Error("expected error for empty input")
	}
	if err := m.Fit([][]float64{{1}}, []float64{1, 0}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if err := m.Fit([][]float64{{1}, {2}}, []float64{0, 2}); err == nil {
		t.Error("expected error for non-binary label")
	}
}

func TestPipelineFeatureNamesAndScore(t *testing.T) {
	rows := []Record{
		{"age": "40", "sex": "0"},
		{"age": "45", "sex": "0"},
		{"age": "50", "sex": "1"},
		{"age": "60", "sex": "1"},
		{"age": "65", "sex": "1"},
		{"age": "35", "sex": "0"},
	}
	y := []float64{0, 0, 1, 1, 1, 0}

	pl := &Pipeline{
		Pre: &Preprocessor{
			Numeric:     []string{"age"},
			Categorical: []string{"sex"},
			Scaler:      NewStandardScaler(),
			Encoder:     NewOneHotEncoder(),
		},
		Clf: NewLogisticRegression(1000, 1.0),
	}
	if err := pl.Fit(rows, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"age", "sex=0", "sex=1"}
	if !reflect.DeepEqual(pl.FeatureNames(), want) {
		t.Errorf("expected %v, got %v", want, pl.FeatureNames())
	}
	if len(pl.Coefficients()) != len(want) {
		t.Errorf("expected %d coefficients, got %d", len(want), len(pl.Coefficients()))
	}

	acc, err := pl.Score(rows, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc != 1 {
		t.Errorf("expected accuracy 1, got %v", acc)
	}

	if _, err := pl.Predict([]Record{{"age": "x", "sex": "1"}}); err == nil {
		t.Error("expected error for non-numeric numeric column")
	}
	if _, err := pl.Predict([]Record{{"age": "50", "sex": "9"}}); err != nil {
		t.Errorf("expected unknown category to be tolerated, got %v", err)
	}
}

func TestPreprocessorNoColumns(t *testing.T) {
	p := &Preprocessor{Scaler: NewStandardScaler(), Encoder: NewOneHotEncoder()}
	if err := p.Fit([]Record{{"a": "1"}}); err == nil {
		t.Error("expected error with no feature columns")
	}
}

func TestAccuracy(t *testing.T) {
	if got := Accuracy([]float64{1, 0, 1, 1}, []float64{1, 1, 1, 0}); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	if got := Accuracy(nil, nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}
