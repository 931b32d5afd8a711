package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Classifier is a binary linear classifier over dense features.
type Classifier interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
	// Coefficients returns one weight per input feature.
	Coefficients() []float64
}

var ErrSingleClass = errors.New("training labels contain a single class")

// LogisticRegression is a binary logistic classifier. Fit minimizes the
// mean log-loss plus an L2 penalty of ||w||²/(2Cn) with L-BFGS, starting
// from zero weights. The intercept is not penalized.
type LogisticRegression struct {
	MaxIter int
	// C is the inverse regularization strength; 0 disables the penalty.
	C float64
	// Tol is the gradient infinity-norm at which the search stops.
	Tol float64

	W []float64
	B float64
	// Status and Iterations describe how the last Fit ended.
	Status     optimize.Status
	Iterations int
}

// NewLogisticRegression returns a classifier with the given hyperparameters.
func NewLogisticRegression(maxIter int, c float64) *LogisticRegression {
	return &LogisticRegression{
		MaxIter: maxIter,
		C:       c,
		Tol:     1e-6,
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus returns log(1+e^z) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// objective is the penalized log-loss over theta = [w..., b].
type objective struct {
	X       [][]float64
	y       []float64
	penalty float64
}

func (o objective) z(theta, row []float64) float64 {
	d := len(row)
	z := theta[d]
	for j, v := range row {
		z += theta[j] * v
	}
	return z
}

func (o objective) value(theta []float64) float64 {
	d := len(theta) - 1
	loss := 0.0
	for i, row := range o.X {
		z := o.z(theta, row)
		loss += softplus(z) - o.y[i]*z
	}
	loss /= float64(len(o.X))
	for _, w := range theta[:d] {
		loss += 0.5 * o.penalty * w * w
	}
	return loss
}

func (o objective) grad(g, theta []float64) {
	d := len(theta) - 1
	for j := range g {
		g[j] = 0
	}
	for i, row := range o.X {
		diff := sigmoid(o.z(theta, row)) - o.y[i]
		for j, v := range row {
			g[j] += diff * v
		}
		g[d] += diff
	}
	n := float64(len(o.X))
	for j := range g {
		g[j] /= n
	}
	for j, w := range theta[:d] {
		g[j] += o.penalty * w
	}
}

func (m *LogisticRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("logistic: no training rows")
	}
	if len(X) != len(y) {
		return fmt.Errorf("logistic: %d rows but %d labels", len(X), len(y))
	}
	d := len(X[0])
	if d == 0 {
		return errors.New("logistic: no features")
	}

	pos := 0
	for _, v := range y {
		switch v {
		case 1:
			pos++
		case 0:
		default:
			return fmt.Errorf("logistic: label %v is not 0 or 1", v)
		}
	}
	if pos == 0 || pos == len(y) {
		return ErrSingleClass
	}

	obj := objective{X: X, y: y}
	if m.C > 0 {
		obj.penalty = 1 / (m.C * float64(len(X)))
	}
	settings := &optimize.Settings{
		GradientThreshold: m.Tol,
		MajorIterations:   m.MaxIter,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-14, Iterations: 100},
	}
	problem := optimize.Problem{Func: obj.value, Grad: obj.grad}

	res, err := optimize.Minimize(problem, make([]float64, d+1), settings, &optimize.LBFGS{})
	// An iteration limit still leaves a usable location.
	if err != nil && (res == nil || len(res.X) != d+1) {
		return fmt.Errorf("logistic: %w", err)
	}
	m.W = append([]float64(nil), res.X[:d]...)
	m.B = res.X[d]
	m.Status = res.Status
	m.Iterations = res.MajorIterations
	return nil
}

func (m *LogisticRegression) proba(row []float64) float64 {
	z := m.B
	for j, v := range row {
		z += m.W[j] * v
	}
	return sigmoid(z)
}

// PredictProba returns p(y=1) for each row.
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = m.proba(row)
	}
	return out
}

// Predict returns class labels using a 0.5 threshold.
func (m *LogisticRegression) Predict(X [][]float64) []float64 {
	proba := m.PredictProba(X)
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func (m *LogisticRegression) Coefficients() []float64 {
	return append([]float64(nil), m.W...)
}
