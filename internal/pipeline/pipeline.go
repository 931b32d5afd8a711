package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TobiSchelling/heartbeat/internal/analysis"
	"github.com/TobiSchelling/heartbeat/internal/config"
	"github.com/TobiSchelling/heartbeat/internal/dataset"
	"github.com/TobiSchelling/heartbeat/internal/insight"
	"github.com/TobiSchelling/heartbeat/internal/predict"
	"github.com/TobiSchelling/heartbeat/internal/transmit"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps        []StepResult
	Insights     []insight.Insight
	Transmission *transmit.Result
}

// Failed returns the steps that reported an error.
func (r *Result) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Sender delivers a batch of insights.
type Sender interface {
	Send(ctx context.Context, insights []insight.Insight) *transmit.Result
}

// Pipeline loads the dataset, runs every generator, and hands the
// collected insights to the sender.
type Pipeline struct {
	cfg       *config.Config
	sender    Sender
	predictor *predict.Generator
	log       *zap.Logger
}

// New creates a new pipeline. sender may be nil when only Generate is used.
func New(cfg *config.Config, sender Sender, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	m := cfg.Model
	return &Pipeline{
		cfg:    cfg,
		sender: sender,
		predictor: predict.NewGenerator(predict.Options{
			Seed:      m.Seed,
			TestRatio: m.TestRatio,
			TopN:      m.TopFeatures,
			MaxIter:   m.MaxIter,
			C:         m.C,
		}),
		log: log,
	}
}

// Run executes load, generation and transmission. The error is non-nil only
// when the dataset could not be loaded; every other failure is recorded in
// the step results.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	r, err := p.Generate(ctx)
	if err != nil {
		return r, err
	}

	if p.sender == nil {
		r.Steps = append(r.Steps, StepResult{Name: "Transmit", Err: errors.New("no sender configured")})
		return r, nil
	}

	p.log.Info("step", zap.String("step", "Transmit"), zap.Int("insights", len(r.Insights)))
	tr := p.sender.Send(ctx, r.Insights)
	r.Transmission = tr
	step := StepResult{Name: "Transmit", Err: tr.Err}
	if tr.Err == nil {
		step.Summary = fmt.Sprintf("Delivered %d of %d insights (%d rejected, %d failed)",
			tr.Count(transmit.Delivered), len(r.Insights),
			tr.Count(transmit.Rejected), tr.Count(transmit.Failed)+tr.Count(transmit.Invalid))
	}
	r.Steps = append(r.Steps, step)
	return r, nil
}

// Generate loads the dataset and runs the generators without transmitting.
func (p *Pipeline) Generate(ctx context.Context) (*Result, error) {
	r := &Result{}

	p.log.Info("step", zap.String("step", "Load"), zap.String("path", p.cfg.Data.Path))
	views, err := dataset.Load(p.cfg.Data.Path, dataset.Options{
		Delimiter: p.cfg.DelimiterRune(),
		Labels:    p.cfg.LabelMap(),
	})
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		p.log.Error("loading dataset failed", zap.Error(err))
		return r, fmt.Errorf("loading dataset: %w", err)
	}
	p.log.Info("dataset loaded",
		zap.Int("rows", views.Raw.Len()),
		zap.Int("columns", len(views.Raw.Columns)),
	)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("Loaded %d rows with %d columns", views.Raw.Len(), len(views.Raw.Columns)),
	})

	annotated := views.Annotated
	generators := []struct {
		name string
		fn   func() ([]insight.Insight, error)
	}{
		{"Dashboard", func() ([]insight.Insight, error) { return analysis.Dashboard(annotated) }},
		{"Distributions", func() ([]insight.Insight, error) { return analysis.Distributions(annotated) }},
		{"Correlations", func() ([]insight.Insight, error) { return analysis.Correlations(annotated) }},
		{"Trends", func() ([]insight.Insight, error) { return analysis.Trends(), nil }},
		{"Predictions", func() ([]insight.Insight, error) { return p.predictor.Generate(views.Raw) }},
	}
	for _, g := range generators {
		if err := ctx.Err(); err != nil {
			r.Steps = append(r.Steps, StepResult{Name: g.name, Err: err})
			continue
		}
		out, step := p.step(g.name, g.fn)
		r.Steps = append(r.Steps, step)
		r.Insights = append(r.Insights, out...)
	}

	return r, nil
}

// step runs one generator, converting a panic into a step error so the
// remaining generators still run.
func (p *Pipeline) step(name string, fn func() ([]insight.Insight, error)) (out []insight.Insight, res StepResult) {
	res.Name = name
	p.log.Info("step", zap.String("step", name))
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			res.Err = fmt.Errorf("%s panicked: %v", name, rec)
			p.log.Error("generator panicked", zap.String("step", name), zap.Any("panic", rec))
		}
	}()

	out, err := fn()
	if err != nil {
		res.Err = err
		p.log.Error("generator failed", zap.String("step", name), zap.Error(err))
		return nil, res
	}
	res.Summary = fmt.Sprintf("Generated %d insights", len(out))
	p.log.Debug("generator finished", zap.String("step", name), zap.Int("insights", len(out)))
	return out, res
}
