package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/heartbeat/internal/config"
	"github.com/TobiSchelling/heartbeat/internal/dataset"
	"github.com/TobiSchelling/heartbeat/internal/insight"
	"github.com/TobiSchelling/heartbeat/internal/transmit"
)

const header = "Age,Sex,Chest pain type,BP,Cholesterol,FBS over 120,EKG results,Max HR,Exercise angina,ST depression,Slope of ST,Number of vessels fluro,Thallium,Heart Disease\n"

// writeCSV writes n rows alternating between disease present and absent.
// With allAbsent every row lacks disease.
func writeCSV(t *testing.T, n int, allAbsent bool) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < n; i++ {
		present := i%2 == 0 && !allAbsent
		target, angina, pain := "Absence", "0", "2"
		if present {
			target, angina, pain = "Presence", "1", "4"
		}
		fmt.Fprintf(&b, "%d,%d,%s,%d,%d,%d,0,%d,%s,%.1f,%d,%d,%d,%s\n",
			40+i%30, i%2, pain, 110+i%40, 200+i%80, (i/3)%2, 120+i%60, angina,
			float64(i%4)*0.5, 1+i%3, i%4, []int{3, 6, 7}[i%3], target)
	}
	path := filepath.Join(t.TempDir(), "heart.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T, path string) *config.Config {
	t.Helper()
	cfg, _, err := config.Resolve(writeConfig(t))
	if err != nil {
		t.Fatalf("resolving config: %v", err)
	}
	cfg.Data.Path = path
	return cfg
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, config.DefaultConfigYAML, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type fakeSender struct {
	got []insight.Insight
	err error
}

func (f *fakeSender) Send(_ context.Context, insights []insight.Insight) *transmit.Result {
	f.got = insights
	res := &transmit.Result{RunID: "run", Err: f.err}
	if f.err != nil {
		return res
	}
	for _, in := range insights {
		res.Records = append(res.Records, transmit.Record{Title: in.Title, Outcome: transmit.Delivered})
	}
	return res
}

func categories(ins []insight.Insight) []insight.Category {
	out := make([]insight.Category, len(ins))
	for i, in := range ins {
		out[i] = in.Category()
	}
	return out
}

func TestRunOrderAndTransmission(t *testing.T) {
	sender := &fakeSender{}
	p := New(testConfig(t, writeCSV(t, 60, false)), sender, nil)

	r, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failed := r.Failed(); len(failed) != 0 {
		t.Fatalf("expected no failed steps, got %+v", failed)
	}

	want := []insight.Category{
		insight.CategoryDashboard,
		insight.CategoryDashboard,
		insight.CategoryDistributions,
		insight.CategoryCorrelations,
		insight.CategoryTrends,
		insight.CategoryPredictions,
	}
	got := categories(sender.got)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected order %v, got %v", want, got)
	}

	last := r.Steps[len(r.Steps)-1]
	if last.Name != "Transmit" || !strings.HasPrefix(last.Summary, "Delivered 6 of 6") {
		t.Errorf("unexpected transmit step %+v", last)
	}
}

func TestRunLoadFailureIsFatal(t *testing.T) {
	sender := &fakeSender{}
	p := New(testConfig(t, filepath.Join(t.TempDir(), "missing.csv")), sender, nil)

	r, err := p.Run(context.Background())
	if !errors.Is(err, dataset.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if sender.got != nil {
		t.Error("expected nothing to be sent after a load failure")
	}
	if len(r.Steps) != 1 || r.Steps[0].Name != "Load" {
		t.Errorf("expected only the load step, got %+v", r.Steps)
	}
}

func TestGeneratorFailuresAreIsolated(t *testing.T) {
	sender := &fakeSender{}
	p := New(testConfig(t, writeCSV(t, 20, true)), sender, nil)

	r, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed := map[string]bool{}
	for _, s := range r.Failed() {
		failed[s.Name] = true
	}
	if !failed["Distributions"] || !failed["Predictions"] {
		t.Errorf("expected distributions and predictions to fail, got %v", failed)
	}

	want := []insight.Category{
		insight.CategoryDashboard,
		insight.CategoryDashboard,
		insight.CategoryCorrelations,
		insight.CategoryTrends,
	}
	if fmt.Sprint(categories(sender.got)) != fmt.Sprint(want) {
		t.Errorf("expected surviving insights %v, got %v", want, categories(sender.got))
	}
}

func TestRunMissingTokenSkipsTransmission(t *testing.T) {
	sender := &fakeSender{err: transmit.ErrMissingToken}
	p := New(testConfig(t, writeCSV(t, 40, false)), sender, nil)

	r, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("missing token must not fail the run: %v", err)
	}
	if len(r.Insights) == 0 {
		t.Error("expected insights to be generated")
	}
	last := r.Steps[len(r.Steps)-1]
	if !errors.Is(last.Err, transmit.ErrMissingToken) {
		t.Errorf("expected transmit step to carry ErrMissingToken, got %v", last.Err)
	}
}

func TestGenerateDoesNotTransmit(t *testing.T) {
	sender := &fakeSender{}
	p := New(testConfig(t, writeCSV(t, 40, false)), sender, nil)

	r, err := p.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.got != nil {
		t.Error("expected Generate to leave the sender untouched")
	}
	if len(r.Insights) != 6 {
		t.Errorf("expected 6 insights, got %d", len(r.Insights))
	}
}

func TestStepRecoversPanic(t *testing.T) {
	p := New(testConfig(t, ""), nil, nil)
	out, res := p.step("Boom", func() ([]insight.Insight, error) {
		panic("kaboom")
	})
	if out != nil {
		t.Errorf("expected no insights, got %v", out)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "kaboom") {
		t.Errorf("expected panic to be converted into an error, got %v", res.Err)
	}
}
