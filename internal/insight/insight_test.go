package insight

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestMarshalWireShape(t *testing.T) {
	in := Insight{
		Title:     "Prevalence",
		ChartType: ChartBar,
		Chart: SeriesChart{
			Labels:   []string{"a", "b"},
			Datasets: []Series{{Label: "share", Data: []float64{60, 40}}},
		},
		Stats: PrevalenceStats{SamplePrevalence: 44.44, TotalPatients: 270},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["title"] != "Prevalence" {
		t.Errorf("expected title 'Prevalence', got %v", got["title"])
	}
	if got["category"] != "dashboard" {
		t.Errorf("expected category 'dashboard', got %v", got["category"])
	}
	if got["chartType"] != "bar" {
		t.Errorf("expected chartType 'bar', got %v", got["chartType"])
	}
	stats, ok := got["statistics"].(map[string]any)
	if !ok {
		t.Fatalf("expected statistics object, got %T", got["statistics"])
	}
	if stats["sample_prevalence"] != "44.4%" {
		t.Errorf("expected '44.4%%', got %v", stats["sample_prevalence"])
	}
	if _, ok := stats["mean_diagnosis_age"]; ok {
		t.Error("expected nil mean age to be omitted")
	}
}

func TestMarshalOmitsMissingChart(t *testing.T) {
	data, err := json.Marshal(Insight{Title: "Status", Stats: TrendStats{Status: "waiting"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "chartData") || strings.Contains(s, "chartType") {
		t.Errorf("expected chart fields omitted, got %s", s)
	}
}

func TestValidate(t *testing.T) {
	if err := (Insight{Stats: TrendStats{}}).Validate(); !errors.Is(err, ErrMissingTitle) {
		t.Errorf("expected ErrMissingTitle, got %v", err)
	}
	if err := (Insight{Title: "x"}).Validate(); !errors.Is(err, ErrMissingCategory) {
		t.Errorf("expected ErrMissingCategory, got %v", err)
	}
	if _, err := json.Marshal(Insight{Title: "x"}); err == nil {
		t.Error("expected marshal to fail without statistics")
	}
}

func TestPercentFormatting(t *testing.T) {
	p, ok := PercentOf(120, 270)
	if !ok {
		t.Fatal("expected defined percent")
	}
	if p.String() != "44.4%" {
		t.Errorf("expected '44.4%%', got %q", p.String())
	}
	if p.Rounded() != 44.4 {
		t.Errorf("expected 44.4, got %v", p.Rounded())
	}
	if _, ok := PercentOf(1, 0); ok {
		t.Error("expected undefined percent for zero whole")
	}

	var back Percent
	if err := json.Unmarshal([]byte(`"12.5%"`), &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != 12.5 {
		t.Errorf("expected 12.5, got %v", back)
	}
}

func TestRound(t *testing.T) {
	if got := Round(-0.40349, 3); got != -0.403 {
		t.Errorf("expected -0.403, got %v", got)
	}
	if got := Round(0.8519, 2); got != 0.85 {
		t.Errorf("expected 0.85, got %v", got)
	}
}

func TestDecodeChartShapes(t *testing.T) {
	series, err := DecodeChart(json.RawMessage(`{"labels":["a"],"datasets":[{"label":"x","data":[1.5]}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc, ok := series.(SeriesChart); !ok || sc.Datasets[0].Data[0] != 1.5 {
		t.Errorf("expected series chart, got %#v", series)
	}

	scatter, err := DecodeChart(json.RawMessage(`{"datasets":[{"label":"p","data":[{"x":1,"y":2}]}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc, ok := scatter.(ScatterChart); !ok || sc.Datasets[0].Data[0].Y != 2 {
		t.Errorf("expected scatter chart, got %#v", scatter)
	}

	msg, err := DecodeChart(json.RawMessage(`{"message":"nothing yet"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mc, ok := msg.(MessageChart); !ok || mc.Message != "nothing yet" {
		t.Errorf("expected message chart, got %#v", msg)
	}

	none, err := DecodeChart(nil)
	if err != nil || none != nil {
		t.Errorf("expected nil chart for empty data, got %#v, %v", none, err)
	}

	if _, err := DecodeChart(json.RawMessage(`{"foo":1}`)); !errors.Is(err, ErrUnknownChart) {
		t.Errorf("expected ErrUnknownChart, got %v", err)
	}
}

func TestEnvelopeValidate(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"title":"t","category":"dashboard","statistics":{"a":1}}`), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.Validate(); err != nil {
		t.Errorf("expected valid envelope, got %v", err)
	}

	env.Category = "weather"
	if err := env.Validate(); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}

	env.Category = CategoryTrends
	env.Statistics = json.RawMessage(`[1,2]`)
	if err := env.Validate(); err == nil {
		t.Error("expected error for non-object statistics")
	}
}
