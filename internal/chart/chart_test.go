package chart

import (
	"bytes"
	"errors"
	"testing"

	"github.com/TobiSchelling/heartbeat/internal/insight"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderBar(t *testing.T) {
	c := insight.SeriesChart{
		Labels:   []string{"Asymptomatic", "Non-Anginal Pain"},
		Datasets: []insight.Series{{Label: "% of Cardiac Patients", Data: []float64{66.7, 33.3}}},
	}
	for _, ct := range []string{insight.ChartBar, insight.ChartBarHorizontal} {
		var buf bytes.Buffer
		if err := Render(&buf, "Chest pain", ct, c); err != nil {
			t.Fatalf("%s: unexpected error: %v", ct, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
			t.Errorf("%s: expected PNG output", ct)
		}
	}
}

func TestRenderScatter(t *testing.T) {
	c := insight.ScatterChart{Datasets: []insight.PointSeries{
		{Label: "With Disease", Data: []insight.Point{{X: 60, Y: 120}, {X: 65, Y: 110}}},
		{Label: "Without Disease", Data: []insight.Point{{X: 45, Y: 170}}},
	}}
	var buf bytes.Buffer
	if err := Render(&buf, "Age vs MaxHR", insight.ChartScatter, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("expected PNG output")
	}
}

func TestRenderNothingToDraw(t *testing.T) {
	cases := map[string]insight.Chart{
		"nil":     nil,
		"message": insight.MessageChart{Message: "needs temporal data"},
		"empty":   insight.SeriesChart{Labels: []string{"a"}, Datasets: []insight.Series{{Label: "x"}}},
		"points":  insight.ScatterChart{Datasets: []insight.PointSeries{{Label: "x"}}},
	}
	for name, c := range cases {
		var buf bytes.Buffer
		if err := Render(&buf, name, "", c); !errors.Is(err, ErrNoChart) {
			t.Errorf("%s: expected ErrNoChart, got %v", name, err)
		}
		if buf.Len() != 0 {
			t.Errorf("%s: expected no output", name)
		}
	}
}
