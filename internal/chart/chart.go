// Package chart renders insight charts to PNG with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/TobiSchelling/heartbeat/internal/insight"
)

// ErrNoChart is returned when there is nothing to draw.
var ErrNoChart = errors.New("insight has no drawable chart")

const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// Render draws c as a PNG into w. chartType selects the orientation of
// series charts.
func Render(w io.Writer, title, chartType string, c insight.Chart) error {
	p := plot.New()
	p.Title.Text = title

	var err error
	switch c := c.(type) {
	case insight.SeriesChart:
		err = addBars(p, c, chartType == insight.ChartBarHorizontal)
	case *insight.SeriesChart:
		err = addBars(p, *c, chartType == insight.ChartBarHorizontal)
	case insight.ScatterChart:
		err = addScatter(p, c)
	case *insight.ScatterChart:
		err = addScatter(p, *c)
	default:
		return ErrNoChart
	}
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("preparing png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return nil
}

func addBars(p *plot.Plot, c insight.SeriesChart, horizontal bool) error {
	var sets []insight.Series
	for _, s := range c.Datasets {
		if len(s.Data) > 0 {
			sets = append(sets, s)
		}
	}
	if len(sets) == 0 {
		return ErrNoChart
	}

	width := vg.Points(18)
	if horizontal {
		width = vg.Points(12)
	}
	for i, s := range sets {
		bars, err := plotter.NewBarChart(plotter.Values(s.Data), width)
		if err != nil {
			return fmt.Errorf("dataset %q: %w", s.Label, err)
		}
		bars.Horizontal = horizontal
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(i-len(sets)/2) * width
		p.Add(bars)
		if s.Label != "" {
			p.Legend.Add(s.Label, bars)
		}
	}

	if horizontal {
		p.NominalY(c.Labels...)
		p.X.Label.Text = sets[0].Label
		p.Add(plotter.NewGrid())
	} else {
		p.NominalX(c.Labels...)
		p.Y.Label.Text = sets[0].Label
	}
	p.Legend.Top = true
	return nil
}

func addScatter(p *plot.Plot, c insight.ScatterChart) error {
	drawn := 0
	for i, ds := range c.Datasets {
		if len(ds.Data) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(ds.Data))
		for j, pt := range ds.Data {
			pts[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("dataset %q: %w", ds.Label, err)
		}
		s.Color = plotutil.Color(i)
		s.Shape = plotutil.Shape(i)
		s.Radius = vg.Points(2.5)
		p.Add(s)
		if ds.Label != "" {
			p.Legend.Add(ds.Label, s)
		}
		drawn++
	}
	if drawn == 0 {
		return ErrNoChart
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return nil
}
