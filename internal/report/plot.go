package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cyclelab/macrorun/internal/data"
	"github.com/cyclelab/macrorun/internal/report/perf"
)

// annotate shades the writer's configured periods within [minX, maxX] (unix
// seconds) and labels each visible span at its midpoint.
func (w *Writer) annotate(p *plot.Plot, minX, maxX, yMin, yMax float64) error {
	var xys plotter.XYs
	var names []string
	for _, per := range w.periods {
		sx := float64(per.Start.Unix())
		ex := float64(per.End.Unix())
		if ex < minX || sx > maxX {
			continue
		}
		if sx < minX {
			sx = minX
		}
		if ex > maxX {
			ex = maxX
		}
		span, err := plotter.NewPolygon(plotter.XYs{
			{X: sx, Y: yMin}, {X: ex, Y: yMin}, {X: ex, Y: yMax}, {X: sx, Y: yMax},
		})
		if err != nil {
			return fmt.Errorf("plot: annotation span %q: %w", per.Label, err)
		}
		span.Color = color.NRGBA{R: 0xad, G: 0xd8, B: 0xe6, A: 0x28}
		span.LineStyle.Color = color.NRGBA{A: 0}
		p.Add(span)
		xys = append(xys, plotter.XY{X: (sx + ex) / 2, Y: yMax})
		names = append(names, per.Label)
	}
	if len(xys) == 0 {
		return nil
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
	if err != nil {
		return fmt.Errorf("plot: annotation labels: %w", err)
	}
	p.Add(labels)
	return nil
}

// WriteEquityPlot renders the equity curve with contiguous drawdown periods
// shaded behind it.
func (w *Writer) WriteEquityPlot(dates []time.Time, equity []float64) error {
	if len(dates) != len(equity) || len(dates) < 2 {
		return fmt.Errorf("plot: need at least 2 points, got %d dates and %d values", len(dates), len(equity))
	}

	p := plot.New()
	p.Title.Text = "Regime Strategy Equity Curve"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Equity (start = 1.0)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())

	base, top := equity[0], equity[0]
	for _, v := range equity {
		if v < base {
			base = v
		}
		if v > top {
			top = v
		}
	}

	if err := w.annotate(p,
		float64(dates[0].Unix()), float64(dates[len(dates)-1].Unix()), base, top); err != nil {
		return err
	}

	// Shade each drawdown span: curve down to the baseline, matplotlib
	// fill_between style.
	dd := perf.Drawdowns(equity)
	for start := 0; start < len(dd); {
		if dd[start] >= 0 {
			start++
			continue
		}
		end := start
		for end < len(dd) && dd[end] < 0 {
			end++
		}
		// Anchor at the preceding peak so the shade meets the curve.
		lo := start - 1
		if lo < 0 {
			lo = 0
		}
		poly := make(plotter.XYs, 0, (end-lo)+2)
		for i := lo; i < end; i++ {
			poly = append(poly, plotter.XY{X: float64(dates[i].Unix()), Y: equity[i]})
		}
		poly = append(poly,
			plotter.XY{X: float64(dates[end-1].Unix()), Y: base},
			plotter.XY{X: float64(dates[lo].Unix()), Y: base},
		)
		shade, err := plotter.NewPolygon(poly)
		if err != nil {
			return fmt.Errorf("plot: drawdown shade: %w", err)
		}
		shade.Color = color.NRGBA{R: 0xd0, G: 0x60, B: 0x60, A: 0x30}
		shade.LineStyle.Color = color.NRGBA{A: 0}
		p.Add(shade)
		start = end
	}

	pts := make(plotter.XYs, len(dates))
	for i, d := range dates {
		pts[i] = plotter.XY{X: float64(d.Unix()), Y: equity[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot: equity line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.NRGBA{R: 0x2e, G: 0x86, B: 0xab, A: 0xff}
	p.Add(line)
	p.Legend.Add("equity", line)
	p.Legend.Top = true

	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := p.Save(12*vg.Inch, 5*vg.Inch, w.Paths().EquityCurvePNG); err != nil {
		return fmt.Errorf("plot: save: %w", err)
	}
	return nil
}

// WriteScorePlot renders the composite score line with the annotated spans
// behind it (analyze runs).
func (w *Writer) WriteScorePlot(score data.MonthlySeries) error {
	if score.Len() < 2 {
		return fmt.Errorf("plot: need at least 2 score points, got %d", score.Len())
	}

	p := plot.New()
	p.Title.Text = "Composite Business Cycle Score"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Score"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())

	lo, hi := score.Values[0], score.Values[0]
	for _, v := range score.Values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if err := w.annotate(p,
		float64(score.First().Unix()), float64(score.Last().Unix()), lo, hi); err != nil {
		return err
	}

	pts := make(plotter.XYs, score.Len())
	for i, d := range score.Dates {
		pts[i] = plotter.XY{X: float64(d.Unix()), Y: score.Values[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot: score line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.NRGBA{R: 0x2e, G: 0x86, B: 0xab, A: 0xff}
	p.Add(line)
	p.Legend.Add("composite", line)
	p.Legend.Top = true

	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	path := filepath.Join(w.outDir, "composite_score.png")
	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save: %w", err)
	}
	return nil
}
