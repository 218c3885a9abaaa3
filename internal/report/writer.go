// Package report writes backtest artifacts: regime timeline, performance
// summary, equity curve CSV/PNG, run summary JSON, and a markdown report.
package report

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cyclelab/macrorun/internal/backtest"
	"github.com/cyclelab/macrorun/internal/data"
	iox "github.com/cyclelab/macrorun/internal/io"
	"github.com/cyclelab/macrorun/internal/macro"
	"github.com/cyclelab/macrorun/internal/report/perf"
)

// Period is a labeled calendar span shaded behind the chart artifacts.
type Period struct {
	Label      string
	Start, End time.Time
}

// Writer renders run artifacts into an output directory. CSV content is a
// pure function of the run inputs, so reruns produce byte-identical files.
type Writer struct {
	outDir  string
	periods []Period
}

// NewWriter creates a writer rooted at outDir. Any periods given are drawn
// as annotated spans on the chart artifacts.
func NewWriter(outDir string, periods ...Period) *Writer {
	return &Writer{outDir: outDir, periods: periods}
}

// OutputDir returns the artifact directory.
func (w *Writer) OutputDir() string { return w.outDir }

// ArtifactPaths lists every artifact a full run produces.
type ArtifactPaths struct {
	RegimeTimeline string `json:"regime_timeline"`
	PerfSummary    string `json:"perf_summary"`
	EquityCurveCSV string `json:"equity_curve_csv"`
	EquityCurvePNG string `json:"equity_curve_png"`
	SummaryJSON    string `json:"summary_json"`
	ReportMD       string `json:"report_md"`
}

// Paths returns the artifact paths under the output directory.
func (w *Writer) Paths() ArtifactPaths {
	return ArtifactPaths{
		RegimeTimeline: filepath.Join(w.outDir, "regime_timeline.csv"),
		PerfSummary:    filepath.Join(w.outDir, "perf_summary.csv"),
		EquityCurveCSV: filepath.Join(w.outDir, "equity_curve.csv"),
		EquityCurvePNG: filepath.Join(w.outDir, "equity_curve.png"),
		SummaryJSON:    filepath.Join(w.outDir, "summary.json"),
		ReportMD:       filepath.Join(w.outDir, "report.md"),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteRegimeTimeline writes one (date, regime) row per month.
func (w *Writer) WriteRegimeTimeline(dates []time.Time, labels []string) error {
	var b strings.Builder
	b.WriteString("date,regime\n")
	for i, d := range dates {
		b.WriteString(d.Format("2006-01-02") + "," + labels[i] + "\n")
	}
	return iox.WriteBytesAtomic(w.Paths().RegimeTimeline, []byte(b.String()))
}

// WriteEquityCurve writes the (date, equity) series.
func (w *Writer) WriteEquityCurve(dates []time.Time, equity []float64) error {
	var b strings.Builder
	b.WriteString("date,equity\n")
	for i, d := range dates {
		b.WriteString(d.Format("2006-01-02") + "," + formatFloat(equity[i]) + "\n")
	}
	return iox.WriteBytesAtomic(w.Paths().EquityCurveCSV, []byte(b.String()))
}

// WritePerfSummary writes the named scalar metrics.
func (w *Writer) WritePerfSummary(m perf.Metrics) error {
	var b strings.Builder
	b.WriteString("metric,value\n")
	b.WriteString("cagr," + formatFloat(m.CAGR) + "\n")
	b.WriteString("ann_vol," + formatFloat(m.AnnVol) + "\n")
	b.WriteString("sharpe," + formatFloat(m.Sharpe) + "\n")
	b.WriteString("max_drawdown," + formatFloat(m.MaxDrawdown) + "\n")
	b.WriteString("calmar," + formatFloat(m.Calmar) + "\n")
	return iox.WriteBytesAtomic(w.Paths().PerfSummary, []byte(b.String()))
}

// WriteCompositeScore writes the composite score series (analyze runs).
func (w *Writer) WriteCompositeScore(score data.MonthlySeries) error {
	path := filepath.Join(w.outDir, "composite_score.csv")
	return iox.WriteBytesAtomic(path, data.WriteSeriesCSV(score, "score"))
}

// WriteSnapshot writes a short text snapshot of the latest regime state
// (analyze runs).
func (w *Writer) WriteSnapshot(signal []macro.Classification) error {
	if len(signal) == 0 {
		return fmt.Errorf("snapshot: empty signal")
	}
	last := signal[len(signal)-1]
	var b strings.Builder
	fmt.Fprintf(&b, "period: %s to %s\n",
		signal[0].Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "latest regime: %s\n", last.Regime)
	fmt.Fprintf(&b, "composite score: %.4f (median %.4f, change %+.4f)\n",
		last.Score, last.Median, last.Change)
	path := filepath.Join(w.outDir, "regime_snapshot.txt")
	return iox.WriteBytesAtomic(path, []byte(b.String()))
}

// WriteSummaryJSON writes the compact machine-readable run summary.
func (w *Writer) WriteSummaryJSON(res *backtest.Result, m perf.Metrics) error {
	var calmar *float64
	if !math.IsInf(m.Calmar, 0) {
		calmar = &m.Calmar
	}
	summary := map[string]any{
		"run_id": res.RunID,
		"period": fmt.Sprintf("%s to %s",
			res.Start.Format("2006-01-02"), res.End.Format("2006-01-02")),
		"months": len(res.Months),
		"metrics": map[string]any{
			"cagr":         m.CAGR,
			"ann_vol":      m.AnnVol,
			"sharpe":       m.Sharpe,
			"max_drawdown": m.MaxDrawdown,
			"calmar":       calmar,
		},
		"regime_counts": res.RegimeCounts(),
		"artifacts":     w.Paths(),
	}
	return iox.WriteJSONAtomic(w.Paths().SummaryJSON, summary)
}

// WriteReport writes the human-readable markdown run report.
func (w *Writer) WriteReport(res *backtest.Result, m perf.Metrics) error {
	var b strings.Builder

	b.WriteString("# MacroRun Backtest Report\n\n")
	fmt.Fprintf(&b, "**Run**: %s\n", res.RunID)
	fmt.Fprintf(&b, "**Period**: %s to %s (%d months)\n\n",
		res.Start.Format("2006-01"), res.End.Format("2006-01"), len(res.Months))

	b.WriteString("## Performance\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| CAGR | %.2f%% |\n", m.CAGR*100)
	fmt.Fprintf(&b, "| Annualized Vol | %.2f%% |\n", m.AnnVol*100)
	fmt.Fprintf(&b, "| Sharpe | %.2f |\n", m.Sharpe)
	fmt.Fprintf(&b, "| Max Drawdown | %.2f%% |\n", m.MaxDrawdown*100)
	if math.IsInf(m.Calmar, 0) {
		b.WriteString("| Calmar | n/a (no drawdown) |\n\n")
	} else {
		fmt.Fprintf(&b, "| Calmar | %.2f |\n\n", m.Calmar)
	}

	b.WriteString("## Regime Breakdown\n\n")
	b.WriteString("| Regime | Months |\n")
	b.WriteString("|--------|-------:|\n")
	counts := res.RegimeCounts()
	for _, r := range macro.Regimes() {
		fmt.Fprintf(&b, "| %s | %d |\n", r, counts[r.String()])
	}
	b.WriteString("\n")

	b.WriteString("## Methodology\n\n")
	b.WriteString("1. Indicators aligned to month-end with a one-month publication lag\n")
	b.WriteString("2. Composite score: weighted mean of trailing z-scores\n")
	b.WriteString("3. Regime: score vs trailing median × month-over-month direction\n")
	b.WriteString("4. Monthly rebalance to regime target weights\n")
	b.WriteString("5. Volatility-targeting leverage overlay, capped\n")
	b.WriteString("6. No transaction costs, slippage, or taxes\n\n")

	b.WriteString("## Artifacts\n\n")
	paths := w.Paths()
	fmt.Fprintf(&b, "- Regime timeline: `%s`\n", paths.RegimeTimeline)
	fmt.Fprintf(&b, "- Performance summary: `%s`\n", paths.PerfSummary)
	fmt.Fprintf(&b, "- Equity curve: `%s`, `%s`\n", paths.EquityCurveCSV, paths.EquityCurvePNG)
	fmt.Fprintf(&b, "- Summary JSON: `%s`\n", paths.SummaryJSON)

	return iox.WriteBytesAtomic(w.Paths().ReportMD, []byte(b.String()))
}
