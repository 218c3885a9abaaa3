package data

import (
	"fmt"
	"math"
	"time"
)

// MissingDataError reports an indicator with no observation before the
// backtest start. The run cannot proceed: substituting a value would bias the
// composite score.
type MissingDataError struct {
	Indicator string
	Start     time.Time
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("indicator %s has no data before backtest start %s",
		e.Indicator, e.Start.Format("2006-01-02"))
}

// Panel is the aligned, publication-lagged indicator table. Row M holds, for
// each indicator, the most recent observation dated strictly before the first
// day of month M, so every value in row M was knowable when M began. Missing
// values are NaN.
type Panel struct {
	Dates   []time.Time // month-end, one per month, no gaps
	Columns []string
	Values  [][]float64 // row-major, len(Dates) x len(Columns)
}

// Missing reports whether the panel value is absent.
func Missing(v float64) bool { return math.IsNaN(v) }

// Align builds the lagged panel for month-ends start..end inclusive. Gaps
// inside a series carry the last known value forward. An indicator with no
// observation before the first month fails with MissingDataError.
func Align(series []MonthlySeries, start, end time.Time) (*Panel, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("align: no indicator series")
	}
	start, end = MonthEnd(start), MonthEnd(end)
	if end.Before(start) {
		return nil, fmt.Errorf("align: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	p := &Panel{}
	for _, s := range series {
		p.Columns = append(p.Columns, s.Name)
	}
	for d := start; !d.After(end); d = MonthEnd(d.AddDate(0, 0, 1)) {
		p.Dates = append(p.Dates, d)
	}

	for _, d := range p.Dates {
		cutoff := MonthStart(d)
		row := make([]float64, len(series))
		for j, s := range series {
			v, ok := s.ValueBefore(cutoff)
			if !ok {
				v = math.NaN()
			}
			row[j] = v
		}
		p.Values = append(p.Values, row)
	}

	// Every indicator must be live at the start of the range.
	for j, s := range series {
		if Missing(p.Values[0][j]) {
			return nil, &MissingDataError{Indicator: s.Name, Start: start}
		}
	}

	return p, nil
}

// DefaultRange returns the widest month range every series can cover: from
// the first month after all series have data through the month after the
// earliest series end (the lag makes a final observation usable one month
// later).
func DefaultRange(series []MonthlySeries) (time.Time, time.Time, error) {
	if len(series) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no series")
	}
	start := series[0].First()
	end := series[0].Last()
	for _, s := range series[1:] {
		if s.First().After(start) {
			start = s.First()
		}
		if s.Last().Before(end) {
			end = s.Last()
		}
	}
	// Shift one month forward: month M consumes observations before M starts.
	start = MonthEnd(start.AddDate(0, 0, 1))
	end = MonthEnd(end.AddDate(0, 0, 1))
	return start, end, nil
}
