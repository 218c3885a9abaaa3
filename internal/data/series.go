// Package data provides the monthly series model, CSV loading, and the
// publication-lag aligner that feeds the scoring pipeline.
package data

import (
	"fmt"
	"time"
)

// Observation is a single dated value in a raw series.
type Observation struct {
	Date  time.Time
	Value float64
}

// MonthlySeries is an ordered month-end series for one indicator or asset.
// Dates are strictly increasing with at most one observation per month.
type MonthlySeries struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// MonthEnd returns the last day of t's month at midnight UTC.
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	firstOfNext := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// MonthStart returns the first day of t's month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// NewMonthlySeries builds a month-end series from raw observations. Higher
// frequency input is downsampled by keeping the last observation of each
// calendar month. Observations must be in ascending date order.
func NewMonthlySeries(name string, obs []Observation) (MonthlySeries, error) {
	s := MonthlySeries{Name: name}
	for i, o := range obs {
		if i > 0 && !obs[i-1].Date.Before(o.Date) {
			return MonthlySeries{}, fmt.Errorf("series %s: observations out of order at %s", name, o.Date.Format("2006-01-02"))
		}
		me := MonthEnd(o.Date)
		if n := len(s.Dates); n > 0 && s.Dates[n-1].Equal(me) {
			// Same month: keep the later observation.
			s.Values[n-1] = o.Value
			continue
		}
		s.Dates = append(s.Dates, me)
		s.Values = append(s.Values, o.Value)
	}
	if len(s.Dates) == 0 {
		return MonthlySeries{}, fmt.Errorf("series %s: no observations", name)
	}
	return s, nil
}

// Len returns the number of months in the series.
func (s MonthlySeries) Len() int { return len(s.Dates) }

// First returns the earliest month-end date.
func (s MonthlySeries) First() time.Time { return s.Dates[0] }

// Last returns the latest month-end date.
func (s MonthlySeries) Last() time.Time { return s.Dates[len(s.Dates)-1] }

// ValueBefore returns the most recent value observed strictly before cutoff,
// or false if no observation precedes it.
func (s MonthlySeries) ValueBefore(cutoff time.Time) (float64, bool) {
	for i := len(s.Dates) - 1; i >= 0; i-- {
		if s.Dates[i].Before(cutoff) {
			return s.Values[i], true
		}
	}
	return 0, false
}
