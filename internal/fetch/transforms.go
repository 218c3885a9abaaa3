package fetch

import (
	"fmt"
	"time"

	"github.com/cyclelab/macrorun/internal/data"
)

// YoY converts a level series into its 12-month percent change. Months
// without an observation exactly 12 months back are dropped.
func YoY(s data.MonthlySeries, name string) (data.MonthlySeries, error) {
	return derive(s, name, 12, func(cur, prior float64) (float64, bool) {
		if prior == 0 {
			return 0, false
		}
		return (cur/prior - 1) * 100, true
	})
}

// Momentum converts a level series into its k-month percent change, as a
// fraction. Used for the equity momentum indicator.
func Momentum(s data.MonthlySeries, name string, k int) (data.MonthlySeries, error) {
	return derive(s, name, k, func(cur, prior float64) (float64, bool) {
		if prior == 0 {
			return 0, false
		}
		return cur/prior - 1, true
	})
}

// DiffMonths converts a level series into its k-month difference.
func DiffMonths(s data.MonthlySeries, name string, k int) (data.MonthlySeries, error) {
	return derive(s, name, k, func(cur, prior float64) (float64, bool) {
		return cur - prior, true
	})
}

// Spread subtracts b from a over their common months.
func Spread(a, b data.MonthlySeries, name string) (data.MonthlySeries, error) {
	bByDate := make(map[time.Time]float64, b.Len())
	for i, d := range b.Dates {
		bByDate[d] = b.Values[i]
	}
	out := data.MonthlySeries{Name: name}
	for i, d := range a.Dates {
		bv, ok := bByDate[d]
		if !ok {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, a.Values[i]-bv)
	}
	if out.Len() == 0 {
		return data.MonthlySeries{}, fmt.Errorf("spread %s: %s and %s share no months", name, a.Name, b.Name)
	}
	return out, nil
}

func derive(s data.MonthlySeries, name string, lagMonths int, f func(cur, prior float64) (float64, bool)) (data.MonthlySeries, error) {
	byDate := make(map[time.Time]float64, s.Len())
	for i, d := range s.Dates {
		byDate[d] = s.Values[i]
	}
	out := data.MonthlySeries{Name: name}
	for i, d := range s.Dates {
		// Step back from the first of the month: month arithmetic on a
		// 31st can overflow into the wrong month.
		priorDate := data.MonthEnd(data.MonthStart(d).AddDate(0, -lagMonths, 0))
		prior, ok := byDate[priorDate]
		if !ok {
			continue
		}
		v, ok := f(s.Values[i], prior)
		if !ok {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, v)
	}
	if out.Len() == 0 {
		return data.MonthlySeries{}, fmt.Errorf("transform %s: series %s too short for %d-month lag", name, s.Name, lagMonths)
	}
	return out, nil
}
