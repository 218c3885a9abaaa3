package backtest

import (
	"fmt"
	"time"

	"github.com/cyclelab/macrorun/internal/data"
)

// Returns is the month-aligned asset return table. Row t holds each asset's
// simple return over month t (month-end t-1 to month-end t). Dates are the
// intersection of all assets' histories, so every row is complete.
type Returns struct {
	Dates   []time.Time
	Tickers []string
	Values  [][]float64
}

// ReturnsFromPrices converts month-end price series into the joint monthly
// return table.
func ReturnsFromPrices(prices []data.MonthlySeries) (*Returns, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("returns: no price series")
	}

	type perAsset struct {
		byDate map[time.Time]float64
	}
	assets := make([]perAsset, len(prices))
	r := &Returns{}

	for i, p := range prices {
		r.Tickers = append(r.Tickers, p.Name)
		byDate := make(map[time.Time]float64, p.Len())
		for k := 1; k < p.Len(); k++ {
			prev := p.Values[k-1]
			if prev == 0 {
				return nil, fmt.Errorf("returns: %s has zero price at %s",
					p.Name, p.Dates[k-1].Format("2006-01-02"))
			}
			byDate[p.Dates[k]] = p.Values[k]/prev - 1
		}
		assets[i] = perAsset{byDate: byDate}
	}

	// Walk the first asset's months and keep those every asset covers.
	first := prices[0]
	for k := 1; k < first.Len(); k++ {
		d := first.Dates[k]
		row := make([]float64, len(assets))
		complete := true
		for i, a := range assets {
			v, ok := a.byDate[d]
			if !ok {
				complete = false
				break
			}
			row[i] = v
		}
		if complete {
			r.Dates = append(r.Dates, d)
			r.Values = append(r.Values, row)
		}
	}

	if len(r.Dates) == 0 {
		return nil, fmt.Errorf("returns: asset histories have no common months")
	}
	return r, nil
}
