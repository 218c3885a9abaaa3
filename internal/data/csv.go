package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// LoadSeriesCSV reads a two-column indicator CSV (date plus one numeric
// column). valueCol selects the column by header name; empty means the first
// non-date column. Rows with an empty value cell are skipped, so source feeds
// may leave holes without breaking the load.
func LoadSeriesCSV(path, name, valueCol string) (MonthlySeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return MonthlySeries{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return MonthlySeries{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return MonthlySeries{}, fmt.Errorf("%s: no data rows", path)
	}

	header := records[0]
	dateIdx, valueIdx := -1, -1
	for i, col := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(col), "date"):
			dateIdx = i
		case valueCol != "" && strings.EqualFold(strings.TrimSpace(col), valueCol):
			valueIdx = i
		case valueCol == "" && valueIdx == -1 && !strings.EqualFold(strings.TrimSpace(col), "date"):
			valueIdx = i
		}
	}
	if dateIdx == -1 {
		return MonthlySeries{}, fmt.Errorf("%s: missing date column", path)
	}
	if valueIdx == -1 {
		return MonthlySeries{}, fmt.Errorf("%s: missing value column %q", path, valueCol)
	}

	var obs []Observation
	for line, rec := range records[1:] {
		if len(rec) <= dateIdx || len(rec) <= valueIdx {
			return MonthlySeries{}, fmt.Errorf("%s: short row %d", path, line+2)
		}
		if strings.TrimSpace(rec[valueIdx]) == "" {
			continue
		}
		d, err := parseDate(rec[dateIdx])
		if err != nil {
			return MonthlySeries{}, fmt.Errorf("%s row %d: %w", path, line+2, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueIdx]), 64)
		if err != nil {
			return MonthlySeries{}, fmt.Errorf("%s row %d: bad value: %w", path, line+2, err)
		}
		obs = append(obs, Observation{Date: d, Value: v})
	}

	return NewMonthlySeries(name, obs)
}

// WriteSeriesCSV renders a series back to the two-column on-disk format.
func WriteSeriesCSV(s MonthlySeries, valueCol string) []byte {
	var b strings.Builder
	b.WriteString("date," + valueCol + "\n")
	for i, d := range s.Dates {
		b.WriteString(d.Format("2006-01-02"))
		b.WriteString(",")
		b.WriteString(strconv.FormatFloat(s.Values[i], 'g', -1, 64))
		b.WriteString("\n")
	}
	return []byte(b.String())
}
