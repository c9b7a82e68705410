package features

import (
	"sort"
	"strings"

	"Stockyard/internal/domain/models"
)

// Table is a fixed-schema numeric feature table. Column order is significant:
// a trained model records its training-time schema and inference tables are
// aligned to it column-for-column.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Trend and calendar column names, in schema order.
var baseColumns = []string{
	"price_ma_7",
	"price_ma_30",
	"price_momentum_7",
	"price_momentum_30",
	"price_volatility",
	"seasonal_strength",
	"price_trend",
	"weight",
	"age",
	"month",
	"year",
	"day_of_week",
	"is_winter",
	"is_spring",
	"is_summer",
	"is_fall",
}

// Assemble builds a feature table from a trend-derived history: trend
// signals, physical attributes, calendar parts, season indicators, and
// one-hot breed/market columns from the distinct values observed in this
// input. Row count matches the input. Pure transform; the caller aligns the
// result to a trained schema when predicting.
func Assemble(recs []models.DerivedRecord) *Table {
	breeds := distinct(recs, func(r models.DerivedRecord) string { return r.Breed })
	markets := distinct(recs, func(r models.DerivedRecord) string { return r.Market })

	cols := make([]string, 0, len(baseColumns)+len(breeds)+len(markets))
	cols = append(cols, baseColumns...)
	for _, b := range breeds {
		cols = append(cols, "breed_"+b)
	}
	for _, m := range markets {
		cols = append(cols, "market_"+m)
	}

	rows := make([][]float64, len(recs))
	for i, r := range recs {
		row := make([]float64, 0, len(cols))
		season := strings.ToLower(r.Season)
		row = append(row,
			r.MA7,
			r.MA30,
			r.Momentum7,
			r.Momentum30,
			r.Volatility,
			r.SeasonalStrength,
			r.TrendSlope,
			r.Weight,
			r.Age,
			float64(r.Date.Month()),
			float64(r.Date.Year()),
			float64(r.Date.Weekday()),
			indicator(season == "winter"),
			indicator(season == "spring"),
			indicator(season == "summer"),
			indicator(season == "fall"),
		)
		for _, b := range breeds {
			row = append(row, indicator(r.Breed == b))
		}
		for _, m := range markets {
			row = append(row, indicator(r.Market == m))
		}
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}
}

// Align reorders the table to the given schema: columns missing from the
// table are added zero-filled, columns absent from the schema are silently
// dropped. A categorical level unseen at training time therefore encodes as
// an all-zero indicator block, never as a new column.
func (t *Table) Align(schema []string) *Table {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[c] = i
	}
	rows := make([][]float64, len(t.Rows))
	for i, src := range t.Rows {
		row := make([]float64, len(schema))
		for j, col := range schema {
			if k, ok := idx[col]; ok {
				row[j] = src[k]
			}
		}
		rows[i] = row
	}
	cols := make([]string, len(schema))
	copy(cols, schema)
	return &Table{Columns: cols, Rows: rows}
}

// Target extracts the raw prices of a derived history as a training target.
func Target(recs []models.DerivedRecord) []float64 {
	ys := make([]float64, len(recs))
	for i, r := range recs {
		ys[i] = r.Price
	}
	return ys
}

func distinct(recs []models.DerivedRecord, key func(models.DerivedRecord) string) []string {
	seen := make(map[string]struct{})
	for _, r := range recs {
		if v := key(r); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
