package models

import "time"

// Market regime labels.
const (
	RegimeBullish = "Bullish"
	RegimeBearish = "Bearish"
)

// SeasonalStat aggregates prices for one calendar month across the whole
// analyzed range.
type SeasonalStat struct {
	Month time.Month `json:"month"`
	Mean  float64    `json:"mean"`
	Std   float64    `json:"std"`
	Count int        `json:"count"`
}

// TrendAnalysis is a snapshot of market diagnostics over a (possibly
// date-filtered) derived price history. Recomputed on demand, never cached
// here; callers cache the serialized form if they need to.
type TrendAnalysis struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Count int       `json:"count"`

	MeanPrice   float64 `json:"mean_price"`
	MedianPrice float64 `json:"median_price"`
	StdPrice    float64 `json:"std_price"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`

	Seasonal []SeasonalStat `json:"seasonal"`

	// RecentMomentum is the 30-row-lagged momentum at the last row of the
	// filtered series, i.e. the last available momentum value rather than a
	// windowed average.
	RecentMomentum float64 `json:"recent_momentum"`

	// TrendSlope and TrendR2 come from an OLS fit of price against row index
	// over the trailing 30 rows of the filtered series.
	TrendSlope float64 `json:"trend_slope"`
	TrendR2    float64 `json:"trend_r2"`

	// Regime compares the single most recent price against its own 30-row
	// moving average. One noisy sale flips it; that is the documented
	// behavior, not a smoothed classifier.
	Regime string `json:"regime"`
}
