package models

import "time"

// Season labels carried on sale records. Matching is case-insensitive at
// feature-assembly time; these are the canonical forms.
const (
	SeasonWinter = "Winter"
	SeasonSpring = "Spring"
	SeasonSummer = "Summer"
	SeasonFall   = "Fall"
)

// SaleRecord is a single livestock sale observation. Immutable once ingested.
type SaleRecord struct {
	Date   time.Time
	Price  float64
	Weight float64
	Age    float64
	Breed  string
	Season string
	Market string
	OrgID  string
}

// TrendFeatures holds the rolling statistical signals derived for one row of
// a price history. A field is only meaningful once its window is full; rows
// with incomplete windows never leave the deriver.
type TrendFeatures struct {
	MA7              float64
	MA30             float64
	Momentum7        float64
	Momentum30       float64
	Volatility       float64
	SeasonalStrength float64
	TrendSlope       float64
}

// DerivedRecord is a sale record with its trend signals attached. Owned by
// the price history it was derived from; recomputed fresh, never patched.
type DerivedRecord struct {
	SaleRecord
	TrendFeatures
}
