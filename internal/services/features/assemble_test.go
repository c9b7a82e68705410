package features

import (
	"testing"
	"time"

	"Stockyard/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func derivedRow(date time.Time, price float64, breed, market string) models.DerivedRecord {
	return models.DerivedRecord{
		SaleRecord: models.SaleRecord{
			Date: date, Price: price, Weight: 500, Age: 2,
			Breed: breed, Season: "Summer", Market: market,
		},
		TrendFeatures: models.TrendFeatures{
			MA7: price, MA30: price, Momentum7: 0.01, Momentum30: 0.02,
			Volatility: 1.5, SeasonalStrength: 1.0, TrendSlope: 0.1,
		},
	}
}

func TestAssembleColumnsAndOneHots(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) // a Monday in June
	recs := []models.DerivedRecord{
		derivedRow(d, 180, "Angus", "abilene"),
		derivedRow(d.AddDate(0, 0, 1), 182, "Hereford", "abilene"),
	}
	tbl := Assemble(recs)
	require.Len(t, tbl.Rows, 2)

	// one-hot columns follow the base block, sorted
	assert.Contains(t, tbl.Columns, "breed_Angus")
	assert.Contains(t, tbl.Columns, "breed_Hereford")
	assert.Contains(t, tbl.Columns, "market_abilene")

	idx := make(map[string]int, len(tbl.Columns))
	for i, c := range tbl.Columns {
		idx[c] = i
	}
	assert.Equal(t, 1.0, tbl.Rows[0][idx["breed_Angus"]])
	assert.Equal(t, 0.0, tbl.Rows[0][idx["breed_Hereford"]])
	assert.Equal(t, 1.0, tbl.Rows[1][idx["breed_Hereford"]])
	assert.Equal(t, 6.0, tbl.Rows[0][idx["month"]])
	assert.Equal(t, 2024.0, tbl.Rows[0][idx["year"]])
	assert.Equal(t, 1.0, tbl.Rows[0][idx["day_of_week"]])
	assert.Equal(t, 1.0, tbl.Rows[0][idx["is_summer"]])
	assert.Equal(t, 0.0, tbl.Rows[0][idx["is_winter"]])
}

func TestAlignZeroFillsAndReorders(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	tbl := Assemble([]models.DerivedRecord{derivedRow(d, 180, "Brahman", "lubbock")})

	schema := append([]string{}, baseColumns...)
	schema = append(schema, "breed_Angus", "market_abilene")

	aligned := tbl.Align(schema)
	require.Equal(t, schema, aligned.Columns)
	require.Len(t, aligned.Rows, 1)
	require.Len(t, aligned.Rows[0], len(schema))

	// unseen training levels encode as zeros; the input's own levels vanish
	idx := make(map[string]int, len(schema))
	for i, c := range schema {
		idx[c] = i
	}
	assert.Equal(t, 0.0, aligned.Rows[0][idx["breed_Angus"]])
	assert.Equal(t, 0.0, aligned.Rows[0][idx["market_abilene"]])
	assert.NotContains(t, aligned.Columns, "breed_Brahman")
}

func TestAlignIdempotentOnMatchingSchema(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	tbl := Assemble([]models.DerivedRecord{derivedRow(d, 180, "Angus", "abilene")})
	aligned := tbl.Align(tbl.Columns)
	assert.Equal(t, tbl.Columns, aligned.Columns)
	assert.Equal(t, tbl.Rows, aligned.Rows)
}

func TestTarget(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	recs := []models.DerivedRecord{
		derivedRow(d, 180, "Angus", "abilene"),
		derivedRow(d.AddDate(0, 0, 1), 185, "Angus", "abilene"),
	}
	assert.Equal(t, []float64{180, 185}, Target(recs))
}
