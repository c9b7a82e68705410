package dataset

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadCSV(t *testing.T) {
	csv := strings.Join([]string{
		"date,price,weight,age,breed,season,market",
		"2024-01-05,182.50,540,2,Angus,Winter,abilene",
		"2024-01-06,184.00,555,3,Hereford,Winter,abilene",
	}, "\n")

	recs, err := NewLoader().LoadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), recs[0].Date)
	assert.Equal(t, 182.50, recs[0].Price)
	assert.Equal(t, 540.0, recs[0].Weight)
	assert.Equal(t, "Angus", recs[0].Breed)
	assert.Equal(t, "abilene", recs[1].Market)
}

func TestLoadCSVColumnOrderIrrelevant(t *testing.T) {
	csv := "market,price,date\nsan_angelo,190.25,2024-02-01\n"
	recs, err := NewLoader().LoadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "san_angelo", recs[0].Market)
	assert.Equal(t, 190.25, recs[0].Price)
}

func TestLoadCSVMissingPriceColumn(t *testing.T) {
	_, err := NewLoader().LoadCSV(strings.NewReader("date,weight\n2024-01-05,540\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}

func TestLoadCSVBadRow(t *testing.T) {
	_, err := NewLoader().LoadCSV(strings.NewReader("date,price\n2024-01-05,not-a-number\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"date", "price", "weight", "age", "breed", "season", "market"},
		{"2024-03-10", 175.0, 520.0, 2.0, "Charolais", "Spring", "dodge_city"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	recs, err := NewLoader().LoadExcel(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Charolais", recs[0].Breed)
	assert.Equal(t, 175.0, recs[0].Price)
	assert.Equal(t, "dodge_city", recs[0].Market)
}
