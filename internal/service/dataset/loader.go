package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"Stockyard/internal/domain/models"
	"Stockyard/pkg/util"

	"github.com/xuri/excelize/v2"
)

// Loader reads sale-record datasets from .xlsx and .csv files. The first
// row must be a header; recognized columns are date, price, weight, age,
// breed, season and market (case-insensitive, any order).
type Loader struct{}

func NewLoader() *Loader { return &Loader{} }

// LoadFile dispatches on the file extension.
func (l *Loader) LoadFile(path string) ([]models.SaleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
		return l.LoadExcel(f)
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		return l.LoadCSV(f)
	default:
		return nil, fmt.Errorf("dataset: unsupported file format %q, want .xlsx or .csv", path)
	}
}

// LoadExcel reads records from the first sheet of an xlsx workbook.
func (l *Loader) LoadExcel(r io.Reader) ([]models.SaleRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: read workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("dataset: read sheet rows: %w", err)
	}
	return parseRows(rows)
}

// LoadCSV reads records from a comma-separated file.
func (l *Loader) LoadCSV(r io.Reader) ([]models.SaleRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: parse csv: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]models.SaleRecord, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("dataset: need a header row and at least one data row")
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("dataset: missing required column %q", required)
		}
	}

	out := make([]models.SaleRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec, err := parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("dataset: row %d: %w", n+2, err)
		}
		if rec == nil {
			continue // blank line
		}
		out = append(out, *rec)
	}
	return out, nil
}

func parseRow(cols map[string]int, row []string) (*models.SaleRecord, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	if cell("date") == "" && cell("price") == "" {
		return nil, nil
	}

	date, ok := util.ParseDate(cell("date"))
	if !ok {
		return nil, fmt.Errorf("bad date %q", cell("date"))
	}
	price, err := strconv.ParseFloat(cell("price"), 64)
	if err != nil {
		return nil, fmt.Errorf("bad price %q", cell("price"))
	}

	rec := &models.SaleRecord{
		Date:   date,
		Price:  price,
		Breed:  cell("breed"),
		Season: cell("season"),
		Market: cell("market"),
	}
	if s := cell("weight"); s != "" {
		if rec.Weight, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("bad weight %q", s)
		}
	}
	if s := cell("age"); s != "" {
		if rec.Age, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("bad age %q", s)
		}
	}
	return rec, nil
}
