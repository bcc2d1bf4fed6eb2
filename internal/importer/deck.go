// Package importer reads decks from spreadsheets and moves progress records
// in and out of the store.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bturcotte520/FlashCards/internal/models"
)

// Config describes where card fields live in a spreadsheet. Columns are
// spreadsheet letters; an empty column is not read.
type Config struct {
	SheetName           string
	StartRow            int // 1-based
	IDColumn            string
	FrontColumn         string
	BackColumn          string
	PronunciationColumn string
	ExampleColumn       string
	NotesColumn         string
	DifficultyColumn    string
	Type                string
}

// DefaultConfig returns the default import layout
func DefaultConfig() Config {
	return Config{
		SheetName:           "Sheet1",
		StartRow:            2,
		FrontColumn:         "A",
		BackColumn:          "B",
		PronunciationColumn: "C",
		ExampleColumn:       "D",
		NotesColumn:         "E",
		DifficultyColumn:    "F",
		IDColumn:            "G",
		Type:                "vocabulary",
	}
}

// Result holds the outcome of an import
type Result struct {
	TotalProcessed int      `json:"total_processed"`
	Imported       int      `json:"imported"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors,omitempty"`
}

func (r *Result) skip(row int, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("row %d: %v", row, err))
}

// ReadDeckFile reads cards from an .xlsx or .csv file.
func ReadDeckFile(path string, cfg Config) ([]models.Card, *Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open deck file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f, cfg)
	case ".xlsx", ".xlsm":
		return ReadSpreadsheet(f, cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported deck file type %q", ext)
	}
}

// ReadSpreadsheet reads cards from the configured sheet of an Excel workbook.
func ReadSpreadsheet(r io.Reader, cfg Config) ([]models.Card, *Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}
	cards, res := parseRows(rows, cfg)
	return cards, res, nil
}

// ReadCSV reads cards from comma separated rows laid out like a sheet.
func ReadCSV(r io.Reader, cfg Config) ([]models.Card, *Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading CSV: %w", err)
	}
	cards, res := parseRows(rows, cfg)
	return cards, res, nil
}

func parseRows(rows [][]string, cfg Config) ([]models.Card, *Result) {
	res := &Result{}
	start := cfg.StartRow
	if start < 1 {
		start = 1
	}

	var cards []models.Card
	seen := map[string]int{}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < start || blank(row) {
			continue
		}
		res.TotalProcessed++

		card, err := cardFromRow(row, cfg)
		if err != nil {
			res.skip(rowNum, err)
			continue
		}
		if card.ID != "" {
			if prev, ok := seen[card.ID]; ok {
				res.skip(rowNum, fmt.Errorf("duplicate id %q (first seen on row %d)", card.ID, prev))
				continue
			}
			seen[card.ID] = rowNum
		}
		cards = append(cards, card)
		res.Imported++
	}
	return cards, res
}

func cardFromRow(row []string, cfg Config) (models.Card, error) {
	card := models.Card{
		ID:            cell(row, cfg.IDColumn),
		Front:         cell(row, cfg.FrontColumn),
		Back:          cell(row, cfg.BackColumn),
		Pronunciation: cell(row, cfg.PronunciationColumn),
		Example:       cell(row, cfg.ExampleColumn),
		Notes:         cell(row, cfg.NotesColumn),
		Type:          cfg.Type,
		Difficulty:    1,
	}
	if card.Front == "" {
		return card, fmt.Errorf("front cannot be empty")
	}
	if card.Back == "" {
		return card, fmt.Errorf("back cannot be empty")
	}
	if raw := cell(row, cfg.DifficultyColumn); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 1 || d > 5 {
			return card, fmt.Errorf("difficulty %q must be a number from 1 to 5", raw)
		}
		card.Difficulty = d
	}
	return card, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx, err := excelize.ColumnNameToNumber(column)
	if err != nil || idx > len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx-1])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
