// Package statement parses decoded bank-statement CSV text into expense
// records, resolving the required columns by header name.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jdaniels/expensedigest/pkg/api"
)

// Required header names, matched case-insensitively after trimming.
const (
	colValueDate   = "Value Date"
	colDescription = "Description"
	colAmount      = "Amount"
)

var (
	// ErrEmptyStatement means the CSV had no rows at all.
	ErrEmptyStatement = errors.New("statement CSV is empty")
	// ErrMissingColumns means the header row lacks one or more required columns.
	ErrMissingColumns = errors.New("statement CSV is missing required columns")
)

// ResolveColumns finds the required column positions in a header row.
// Unfound columns are reported as -1.
func ResolveColumns(header []string) api.ColumnIndices {
	return api.ColumnIndices{
		ValueDate:   indexOf(header, colValueDate),
		Description: indexOf(header, colDescription),
		Amount:      indexOf(header, colAmount),
	}
}

func indexOf(header []string, name string) int {
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return i
		}
	}
	return -1
}

// Parse reads statement CSV text and returns the expense records in file
// order. Rows too short to satisfy the resolved column positions are
// skipped silently; a missing or invalid header aborts the whole file.
func Parse(csvText string) ([]api.ExpenseRecord, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyStatement
	}

	indices := ResolveColumns(rows[0])
	if !indices.IsValid() {
		return nil, fmt.Errorf("%w: resolved value_date=%d description=%d amount=%d",
			ErrMissingColumns, indices.ValueDate, indices.Description, indices.Amount)
	}

	maxIdx := indices.ValueDate
	if indices.Description > maxIdx {
		maxIdx = indices.Description
	}
	if indices.Amount > maxIdx {
		maxIdx = indices.Amount
	}

	records := make([]api.ExpenseRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) <= maxIdx {
			slog.Debug("skipping short statement row", "row", i+2, "fields", len(row))
			continue
		}
		records = append(records, api.ExpenseRecord{
			ValueDate:   row[indices.ValueDate],
			Description: row[indices.Description],
			Amount:      row[indices.Amount],
		})
	}

	return records, nil
}
