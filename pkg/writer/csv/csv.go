// Package csv renders pipeline results as statement-style CSV documents.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jdaniels/expensedigest/pkg/api"
)

// Header rows for the two output variants.
var (
	processedHeader = []string{"Value Date", "Description", "Amount"}
	collapsedHeader = []string{"Value Dates", "Description", "Total Amount"}
)

// RenderProcessed writes one row per included record, filtered but not
// collapsed, preserving input order.
func RenderProcessed(records []api.ExpenseRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(processedHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.ValueDate, rec.Description, rec.Amount}); err != nil {
			return nil, fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCollapsed writes one row per aggregate group in the groups'
// existing (sorted) order. The date column carries only the group's
// latest value date; totals are rounded to cents at this point and not
// before.
func RenderCollapsed(groups []api.AggregateGroup) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(collapsedHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, g := range groups {
		row := []string{g.LatestDate(), g.Description, g.Total.StringFixed(2)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv group: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}
