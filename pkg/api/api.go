// Package api defines the core interfaces and data structures for expensedigest.
package api

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// ExpenseRecord is one transaction parsed from a statement CSV.
// ValueDate and Amount are kept as the raw strings from the export:
// dates are never calendar-validated, and the amount keeps its sign
// (negative = debit/expense, positive = credit/refund).
type ExpenseRecord struct {
	ValueDate   string `json:"value_date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// ExclusionReason explains why a record was dropped from expense totals.
type ExclusionReason string

const (
	// ReasonPatternMatch means the description matched a blocklist entry.
	ReasonPatternMatch ExclusionReason = "pattern-match"
	// ReasonPositiveAmount means the amount was a credit/refund.
	ReasonPositiveAmount ExclusionReason = "positive-amount"
)

// FilteredRecord pairs an excluded record with its exclusion reason.
// A record carries exactly one reason; pattern-match takes precedence
// over positive-amount.
type FilteredRecord struct {
	Record ExpenseRecord
	Reason ExclusionReason
}

// ColumnIndices holds the resolved zero-based positions of the required
// statement columns. A position of -1 means the column was not found.
type ColumnIndices struct {
	ValueDate   int
	Description int
	Amount      int
}

// IsValid reports whether all three required columns were resolved.
func (c ColumnIndices) IsValid() bool {
	return c.ValueDate >= 0 && c.Description >= 0 && c.Amount >= 0
}

// AggregateGroup is the result of collapsing all included records that
// share a canonical description. It is an immutable value: AddRecord
// returns a new group rather than mutating the receiver.
type AggregateGroup struct {
	Description string
	Total       decimal.Decimal
	dates       map[string]struct{}
	Sources     []ExpenseRecord
}

// NewAggregateGroup creates a group from its first record. An amount the
// filter stage could not parse contributes zero to the total.
func NewAggregateGroup(canonical string, rec ExpenseRecord) AggregateGroup {
	amt, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		amt = decimal.Zero
	}
	return AggregateGroup{
		Description: canonical,
		Total:       amt,
		dates:       map[string]struct{}{rec.ValueDate: {}},
		Sources:     []ExpenseRecord{rec},
	}
}

// AddRecord returns a new group with the record's amount added, its date
// inserted into the date set, and the record appended to the sources.
func (g AggregateGroup) AddRecord(rec ExpenseRecord) AggregateGroup {
	amt, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		amt = decimal.Zero
	}

	dates := make(map[string]struct{}, len(g.dates)+1)
	for d := range g.dates {
		dates[d] = struct{}{}
	}
	dates[rec.ValueDate] = struct{}{}

	sources := make([]ExpenseRecord, 0, len(g.Sources)+1)
	sources = append(sources, g.Sources...)
	sources = append(sources, rec)

	return AggregateGroup{
		Description: g.Description,
		Total:       g.Total.Add(amt),
		dates:       dates,
		Sources:     sources,
	}
}

// Dates returns the deduplicated value dates in ascending order.
func (g AggregateGroup) Dates() []string {
	out := make([]string, 0, len(g.dates))
	for d := range g.dates {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// LatestDate returns the lexicographically greatest value date in the
// group. This assumes ISO-ordered date strings; it is a plain string
// comparison, not a calendar one.
func (g AggregateGroup) LatestDate() string {
	var latest string
	for d := range g.dates {
		if d > latest {
			latest = d
		}
	}
	return latest
}

// Notification names one newly created object to process.
type Notification struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Store is the narrow object-store capability the pipeline depends on.
type Store interface {
	// Get reads the object at key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes data to key with the given content type.
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// GroupSink archives aggregate groups to an optional secondary
// destination after a successful pipeline run. Sink errors are logged by
// the caller and never fail the run.
type GroupSink interface {
	Name() string
	Archive(ctx context.Context, source string, groups []AggregateGroup) error
}
