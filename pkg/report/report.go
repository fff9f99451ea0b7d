// Package report renders the aggregate groups and exclusion set into a
// deterministic, human-readable text summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jdaniels/expensedigest/pkg/api"
)

var hundred = decimal.NewFromInt(100)

// Data carries everything one pipeline run produced for a single source
// file. Groups must already be in their final sorted order.
type Data struct {
	Source      string
	GeneratedAt time.Time
	TotalRows   int
	Included    []api.ExpenseRecord
	Excluded    []api.FilteredRecord
	Groups      []api.AggregateGroup
}

// Render produces the text report. Ordering is stable for identical
// input and all statistics are guarded against division by zero, so this
// stage has no failure modes.
func Render(d Data) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Expense Report\n")
	fmt.Fprintf(&b, "==============\n")
	fmt.Fprintf(&b, "Generated: %s\n", d.GeneratedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "Source:    %s\n\n", d.Source)

	writeSummary(&b, d)
	writeGroups(&b, d.Groups)
	writeExcluded(&b, d.Excluded)
	writeStatistics(&b, d)

	return b.String()
}

func writeSummary(b *strings.Builder, d Data) {
	positive, pattern := countByReason(d.Excluded)

	fmt.Fprintf(b, "Summary\n")
	fmt.Fprintf(b, "-------\n")
	fmt.Fprintf(b, "Rows processed:              %d\n", d.TotalRows)
	fmt.Fprintf(b, "Included:                    %d (collapsed into %d groups)\n", len(d.Included), len(d.Groups))
	fmt.Fprintf(b, "Excluded (positive-amount):  %d\n", positive)
	fmt.Fprintf(b, "Excluded (pattern-match):    %d\n", pattern)
	fmt.Fprintf(b, "Total expenses:              %s\n\n", grandTotal(d.Groups).StringFixed(2))
}

func writeGroups(b *strings.Builder, groups []api.AggregateGroup) {
	fmt.Fprintf(b, "Groups\n")
	fmt.Fprintf(b, "------\n")
	if len(groups) == 0 {
		fmt.Fprintf(b, "(none)\n")
	}
	for _, g := range groups {
		fmt.Fprintf(b, "%s: %s (%d transactions, dates %s)\n",
			g.Description,
			g.Total.StringFixed(2),
			len(g.Sources),
			strings.Join(g.Dates(), ", "),
		)
		for _, rec := range g.Sources {
			fmt.Fprintf(b, "  %s  %s  %s\n", rec.ValueDate, rec.Description, rec.Amount)
		}
	}
	fmt.Fprintf(b, "\n")
}

func writeExcluded(b *strings.Builder, excluded []api.FilteredRecord) {
	fmt.Fprintf(b, "Excluded\n")
	fmt.Fprintf(b, "--------\n")
	if len(excluded) == 0 {
		fmt.Fprintf(b, "(none)\n")
	}
	for _, reason := range []api.ExclusionReason{api.ReasonPositiveAmount, api.ReasonPatternMatch} {
		var matched []api.FilteredRecord
		for _, fr := range excluded {
			if fr.Reason == reason {
				matched = append(matched, fr)
			}
		}
		if len(matched) == 0 {
			continue
		}
		fmt.Fprintf(b, "%s:\n", reason)
		for _, fr := range matched {
			fmt.Fprintf(b, "  %s  %s  %s\n", fr.Record.ValueDate, fr.Record.Description, fr.Record.Amount)
		}
	}
	fmt.Fprintf(b, "\n")
}

func writeStatistics(b *strings.Builder, d Data) {
	fmt.Fprintf(b, "Statistics\n")
	fmt.Fprintf(b, "----------\n")

	if largest, ok := largestGroup(d.Groups); ok {
		fmt.Fprintf(b, "Largest group:        %s (%s)\n", largest.Description, largest.Total.StringFixed(2))
	}
	if busiest, ok := busiestGroup(d.Groups); ok {
		fmt.Fprintf(b, "Most transactions:    %s (%d)\n", busiest.Description, len(busiest.Sources))
	}

	included := int64(len(d.Included))
	if included > 0 {
		avg := grandTotal(d.Groups).Div(decimal.NewFromInt(included))
		fmt.Fprintf(b, "Average transaction:  %s\n", avg.Round(2).StringFixed(2))

		collapse := decimal.NewFromInt(included - int64(len(d.Groups))).
			Div(decimal.NewFromInt(included)).Mul(hundred)
		fmt.Fprintf(b, "Collapse efficiency:  %s%%\n", collapse.Round(1).StringFixed(1))
	}

	if d.TotalRows > 0 {
		filtered := decimal.NewFromInt(int64(len(d.Excluded))).
			Div(decimal.NewFromInt(int64(d.TotalRows))).Mul(hundred)
		fmt.Fprintf(b, "Filter efficiency:    %s%%\n", filtered.Round(1).StringFixed(1))
	}
}

func grandTotal(groups []api.AggregateGroup) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Total)
	}
	return total
}

func countByReason(excluded []api.FilteredRecord) (positive, pattern int) {
	for _, fr := range excluded {
		switch fr.Reason {
		case api.ReasonPositiveAmount:
			positive++
		case api.ReasonPatternMatch:
			pattern++
		}
	}
	return positive, pattern
}

// largestGroup returns the group with the greatest absolute total.
func largestGroup(groups []api.AggregateGroup) (api.AggregateGroup, bool) {
	if len(groups) == 0 {
		return api.AggregateGroup{}, false
	}
	largest := groups[0]
	for _, g := range groups[1:] {
		if g.Total.Abs().GreaterThan(largest.Total.Abs()) {
			largest = g
		}
	}
	return largest, true
}

// busiestGroup returns the group with the most contributing source rows,
// but only when it has more than one.
func busiestGroup(groups []api.AggregateGroup) (api.AggregateGroup, bool) {
	var busiest api.AggregateGroup
	for _, g := range groups {
		if len(g.Sources) > len(busiest.Sources) {
			busiest = g
		}
	}
	if len(busiest.Sources) <= 1 {
		return api.AggregateGroup{}, false
	}
	return busiest, true
}
