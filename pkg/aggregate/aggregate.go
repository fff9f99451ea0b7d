// Package aggregate maps raw merchant descriptions to canonical names
// and collapses included records into per-merchant totals.
package aggregate

import (
	"sort"
	"strings"

	"github.com/jdaniels/expensedigest/pkg/api"
)

// Alias maps a description substring to a canonical merchant name. The
// substring is matched against the upper-cased trimmed description, so
// it should be written upper-cased.
type Alias struct {
	Pattern   string
	Canonical string
}

// DefaultAliases is the built-in merchant alias table. Order matters:
// the first matching entry wins, so more specific patterns belong
// earlier.
var DefaultAliases = []Alias{
	{"UBER", "Uber"},
	{"WOOLWORTHS", "Woolworths"},
	{"APPLE.COM", "Apple"},
	{"ITUNES", "Apple"},
	{"PICK N PAY", "Pick n Pay"},
	{"CHECKERS", "Checkers"},
	{"TAKEALOT", "Takealot"},
	{"NETFLIX", "Netflix"},
	{"SPOTIFY", "Spotify"},
	{"AMAZON", "Amazon"},
	{"AMZN", "Amazon"},
}

// Normalize returns the canonical merchant name for a raw description:
// the first alias whose pattern appears in the upper-cased trimmed
// description, or the original description unchanged when nothing
// matches.
func Normalize(description string, aliases []Alias) string {
	folded := strings.ToUpper(strings.TrimSpace(description))
	for _, alias := range aliases {
		if strings.Contains(folded, alias.Pattern) {
			return alias.Canonical
		}
	}
	return description
}

// Collapse folds included records into aggregate groups keyed by
// canonical description. Groups come back sorted by description with a
// case-insensitive comparator; this ordering is part of the contract of
// the written CSV and report.
func Collapse(records []api.ExpenseRecord, aliases []Alias) []api.AggregateGroup {
	byName := make(map[string]api.AggregateGroup)
	for _, rec := range records {
		canonical := Normalize(rec.Description, aliases)
		if group, ok := byName[canonical]; ok {
			byName[canonical] = group.AddRecord(rec)
		} else {
			byName[canonical] = api.NewAggregateGroup(canonical, rec)
		}
	}

	groups := make([]api.AggregateGroup, 0, len(byName))
	for _, group := range byName {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		a := strings.ToLower(groups[i].Description)
		b := strings.ToLower(groups[j].Description)
		if a == b {
			return groups[i].Description < groups[j].Description
		}
		return a < b
	})

	return groups
}
