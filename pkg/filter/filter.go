// Package filter implements the two-stage exclusion filter: a merchant
// blocklist followed by sign-based exclusion of credits.
package filter

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jdaniels/expensedigest/pkg/api"
)

// PatternSet is a set of case-insensitive substrings; any transaction
// description containing one is excluded from expense totals. Entries
// are stored lower-cased.
type PatternSet []string

// ParsePatterns reads blocklist patterns, one per line. Blank lines and
// lines starting with '#' are ignored; the rest are trimmed.
func ParsePatterns(r io.Reader) (PatternSet, error) {
	var patterns PatternSet

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

// LoadPatterns fetches the blocklist object and parses it. A missing or
// unreadable blocklist degrades to an empty set with a warning; filtering
// never aborts a run.
func LoadPatterns(ctx context.Context, store api.Store, key string, logger *slog.Logger) PatternSet {
	data, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("blocklist unavailable, proceeding with empty set", "key", key, "error", err)
		return nil
	}

	patterns, err := ParsePatterns(strings.NewReader(string(data)))
	if err != nil {
		logger.Warn("blocklist unreadable, proceeding with empty set", "key", key, "error", err)
		return nil
	}

	logger.Info("loaded blocklist", "key", key, "patterns", len(patterns))
	return patterns
}

// Matches reports whether the description contains any blocklist entry,
// case-insensitively, and returns the entry that matched.
func (p PatternSet) Matches(description string) (string, bool) {
	folded := strings.ToLower(description)
	for _, pattern := range p {
		if strings.Contains(folded, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// Classify decides whether a record is included in expense totals. The
// pattern check runs before the sign check so that a record matching
// both is attributed to pattern-match. An amount that does not parse as
// a decimal is treated as non-positive: the record stays included and
// the parse failure is only logged.
func Classify(rec api.ExpenseRecord, patterns PatternSet, logger *slog.Logger) (api.ExclusionReason, bool) {
	if pattern, ok := patterns.Matches(rec.Description); ok {
		logger.Info("excluding record",
			"reason", api.ReasonPatternMatch,
			"pattern", pattern,
			"description", rec.Description,
			"amount", rec.Amount,
		)
		return api.ReasonPatternMatch, true
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec.Amount))
	if err != nil {
		logger.Warn("unparsable amount, treating as non-positive",
			"description", rec.Description,
			"amount", rec.Amount,
			"error", err,
		)
		return "", false
	}

	if amount.IsPositive() {
		logger.Info("excluding record",
			"reason", api.ReasonPositiveAmount,
			"description", rec.Description,
			"amount", rec.Amount,
		)
		return api.ReasonPositiveAmount, true
	}

	logger.Debug("including record", "description", rec.Description, "amount", rec.Amount)
	return "", false
}

// Partition classifies every record, returning the included records in
// input order and the excluded records paired with their reasons.
func Partition(records []api.ExpenseRecord, patterns PatternSet, logger *slog.Logger) ([]api.ExpenseRecord, []api.FilteredRecord) {
	var included []api.ExpenseRecord
	var excluded []api.FilteredRecord

	for _, rec := range records {
		if reason, drop := Classify(rec, patterns, logger); drop {
			excluded = append(excluded, api.FilteredRecord{Record: rec, Reason: reason})
			continue
		}
		included = append(included, rec)
	}

	return included, excluded
}
