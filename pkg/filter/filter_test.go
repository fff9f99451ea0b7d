package filter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdaniels/expensedigest/pkg/api"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("object not found")
}

func (failingStore) Put(context.Context, string, string, []byte) error {
	return errors.New("read-only")
}

type staticStore map[string][]byte

func (s staticStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (s staticStore) Put(_ context.Context, key, _ string, data []byte) error {
	s[key] = data
	return nil
}

func TestParsePatterns(t *testing.T) {
	input := strings.Join([]string{
		"# transfers between own accounts",
		"INTERNAL TRANSFER",
		"",
		"  savings sweep  ",
		"#commented out",
	}, "\n")

	patterns, err := ParsePatterns(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, PatternSet{"internal transfer", "savings sweep"}, patterns)
}

func TestLoadPatterns_MissingDegradesToEmpty(t *testing.T) {
	patterns := LoadPatterns(context.Background(), failingStore{}, "filter-config.txt", discard())
	assert.Empty(t, patterns)
}

func TestLoadPatterns_FromStore(t *testing.T) {
	store := staticStore{"filter-config.txt": []byte("UBER\n# skip\nFEE\n")}
	patterns := LoadPatterns(context.Background(), store, "filter-config.txt", discard())
	assert.Equal(t, PatternSet{"uber", "fee"}, patterns)
}

func TestClassify_PatternBeatsSign(t *testing.T) {
	patterns := PatternSet{"refund dept"}
	rec := api.ExpenseRecord{ValueDate: "2025-06-28", Description: "REFUND DEPT CREDIT", Amount: "99.00"}

	reason, excluded := Classify(rec, patterns, discard())
	require.True(t, excluded)
	assert.Equal(t, api.ReasonPatternMatch, reason)
}

func TestClassify_PositiveAmount(t *testing.T) {
	rec := api.ExpenseRecord{ValueDate: "2025-06-28", Description: "SALARY", Amount: "1500.00"}

	reason, excluded := Classify(rec, nil, discard())
	require.True(t, excluded)
	assert.Equal(t, api.ReasonPositiveAmount, reason)
}

func TestClassify_NegativeIncluded(t *testing.T) {
	rec := api.ExpenseRecord{ValueDate: "2025-06-28", Description: "CHECKERS", Amount: "-50.00"}

	_, excluded := Classify(rec, nil, discard())
	assert.False(t, excluded)
}

func TestClassify_ZeroIncluded(t *testing.T) {
	rec := api.ExpenseRecord{Description: "CARD CHECK", Amount: "0.00"}

	_, excluded := Classify(rec, nil, discard())
	assert.False(t, excluded)
}

func TestClassify_UnparsableAmountIncluded(t *testing.T) {
	rec := api.ExpenseRecord{Description: "GARBLED", Amount: "N/A"}

	_, excluded := Classify(rec, nil, discard())
	assert.False(t, excluded, "unparsable amounts are treated as non-positive")
}

func TestPartition(t *testing.T) {
	patterns := PatternSet{"internal transfer"}
	records := []api.ExpenseRecord{
		{ValueDate: "2025-06-28", Description: "Uber JOHANNESBURG ZA", Amount: "-91.00"},
		{ValueDate: "2025-06-27", Description: "INTERNAL TRANSFER TO SAVINGS", Amount: "-500.00"},
		{ValueDate: "2025-06-26", Description: "REFUND", Amount: "25.00"},
		{ValueDate: "2025-06-25", Description: "WOOLWORTHS CAPE TOWN", Amount: "-142.07"},
	}

	included, excluded := Partition(records, patterns, discard())
	require.Len(t, included, 2)
	assert.Equal(t, "Uber JOHANNESBURG ZA", included[0].Description)
	assert.Equal(t, "WOOLWORTHS CAPE TOWN", included[1].Description)

	require.Len(t, excluded, 2)
	assert.Equal(t, api.ReasonPatternMatch, excluded[0].Reason)
	assert.Equal(t, api.ReasonPositiveAmount, excluded[1].Reason)
}
