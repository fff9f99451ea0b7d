package json

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdaniels/expensedigest/pkg/aggregate"
	"github.com/jdaniels/expensedigest/pkg/api"
)

func groups(t *testing.T) []api.AggregateGroup {
	t.Helper()
	return aggregate.Collapse([]api.ExpenseRecord{
		{ValueDate: "2025-06-28", Description: "Uber JOHANNESBURG ZA", Amount: "-91.00"},
		{ValueDate: "2025-06-27", Description: "Uber CAPE TOWN", Amount: "-104.00"},
	}, aggregate.DefaultAliases)
}

func TestSink_ArchiveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.json")
	logger := slog.New(slog.DiscardHandler)

	first, err := New(Config{FilePath: path}, logger)
	require.NoError(t, err)
	assert.Equal(t, "json", first.Name())

	require.NoError(t, first.Archive(context.Background(), "june.eml", groups(t)))
	assert.Equal(t, 1, first.Count())

	// A second sink on the same file appends instead of overwriting.
	second, err := New(Config{FilePath: path}, logger)
	require.NoError(t, err)
	require.NoError(t, second.Archive(context.Background(), "july.eml", groups(t)))
	assert.Equal(t, 2, second.Count())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "june.eml", entries[0]["source"])
	assert.Equal(t, "Uber", entries[0]["description"])
	assert.Equal(t, "-195.00", entries[0]["total_amount"])
}
