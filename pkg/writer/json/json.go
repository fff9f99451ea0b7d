// Package json implements a GroupSink that archives aggregate groups to
// a local JSON file, appending across runs.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jdaniels/expensedigest/pkg/api"
)

// entry is one archived aggregate group.
type entry struct {
	Source      string              `json:"source"`
	Description string              `json:"description"`
	TotalAmount string              `json:"total_amount"`
	ValueDates  []string            `json:"value_dates"`
	Records     []api.ExpenseRecord `json:"records"`
}

// Sink appends aggregate groups to a JSON file.
type Sink struct {
	filePath string
	entries  []entry
	mu       sync.Mutex
	logger   *slog.Logger
}

// Config holds configuration for the JSON sink.
type Config struct {
	// FilePath is the path to the JSON archive file.
	FilePath string
}

// New creates a JSON sink, loading any existing archive so that new runs
// append rather than overwrite.
func New(cfg Config, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sink{
		filePath: cfg.FilePath,
		logger:   logger,
	}

	if err := s.loadExisting(); err != nil {
		logger.Warn("could not load existing archive", "file", cfg.FilePath, "error", err)
	}

	logger.Info("json sink initialized", "file", cfg.FilePath, "existing_count", len(s.entries))
	return s, nil
}

func (s *Sink) loadExisting() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &s.entries)
}

// Name implements api.GroupSink.
func (s *Sink) Name() string { return "json" }

// Archive appends the groups and rewrites the archive file. JSON has no
// append mode, so the whole array is rewritten each time.
func (s *Sink) Archive(_ context.Context, source string, groups []api.AggregateGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range groups {
		s.entries = append(s.entries, entry{
			Source:      source,
			Description: g.Description,
			TotalAmount: g.Total.StringFixed(2),
			ValueDates:  g.Dates(),
			Records:     g.Sources,
		})
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling archive: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0o600); err != nil {
		return fmt.Errorf("writing archive file: %w", err)
	}

	s.logger.Debug("archived groups to json",
		"source", source,
		"batch_count", len(groups),
		"total_count", len(s.entries),
	)
	return nil
}

// Count returns the total number of archived groups.
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
