// Package pipeline wires the extraction-filter-aggregate stages together
// and drives one synchronous run per storage notification.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/jdaniels/expensedigest/pkg/aggregate"
	"github.com/jdaniels/expensedigest/pkg/api"
	"github.com/jdaniels/expensedigest/pkg/extract"
	"github.com/jdaniels/expensedigest/pkg/filter"
	"github.com/jdaniels/expensedigest/pkg/report"
	"github.com/jdaniels/expensedigest/pkg/statement"
	csvwriter "github.com/jdaniels/expensedigest/pkg/writer/csv"
)

// Content types of the written artifacts.
const (
	csvContentType    = "text/csv; charset=utf-8"
	reportContentType = "text/plain; charset=utf-8"
)

// Pipeline processes statement emails from an object store. Each
// notification is handled end-to-end and independently: runs share no
// mutable state and the blocklist is loaded fresh every time.
type Pipeline struct {
	store        api.Store
	blocklistKey string
	outputPrefix string
	collapse     bool
	aliases      []aggregate.Alias
	sinks        []api.GroupSink
	logger       *slog.Logger
	now          func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithAliases replaces the default merchant alias table.
func WithAliases(aliases []aggregate.Alias) Option {
	return func(p *Pipeline) { p.aliases = aliases }
}

// WithSinks registers group sinks that archive each run's aggregate
// groups. Sink failures are logged and never fail the run.
func WithSinks(sinks ...api.GroupSink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sinks...) }
}

// WithProcessedOutput switches the CSV artifact to the row-per-record
// processed variant instead of the collapsed per-merchant variant.
func WithProcessedOutput() Option {
	return func(p *Pipeline) { p.collapse = false }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline backed by the given store. blocklistKey names
// the blocklist object; outputPrefix is prepended to derived output keys.
func New(store api.Store, blocklistKey, outputPrefix string, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		store:        store,
		blocklistKey: blocklistKey,
		outputPrefix: outputPrefix,
		collapse:     true,
		aliases:      aggregate.DefaultAliases,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes a batch of notifications sequentially and returns the
// invocation summary. A notification whose processing fails is counted
// as unsuccessful and logged; it never aborts the rest of the batch.
func (p *Pipeline) Run(ctx context.Context, notifications []api.Notification) string {
	p.logger.Info("processing storage event", "records", len(notifications))

	processed := 0
	for _, n := range notifications {
		logger := p.logger.With("bucket", n.Bucket, "key", n.Key)
		if err := p.processOne(ctx, n, logger); err != nil {
			logger.Error("processing failed", "error", err)
			continue
		}
		processed++
	}

	summary := fmt.Sprintf("Successfully processed %d of %d records", processed, len(notifications))
	p.logger.Info("batch complete", "summary", summary)
	return summary
}

func (p *Pipeline) processOne(ctx context.Context, n api.Notification, logger *slog.Logger) error {
	body, err := p.store.Get(ctx, n.Key)
	if err != nil {
		return fmt.Errorf("fetching email object: %w", err)
	}

	csvText, ok := extract.EmbeddedCSV(string(body))
	if !ok {
		logger.Warn("no embedded CSV attachment found, skipping file")
		return fmt.Errorf("no embedded CSV in %s", n.Key)
	}

	records, err := statement.Parse(csvText)
	if err != nil {
		return fmt.Errorf("parsing statement: %w", err)
	}

	patterns := filter.LoadPatterns(ctx, p.store, p.blocklistKey, logger)
	included, excluded := filter.Partition(records, patterns, logger)
	groups := aggregate.Collapse(included, p.aliases)

	logger.Info("statement processed",
		"rows", len(records),
		"included", len(included),
		"excluded", len(excluded),
		"groups", len(groups),
	)

	name := baseName(n.Key)
	if err := p.writeCSV(ctx, name, included, groups); err != nil {
		return err
	}
	if err := p.writeReport(ctx, name, records, included, excluded, groups); err != nil {
		return err
	}

	for _, sink := range p.sinks {
		if err := sink.Archive(ctx, name, groups); err != nil {
			logger.Warn("group sink failed", "sink", sink.Name(), "error", err)
		}
	}

	return nil
}

func (p *Pipeline) writeCSV(ctx context.Context, name string, included []api.ExpenseRecord, groups []api.AggregateGroup) error {
	var (
		data []byte
		err  error
		key  string
	)
	if p.collapse {
		data, err = csvwriter.RenderCollapsed(groups)
		key = p.outputKey(name + "_collapsed.csv")
	} else {
		data, err = csvwriter.RenderProcessed(included)
		key = p.outputKey(name + "_processed.csv")
	}
	if err != nil {
		return fmt.Errorf("rendering csv: %w", err)
	}

	if err := p.put(ctx, key, csvContentType, data); err != nil {
		return fmt.Errorf("writing csv artifact: %w", err)
	}
	p.logger.Info("wrote csv artifact", "key", key, "bytes", len(data))
	return nil
}

func (p *Pipeline) writeReport(ctx context.Context, name string, all, included []api.ExpenseRecord, excluded []api.FilteredRecord, groups []api.AggregateGroup) error {
	text := report.Render(report.Data{
		Source:      name,
		GeneratedAt: p.now(),
		TotalRows:   len(all),
		Included:    included,
		Excluded:    excluded,
		Groups:      groups,
	})

	key := p.outputKey(name + "_report.txt")
	if err := p.put(ctx, key, reportContentType, []byte(text)); err != nil {
		return fmt.Errorf("writing report artifact: %w", err)
	}
	p.logger.Info("wrote report artifact", "key", key, "bytes", len(text))
	return nil
}

// put writes through the store with a small retry budget; transient
// storage failures should not cost a whole notification.
func (p *Pipeline) put(ctx context.Context, key, contentType string, data []byte) error {
	return retry.Do(
		func() error {
			return p.store.Put(ctx, key, contentType, data)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
}

func (p *Pipeline) outputKey(file string) string {
	if p.outputPrefix == "" {
		return file
	}
	return p.outputPrefix + "/" + file
}

// baseName strips the path and extension from an object key.
func baseName(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}
