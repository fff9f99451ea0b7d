// Package sheets implements a GroupSink that appends aggregate groups to
// a Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jdaniels/expensedigest/pkg/api"
)

// Sink appends aggregate groups to a Google Sheet.
type Sink struct {
	client      *sheets.Service
	spreadsheet *sheets.Spreadsheet
	sheetName   string
	logger      *slog.Logger
}

// Config holds configuration for the Sheets sink.
type Config struct {
	// SheetTitle is the title for a new spreadsheet (if SheetID is empty).
	SheetTitle string
	// SheetID is the ID of an existing spreadsheet to use.
	SheetID string
	// SheetName is the name of the sheet within the spreadsheet.
	SheetName string
}

// New creates a Sheets sink, reusing the configured spreadsheet or
// creating a fresh one with a header row.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := sheets.NewService(context.Background(), option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	s := &Sink{
		client:    client,
		sheetName: cfg.SheetName,
		logger:    logger,
	}

	spreadsheet, err := s.initSpreadsheet(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing spreadsheet: %w", err)
	}
	s.spreadsheet = spreadsheet

	logger.Info("sheets sink initialized", "spreadsheet_id", spreadsheet.SpreadsheetId)
	return s, nil
}

func (s *Sink) initSpreadsheet(ctx context.Context, cfg Config) (*sheets.Spreadsheet, error) {
	if cfg.SheetID != "" {
		spreadsheet, err := s.client.Spreadsheets.Get(cfg.SheetID).Context(ctx).Do()
		if err == nil {
			s.logger.Info("using existing spreadsheet", "title", spreadsheet.Properties.Title, "id", cfg.SheetID)
			return spreadsheet, nil
		}
		s.logger.Warn("failed to get spreadsheet, will create new one", "id", cfg.SheetID, "error", err)
	}

	spreadsheet, err := s.client.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: cfg.SheetTitle,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet: %w", err)
	}

	s.logger.Info("created new spreadsheet", "title", cfg.SheetTitle, "id", spreadsheet.SpreadsheetId)

	if err := s.writeHeaders(ctx, spreadsheet.SpreadsheetId, cfg.SheetName); err != nil {
		return nil, fmt.Errorf("writing headers: %w", err)
	}

	return spreadsheet, nil
}

func (s *Sink) writeHeaders(ctx context.Context, spreadsheetID, sheetName string) error {
	headerRange := fmt.Sprintf("%s!A1:E1", sheetName)
	headerReq := sheets.ValueRange{
		Values: [][]any{
			{"Value Dates", "Description", "Total Amount", "Transactions", "Source"},
		},
	}

	_, err := s.client.Spreadsheets.Values.Update(spreadsheetID, headerRange, &headerReq).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating headers: %w", err)
	}
	return nil
}

// Name implements api.GroupSink.
func (s *Sink) Name() string { return "sheets" }

// Archive appends one row per aggregate group in a single API call,
// retrying when the Sheets API rate-limits us.
func (s *Sink) Archive(ctx context.Context, source string, groups []api.AggregateGroup) error {
	if len(groups) == 0 {
		return nil
	}

	values := make([][]any, 0, len(groups))
	for _, g := range groups {
		values = append(values, []any{
			g.LatestDate(),
			g.Description,
			g.Total.StringFixed(2),
			len(g.Sources),
			source,
		})
	}

	writeRange := fmt.Sprintf("%s!A2:E2", s.sheetName)
	writeReq := sheets.ValueRange{Values: values}

	err := retry.Do(
		func() error {
			_, err := s.client.Spreadsheets.Values.Append(s.spreadsheet.SpreadsheetId, writeRange, &writeReq).
				ValueInputOption("USER_ENTERED").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			return err
		},
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				s.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(3),
		retry.Delay(60*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("appending groups to sheet: %w", err)
	}

	s.logger.Info("archived groups to sheet", "source", source, "count", len(groups))
	return nil
}

// SpreadsheetID returns the ID of the spreadsheet being written to.
func (s *Sink) SpreadsheetID() string {
	if s.spreadsheet == nil {
		return ""
	}
	return s.spreadsheet.SpreadsheetId
}
