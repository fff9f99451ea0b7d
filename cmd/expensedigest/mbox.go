package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-mbox"

	"github.com/jdaniels/expensedigest/pkg/api"
	"github.com/jdaniels/expensedigest/pkg/config"
	"github.com/jdaniels/expensedigest/pkg/storage"
)

const mboxImportPrefix = "inbox"

// runImport handles the mbox subcommand: it stores every message of the
// mbox file in the data directory and processes them as one batch.
func runImport(ctx context.Context, logger *slog.Logger, mboxPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := storage.NewDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening data directory: %w", err)
	}

	keys, err := importMbox(ctx, store, mboxPath)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("no messages found in %s", mboxPath)
	}
	logger.Info("imported mbox file", "file", mboxPath, "messages", len(keys))

	return processKeys(ctx, logger, cfg, keys)
}

// importMbox stores every message of the mbox file as a separate object
// under the inbox prefix and returns the stored keys in file order.
func importMbox(ctx context.Context, store api.Store, mboxPath string) ([]string, error) {
	f, err := os.Open(mboxPath)
	if err != nil {
		return nil, fmt.Errorf("opening mbox file: %w", err)
	}
	defer f.Close()

	stem := strings.TrimSuffix(filepath.Base(mboxPath), filepath.Ext(mboxPath))
	reader := mbox.NewReader(f)

	var keys []string
	for i := 0; ; i++ {
		msg, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading message %d: %w", i, err)
		}

		body, err := io.ReadAll(msg)
		if err != nil {
			return nil, fmt.Errorf("reading message %d body: %w", i, err)
		}

		key := fmt.Sprintf("%s/%s_%03d.eml", mboxImportPrefix, stem, i)
		if err := store.Put(ctx, key, "message/rfc822", body); err != nil {
			return nil, fmt.Errorf("storing message %d: %w", i, err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}
