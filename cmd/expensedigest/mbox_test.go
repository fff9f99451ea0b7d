package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdaniels/expensedigest/pkg/storage"
)

const sampleMbox = "From alice@bank.example Mon Jan  1 10:00:00 2024\n" +
	"Subject: Statement one\n" +
	"\n" +
	"first body\n" +
	"\n" +
	"From alice@bank.example Tue Jan  2 10:00:00 2024\n" +
	"Subject: Statement two\n" +
	"\n" +
	"second body\n"

func TestImportMboxSplitsMessages(t *testing.T) {
	dir := t.TempDir()
	mboxPath := filepath.Join(dir, "statements.mbox")
	require.NoError(t, os.WriteFile(mboxPath, []byte(sampleMbox), 0o644))

	store := storage.NewMem()
	keys, err := importMbox(context.Background(), store, mboxPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"inbox/statements_000.eml", "inbox/statements_001.eml"}, keys)

	first, ok := store.Lookup("inbox/statements_000.eml")
	require.True(t, ok)
	assert.Equal(t, "message/rfc822", first.ContentType)
	assert.Contains(t, string(first.Data), "Subject: Statement one")
	assert.NotContains(t, string(first.Data), "second body")

	second, ok := store.Lookup("inbox/statements_001.eml")
	require.True(t, ok)
	assert.Contains(t, string(second.Data), "second body")
}

func TestImportMboxEmptyFile(t *testing.T) {
	dir := t.TempDir()
	mboxPath := filepath.Join(dir, "empty.mbox")
	require.NoError(t, os.WriteFile(mboxPath, nil, 0o644))

	keys, err := importMbox(context.Background(), storage.NewMem(), mboxPath)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestImportMboxMissingFile(t *testing.T) {
	_, err := importMbox(context.Background(), storage.NewMem(), filepath.Join(t.TempDir(), "nope.mbox"))
	assert.Error(t, err)
}
