package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
)

func seed(t *testing.T) (*cli.App, *bytes.Buffer, *db.DB, string) {
	t.Helper()
	app := cli.NewApp()
	app.Logger = zap.NewNop()
	app.Config.LedgerPath = filepath.Join(t.TempDir(), "ledger.db")
	var out bytes.Buffer
	app.Stdout = &out

	ledger, err := db.NewDB(app.Config.LedgerPath)
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	ctx := context.Background()
	up, err := ledger.StartRun(ctx, "upload", `{"path":"Transcript"}`)
	require.NoError(t, err)
	code := 409
	msg := "duplicate"
	require.NoError(t, ledger.RecordUpload(ctx, &db.Upload{RunID: up.ID, TranscriptID: "a", Filename: "a.srt", Streamer: "Doki", Status: db.UploadSucceeded}))
	require.NoError(t, ledger.RecordUpload(ctx, &db.Upload{RunID: up.ID, TranscriptID: "b", Filename: "b.srt", Streamer: "Doki", Status: db.UploadFailed, HTTPStatus: &code, ErrorMessage: &msg}))
	require.NoError(t, ledger.CompleteRun(ctx, up.ID, db.Counts{Succeeded: 1, Failed: 1}))

	dl, err := ledger.StartRun(ctx, "download", "")
	require.NoError(t, err)
	require.NoError(t, ledger.FailRun(ctx, dl.ID, db.Counts{}, "yt-dlp not found"))
	return app, &out, ledger, up.ID
}

func TestListRuns(t *testing.T) {
	app, out, ledger, id := seed(t)
	require.NoError(t, listRuns(context.Background(), app, ledger, 10, ""))
	assert.Contains(t, out.String(), id[:8])
	assert.Contains(t, out.String(), "download")
	assert.Contains(t, out.String(), db.StatusFailed)

	out.Reset()
	require.NoError(t, listRuns(context.Background(), app, ledger, 10, "upload"))
	assert.NotContains(t, out.String(), "download")
}

func TestShowRun(t *testing.T) {
	app, out, ledger, id := seed(t)
	require.NoError(t, showRun(context.Background(), app, ledger, id[:8]))
	assert.Contains(t, out.String(), "Tool:      upload")
	assert.Contains(t, out.String(), "Counts:    1 ok, 1 failed, 0 skipped")
	assert.Contains(t, out.String(), "b.srt")
	assert.Contains(t, out.String(), "409")

	err := showRun(context.Background(), app, ledger, "nope")
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestStatsAndFailed(t *testing.T) {
	app, out, ledger, _ := seed(t)
	require.NoError(t, showStats(context.Background(), app, ledger))
	assert.Contains(t, out.String(), "completed")
	assert.Contains(t, out.String(), "AVG DURATION")

	out.Reset()
	require.NoError(t, listFailed(context.Background(), app, ledger, 0))
	assert.Contains(t, out.String(), "duplicate")
	assert.NotContains(t, out.String(), "a.srt")
}

func TestMigrationStatus(t *testing.T) {
	app, out, ledger, _ := seed(t)
	require.NoError(t, migrationStatus(context.Background(), app, ledger))
	assert.Contains(t, out.String(), "Total migrations: 2")
	assert.Contains(t, out.String(), "Pending: 0")
}

func TestWithLedgerDisabled(t *testing.T) {
	app := cli.NewApp()
	app.Config.LedgerPath = ""
	err := withLedger(app, func(*db.DB) error { return nil })
	assert.ErrorContains(t, err, "ledger_path")
}
