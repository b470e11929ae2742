package db

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "data", "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestLedgerIntegration(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	run, err := database.StartRun(ctx, "upload", `{"days":7}`)
	if err != nil {
		t.Fatalf("Failed to start run: %v", err)
	}
	if run.ID == "" {
		t.Fatal("Run ID should be set after creation")
	}

	code := 500
	msg := "server error"
	attempts := []*Upload{
		{RunID: run.ID, TranscriptID: "abc", Filename: "20240102 - Stream - A - [abc].srt", Streamer: "Doki", Status: UploadSucceeded},
		{RunID: run.ID, TranscriptID: "def", Filename: "20240103 - Stream - B - [def].srt", Streamer: "Doki", Status: UploadFailed, HTTPStatus: &code, ErrorMessage: &msg},
	}
	for _, u := range attempts {
		if err := database.RecordUpload(ctx, u); err != nil {
			t.Fatalf("Failed to record upload: %v", err)
		}
		if u.ID == 0 {
			t.Fatal("Upload ID should be set after creation")
		}
	}

	if err := database.CompleteRun(ctx, run.ID, Counts{Succeeded: 1, Failed: 1}); err != nil {
		t.Fatalf("Failed to complete run: %v", err)
	}

	got, err := database.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("Expected status %s, got %s", StatusCompleted, got.Status)
	}
	if got.Succeeded != 1 || got.Failed != 1 || got.Skipped != 0 {
		t.Fatalf("Unexpected counts: %+v", got)
	}
	if got.FinishedAt == nil || got.DurationSeconds == nil {
		t.Fatal("Completed run should have finish time and duration")
	}
	if got.Parameters == nil || *got.Parameters != `{"days":7}` {
		t.Fatalf("Expected parameters to round-trip, got %v", got.Parameters)
	}

	uploads, err := database.ListUploads(ctx, run.ID)
	if err != nil {
		t.Fatalf("Failed to list uploads: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("Expected 2 uploads, got %d", len(uploads))
	}
	if uploads[1].HTTPStatus == nil || *uploads[1].HTTPStatus != 500 {
		t.Fatalf("Expected http status 500, got %v", uploads[1].HTTPStatus)
	}
	if uploads[0].HTTPStatus != nil {
		t.Fatalf("Expected nil http status, got %v", *uploads[0].HTTPStatus)
	}

	failed, err := database.FailedUploads(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list failed uploads: %v", err)
	}
	if len(failed) != 1 || failed[0].TranscriptID != "def" {
		t.Fatalf("Unexpected failed uploads: %+v", failed)
	}

	last, err := database.LastUpload(ctx, "abc")
	if err != nil {
		t.Fatalf("Failed to get last upload: %v", err)
	}
	if last.Status != UploadSucceeded {
		t.Fatalf("Expected succeeded, got %s", last.Status)
	}

	t.Logf("Ledger integration test passed for run %s", run.ID)
}

func TestFailRunAndStats(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	for i := 0; i < 2; i++ {
		run, err := database.StartRun(ctx, "wordfix", "")
		if err != nil {
			t.Fatalf("Failed to start run: %v", err)
		}
		if err := database.CompleteRun(ctx, run.ID, Counts{Succeeded: 3}); err != nil {
			t.Fatalf("Failed to complete run: %v", err)
		}
	}
	bad, err := database.StartRun(ctx, "verify", "")
	if err != nil {
		t.Fatalf("Failed to start run: %v", err)
	}
	if err := database.FailRun(ctx, bad.ID, Counts{}, "server unreachable"); err != nil {
		t.Fatalf("Failed to fail run: %v", err)
	}

	got, err := database.GetRun(ctx, bad.ID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "server unreachable" {
		t.Fatalf("Expected error message, got %v", got.ErrorMessage)
	}

	stats, err := database.GetRunStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected 2 stat rows, got %d", len(stats))
	}
	if stats[0].Tool != "verify" || stats[0].Status != StatusFailed {
		t.Fatalf("Unexpected first stat row: %+v", stats[0])
	}
	if stats[1].Tool != "wordfix" || stats[1].Count != 2 || stats[1].Succeeded != 6 {
		t.Fatalf("Unexpected second stat row: %+v", stats[1])
	}

	runs, err := database.ListRuns(ctx, 0, "wordfix")
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 wordfix runs, got %d", len(runs))
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	if _, err := database.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := database.CompleteRun(ctx, "missing", Counts{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := database.LastUpload(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMigrationStatus(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	first, err := NewDB(path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	first.Close()

	// reopening must not re-apply anything
	database, err := NewDB(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer database.Close()

	status, err := database.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("Failed to get migration status: %v", err)
	}
	if !reflect.DeepEqual(status.Applied, []int{1, 2}) {
		t.Fatalf("Expected applied [1 2], got %v", status.Applied)
	}
	if len(status.Pending) != 0 || status.Total != 2 {
		t.Fatalf("Unexpected status: %+v", status)
	}
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_second.sql": {Data: []byte("SELECT 2;")},
		"migrations/001_first.sql":  {Data: []byte("SELECT 1;")},
		"migrations/README.md":      {Data: []byte("ignored")},
		"migrations/x_bad.sql":      {Data: []byte("ignored")},
	}
	got, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}
	if len(got) != 2 || got[0].Name != "first" || got[1].Version != 2 {
		t.Fatalf("Unexpected migrations: %+v", got)
	}

	fsys["migrations/002_dupe.sql"] = &fstest.MapFile{Data: []byte("SELECT 3;")}
	if _, err := loadMigrations(fsys); err == nil {
		t.Fatal("Expected duplicate version error")
	}
}

func TestSplitSQLStatements(t *testing.T) {
	sql := "-- header; comment\nCREATE TABLE a (x TEXT DEFAULT ';');\n\nCREATE INDEX i ON a(x);\n"
	got := splitSQLStatements(sql)
	want := []string{"CREATE TABLE a (x TEXT DEFAULT ';')", "CREATE INDEX i ON a(x)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}
