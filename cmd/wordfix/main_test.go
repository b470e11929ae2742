package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
)

func testApp(t *testing.T, dir string) (*cli.App, *bytes.Buffer) {
	t.Helper()
	app := cli.NewApp()
	app.Logger = zap.NewNop()
	app.Config.LedgerPath = ""
	app.Config.TranscriptDir = dir
	var out bytes.Buffer
	app.Stdout = &out
	app.Stderr = io.Discard
	return app, &out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRunWordfix(t *testing.T) {
	dir := t.TempDir()
	recent := filepath.Join(dir, "Doki", "20250115 - Stream - Chatting - [abc].srt")
	old := filepath.Join(dir, "Doki", "20240101 - Stream - Old - [def].srt")
	odd := filepath.Join(dir, "Doki", "notes.srt")
	writeFile(t, recent, "1\n00:00:01,000 --> 00:00:02,000\nWhat the f**k\n")
	writeFile(t, old, "1\n00:00:01,000 --> 00:00:02,000\nSh** happens\n")
	writeFile(t, odd, "d**n\n")

	app, out := testApp(t, dir)
	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	err := runWordfix(context.Background(), app, options{days: 30, policy: "exclude"}, now)
	require.NoError(t, err)

	b, err := os.ReadFile(recent)
	require.NoError(t, err)
	assert.Contains(t, string(b), "What the fuck")

	b, err = os.ReadFile(old)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Sh** happens")

	assert.Contains(t, out.String(), "--- Word Fix Complete ---")
	assert.Regexp(t, `Transcripts scanned:\s+3`, out.String())
	assert.Regexp(t, `Files changed:\s+1`, out.String())
	assert.Regexp(t, `Skipped \(date\):\s+1`, out.String())
	assert.Regexp(t, `Skipped \(unparseable\):\s+1`, out.String())
}

func TestRunWordfix_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20250115 - Stream - Chatting - [abc].srt")
	writeFile(t, path, "a**\n")

	app, out := testApp(t, dir)
	err := runWordfix(context.Background(), app, options{dryRun: true, noProgress: true, policy: "exclude"}, time.Now())
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a**\n", string(b))
	assert.Regexp(t, `Files that would change:\s+1`, out.String())
}

func TestRunWordfix_ShadowingRules(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	writeFile(t, rules, "rules:\n  - from: \"f**\"\n    to: \"fuck\"\n  - from: \"f**k\"\n    to: \"fuck\"\n")

	app, _ := testApp(t, dir)
	err := runWordfix(context.Background(), app, options{rules: rules, policy: "exclude", noProgress: true}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--allow-conflicts")

	err = runWordfix(context.Background(), app, options{rules: rules, policy: "exclude", noProgress: true, allowConflicts: true}, time.Now())
	assert.NoError(t, err)
}

func TestRunWordfix_BadPolicy(t *testing.T) {
	app, _ := testApp(t, t.TempDir())
	err := runWordfix(context.Background(), app, options{policy: "sometimes"}, time.Now())
	var ue *cli.UsageError
	assert.ErrorAs(t, err, &ue)
}
