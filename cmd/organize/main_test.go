package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
)

func setup(t *testing.T) (*cli.App, *bytes.Buffer, string) {
	t.Helper()
	base := t.TempDir()
	ch := filepath.Join(base, "Doki")
	require.NoError(t, os.MkdirAll(ch, 0755))
	for _, name := range []string{
		"20230105 - Stream - Old - [a].srt",
		"20250301 - Stream - New - [b].srt",
		"20260101 - Stream - Future - [c].srt",
		"readme.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(ch, name), nil, 0644))
	}

	app := cli.NewApp()
	app.Logger = zap.NewNop()
	app.Config.LedgerPath = ""
	var out bytes.Buffer
	app.Stdout = &out
	return app, &out, base
}

func TestRunOrganize_DryRun(t *testing.T) {
	app, out, base := setup(t)
	require.NoError(t, runOrganize(context.Background(), app, options{path: base}))

	assert.Contains(t, out.String(), "[DRY RUN] Would move Doki/20230105 - Stream - Old - [a].srt -> Doki/2024/")
	assert.Contains(t, out.String(), "[DRY RUN] Would move Doki/20250301 - Stream - New - [b].srt -> Doki/2025/")
	assert.NotContains(t, out.String(), "Future")
	assert.FileExists(t, filepath.Join(base, "Doki", "20230105 - Stream - Old - [a].srt"))
}

func TestRunOrganize_Execute(t *testing.T) {
	app, out, base := setup(t)
	require.NoError(t, runOrganize(context.Background(), app, options{path: base, execute: true}))

	assert.FileExists(t, filepath.Join(base, "Doki", "2024", "20230105 - Stream - Old - [a].srt"))
	assert.FileExists(t, filepath.Join(base, "Doki", "2025", "20250301 - Stream - New - [b].srt"))
	assert.FileExists(t, filepath.Join(base, "Doki", "20260101 - Stream - Future - [c].srt"))
	assert.Contains(t, out.String(), "Moved 2 file(s).")
}

func TestRunOrganize_CeilingFlag(t *testing.T) {
	app, _, base := setup(t)
	require.NoError(t, runOrganize(context.Background(), app, options{path: base, execute: true, ceiling: 2026}))
	assert.FileExists(t, filepath.Join(base, "Doki", "2026", "20260101 - Stream - Future - [c].srt"))
}

func TestRunOrganize_BadBuckets(t *testing.T) {
	app, _, base := setup(t)
	err := runOrganize(context.Background(), app, options{path: base, floor: 2026, ceiling: 2025})
	var ue *cli.UsageError
	assert.ErrorAs(t, err, &ue)
}
