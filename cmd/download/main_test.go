package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/execx"
)

func testApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	t.Helper()
	app := cli.NewApp()
	app.Logger = zap.NewNop()
	var out bytes.Buffer
	app.Stdout = &out
	app.Config.LedgerPath = ""
	app.Config.TranscriptDir = filepath.Join(t.TempDir(), "Transcript")
	return app, &out
}

func TestDryRunPrintsCommands(t *testing.T) {
	app, out := testApp(t)
	app.Config.Download.Sources = []execx.Source{
		{Channel: "Doki", Type: "Members", URL: "https://www.youtube.com/Doki/membership"},
		{Channel: "Doki", Type: "Twitch", URL: "https://www.twitch.tv/doki/videos"},
	}

	require.NoError(t, runDownload(context.Background(), app, nil, options{dryRun: true}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "--cookies-from-browser firefox")
	assert.True(t, strings.HasSuffix(lines[1], "https://www.twitch.tv/doki/videos"))
	assert.NotContains(t, lines[1], "--write-thumbnail")
}

func TestInvalidSources(t *testing.T) {
	app, _ := testApp(t)
	app.Config.Download.Sources = []execx.Source{{Channel: "Doki"}}
	err := runDownload(context.Background(), app, nil, options{dryRun: true})
	assert.Error(t, err)
}

func TestListArchived(t *testing.T) {
	app, out := testApp(t)
	app.Config.ArchiveFile = filepath.Join(t.TempDir(), "archive.txt")
	require.NoError(t, os.WriteFile(app.Config.ArchiveFile, []byte("youtube a\nyoutube b\ntwitch:vod c\n"), 0644))

	require.NoError(t, listArchived(app))
	assert.Contains(t, out.String(), "twitch:vod")
	assert.Contains(t, out.String(), "total")
	assert.Regexp(t, `youtube\s+2`, out.String())
}
