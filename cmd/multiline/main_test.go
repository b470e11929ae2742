package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
)

const (
	single = "1\n00:00:01,000 --> 00:00:02,000\nhello\n\n2\n00:00:03,000 --> 00:00:04,000\nworld\n"
	multi  = "1\n00:00:01,000 --> 00:00:02,000\nhello\nthere\n"
)

func setup(t *testing.T, files map[string]string) (*cli.App, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	app := cli.NewApp()
	app.Logger = zap.NewNop()
	app.Config.TranscriptDir = dir
	var out bytes.Buffer
	app.Stdout = &out
	return app, &out
}

func TestRunMultiline_First(t *testing.T) {
	app, out := setup(t, map[string]string{"a.srt": multi, "b.srt": multi, "c.srt": single})
	require.NoError(t, runMultiline(app, options{}))
	assert.Equal(t, 1, strings.Count(out.String(), "Match found:"))
	assert.Contains(t, out.String(), "a.srt")
}

func TestRunMultiline_All(t *testing.T) {
	app, out := setup(t, map[string]string{"a.srt": multi, "b.srt": multi, "c.srt": single})
	require.NoError(t, runMultiline(app, options{all: true}))
	assert.Equal(t, 2, strings.Count(out.String(), "Match found:"))
	assert.NotContains(t, out.String(), "c.srt")
}

func TestRunMultiline_None(t *testing.T) {
	app, out := setup(t, map[string]string{"c.srt": single})
	require.NoError(t, runMultiline(app, options{}))
	assert.Contains(t, out.String(), "No multi-line .srt files found.")
}
