// Package transcribe runs faster-whisper over media files that have no
// transcript yet.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"vodkeeper/internal/execx"
	"vodkeeper/internal/media"
	"vodkeeper/internal/termui"
)

// DefaultTool is the whisper executable name looked up by Resolve.
const DefaultTool = "faster-whisper-xxl"

// Item is one media file and whether its transcript already exists.
type Item struct {
	Path       string
	Transcript string
	Done       bool
}

// Scan finds media under dir and marks those with a sibling .srt as done.
func Scan(dir string) ([]Item, error) {
	paths, err := media.Find(dir)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		srt := media.TranscriptPath(p)
		_, statErr := os.Stat(srt)
		items = append(items, Item{Path: p, Transcript: srt, Done: statErr == nil})
	}
	return items, nil
}

// Pending counts items without a transcript.
func Pending(items []Item) int {
	n := 0
	for _, it := range items {
		if !it.Done {
			n++
		}
	}
	return n
}

// Result counts the outcome of a Run.
type Result struct {
	Total       int
	Existing    int
	Transcribed int
	Failed      int
}

// Transcriber runs whisper one file at a time.
type Transcriber struct {
	Runner  execx.Runner
	Tool    string
	Options execx.WhisperOptions
	Logger  *zap.Logger
	Out     io.Writer
	Styles  termui.Styles
}

// Probe checks the whisper binary before the loop. A missing binary is
// returned as ErrToolNotFound; a non-zero exit is only logged.
func (t *Transcriber) Probe(ctx context.Context) error {
	err := execx.Probe(ctx, t.Tool, "--help")
	if err == nil {
		return nil
	}
	var exitErr *execx.ExitError
	if errors.As(err, &exitErr) {
		t.Logger.Warn("could not verify whisper command, proceeding", zap.Error(err))
		return nil
	}
	return err
}

// Run prints every item, green when transcribed and red when pending,
// and transcribes the pending ones in order.
func (t *Transcriber) Run(ctx context.Context, items []Item) (Result, error) {
	res := Result{Total: len(items)}
	for i, it := range items {
		if it.Done {
			res.Existing++
			fmt.Fprintln(t.Out, t.Styles.OK.Render(it.Path))
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		fmt.Fprintln(t.Out, t.Styles.Pending.Render(it.Path))
		fmt.Fprintf(t.Out, "Transcribing %d out of %d\n", i+1, len(items))

		err := t.Runner.Run(ctx, t.Tool, execx.BuildWhisperArgs(it.Path, t.Options)...)
		var logErr *execx.LogWriteError
		if errors.As(err, &logErr) {
			t.Logger.Warn("failed to write whisper log", zap.String("path", logErr.Path), zap.Error(logErr.Err))
			err = logErr.RunErr
		}
		if err != nil {
			if errors.Is(err, execx.ErrToolNotFound) {
				return res, err
			}
			res.Failed++
			t.Logger.Error("whisper failed", zap.String("file", it.Path), zap.Error(err))
			continue
		}
		res.Transcribed++
	}
	return res, nil
}
