// Package upload sends local transcripts to the archive server.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"vodkeeper/internal/archiveapi"
	"vodkeeper/internal/catalog"
	"vodkeeper/internal/db"
	"vodkeeper/internal/filename"
)

// Sender is the part of the archive client used here.
type Sender interface {
	Upload(ctx context.Context, t archiveapi.Transcript) error
}

// Recorder stores upload attempts.
type Recorder interface {
	RecordUpload(ctx context.Context, u *db.Upload) error
}

// Progress receives per-file updates.
type Progress interface {
	Start(total int)
	Increment()
	Println(a ...any)
	Done()
}

type nopProgress struct{}

func (nopProgress) Start(int)      {}
func (nopProgress) Increment()     {}
func (nopProgress) Println(...any) {}
func (nopProgress) Done()          {}

// Result counts per-file outcomes.
type Result struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Outcome is the result for a single file.
type Outcome int

const (
	Succeeded Outcome = iota
	Failed
	Skipped
)

// Uploader walks the transcript tree and uploads what the filter keeps.
type Uploader struct {
	Sender   Sender
	Filter   filename.Filter
	Recorder Recorder
	Progress Progress
	Logger   *zap.Logger
}

func (u *Uploader) progress() Progress {
	if u.Progress == nil {
		return nopProgress{}
	}
	return u.Progress
}

func (u *Uploader) logger() *zap.Logger {
	if u.Logger == nil {
		return zap.NewNop()
	}
	return u.Logger
}

// Run uploads every transcript under baseDir. Per-file failures are
// counted; only a walk failure or cancellation returns an error.
func (u *Uploader) Run(ctx context.Context, baseDir string) (Result, error) {
	var res Result
	entries, err := catalog.Walk(baseDir)
	if err != nil {
		return res, err
	}
	u.logger().Info("found transcripts", zap.Int("count", len(entries)), zap.String("selection", u.Filter.Describe()))

	p := u.progress()
	p.Start(len(entries))
	defer p.Done()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		switch u.File(ctx, e) {
		case Succeeded:
			res.Succeeded++
		case Failed:
			res.Failed++
		case Skipped:
			res.Skipped++
		}
		p.Increment()
	}
	return res, nil
}

// File uploads one transcript entry.
func (u *Uploader) File(ctx context.Context, e catalog.Entry) Outcome {
	p := u.progress()

	rec, err := filename.Parse(e.Name)
	if err != nil {
		// A date selection with the exclude policy leaves unparseable
		// names out of the selection instead of failing them.
		if _, d := u.Filter.Decide(e.Name); d == filename.SkipUnparseable {
			u.logger().Debug("unparseable name outside selection", zap.String("file", e.Name), zap.Error(err))
			return Skipped
		}
		switch {
		case errors.Is(err, filename.ErrInvalidDate):
			p.Println(fmt.Sprintf("-> Skipping file (invalid date format): %s", e.Name))
		default:
			p.Println(fmt.Sprintf("-> Skipping file (does not match pattern): %s", e.Name))
		}
		u.record(ctx, e, "", db.UploadFailed, err)
		return Failed
	}

	if u.Filter.DecideRecord(rec) != filename.Keep {
		return Skipped
	}

	b, err := os.ReadFile(e.Path)
	if err != nil {
		p.Println(fmt.Sprintf("-> ERROR reading file %s: %v", e.Path, err))
		u.record(ctx, e, rec.ID, db.UploadFailed, err)
		return Failed
	}

	local := catalog.FromFilename(e.Channel, e.Path, rec)
	err = u.Sender.Upload(ctx, archiveapi.Transcript{Record: local.Record, SRT: string(b)})
	if err != nil {
		var se *archiveapi.StatusError
		if errors.As(err, &se) {
			p.Println(fmt.Sprintf("-> HTTP ERROR for %s: %d - %s", e.Name, se.Code, se.Body))
		} else {
			p.Println(fmt.Sprintf("-> ERROR uploading %s: %v", e.Name, err))
		}
		u.logger().Debug("upload failed", zap.String("file", e.Name), zap.Error(err))
		u.record(ctx, e, rec.ID, db.UploadFailed, err)
		return Failed
	}

	u.record(ctx, e, rec.ID, db.UploadSucceeded, nil)
	return Succeeded
}

func (u *Uploader) record(ctx context.Context, e catalog.Entry, id, status string, uploadErr error) {
	if u.Recorder == nil {
		return
	}
	attempt := &db.Upload{
		TranscriptID: id,
		Filename:     e.Name,
		Streamer:     e.Channel,
		Status:       status,
	}
	if uploadErr != nil {
		msg := uploadErr.Error()
		attempt.ErrorMessage = &msg
		var se *archiveapi.StatusError
		if errors.As(uploadErr, &se) {
			code := se.Code
			attempt.HTTPStatus = &code
		}
	}
	if err := u.Recorder.RecordUpload(ctx, attempt); err != nil {
		u.logger().Warn("failed to record upload", zap.String("file", e.Name), zap.Error(err))
	}
}
