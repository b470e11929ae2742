package upload

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vodkeeper/internal/archiveapi"
	"vodkeeper/internal/db"
	"vodkeeper/internal/filename"
)

type fakeSender struct {
	sent []archiveapi.Transcript
	fail map[string]error
}

func (f *fakeSender) Upload(_ context.Context, t archiveapi.Transcript) error {
	if err := f.fail[t.ID]; err != nil {
		return err
	}
	f.sent = append(f.sent, t)
	return nil
}

type fakeRecorder struct {
	attempts []*db.Upload
}

func (f *fakeRecorder) RecordUpload(_ context.Context, u *db.Upload) error {
	f.attempts = append(f.attempts, u)
	return nil
}

type printed struct {
	lines []string
}

func (p *printed) Start(int)  {}
func (p *printed) Increment() {}
func (p *printed) Done()      {}

func (p *printed) Println(a ...any) {
	p.lines = append(p.lines, a[0].(string))
}

func tree(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	files := map[string]string{
		"Doki/20240102 - Stream - Old - [old].srt":        "old",
		"Doki/2025/20250105 - Stream - New - [new].srt":   "new",
		"Doki/20250106 - Video - Broken - [bad].srt":      "bad",
		"Mint/20250107 - Members - Karaoke - [kar].srt":   "kar",
		"Mint/notes.srt":                                  "junk",
		"Mint/20251301 - Stream - Impossible - [imp].srt": "imp",
		"loose at root - [x].srt":                         "ignored",
	}
	for rel, content := range files {
		path := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return base
}

func TestRun_FilterAndCounts(t *testing.T) {
	base := tree(t)
	sender := &fakeSender{fail: map[string]error{
		"bad": &archiveapi.StatusError{Method: "POST", URL: "http://x/transcript", Code: 500, Body: "boom"},
	}}
	rec := &fakeRecorder{}
	lines := &printed{}

	sel := filename.Selection{Days: 30}
	f, err := sel.Filter(time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC), filename.Include)
	require.NoError(t, err)

	u := &Uploader{Sender: sender, Filter: f, Recorder: rec, Progress: lines, Logger: zap.NewNop()}
	res, err := u.Run(context.Background(), base)
	require.NoError(t, err)

	// new, kar sent; bad failed upstream; notes + impossible date fail to parse; old skipped
	assert.Equal(t, Result{Succeeded: 2, Failed: 3, Skipped: 1}, res)

	var ids []string
	for _, s := range sender.sent {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"kar", "new"}, ids)

	for _, s := range sender.sent {
		if s.ID == "new" {
			assert.Equal(t, "Doki", s.Streamer)
			assert.Equal(t, "2025-01-05", s.Date)
			assert.Equal(t, "New", s.StreamTitle)
			assert.Equal(t, "new", s.SRT)
		}
	}

	assert.Len(t, rec.attempts, 5)
	var httpFailures int
	for _, a := range rec.attempts {
		if a.HTTPStatus != nil {
			httpFailures++
			assert.Equal(t, 500, *a.HTTPStatus)
			assert.Equal(t, db.UploadFailed, a.Status)
		}
	}
	assert.Equal(t, 1, httpFailures)

	assert.Contains(t, lines.lines, "-> HTTP ERROR for 20250106 - Video - Broken - [bad].srt: 500 - boom")
	assert.Contains(t, lines.lines, "-> Skipping file (does not match pattern): notes.srt")
	assert.Contains(t, lines.lines, "-> Skipping file (invalid date format): 20251301 - Stream - Impossible - [imp].srt")
}

func TestRun_UnparseablePolicy(t *testing.T) {
	counts := map[filename.Policy]Result{}
	recorded := map[filename.Policy]int{}
	for _, policy := range []filename.Policy{filename.Include, filename.Exclude} {
		base := tree(t)
		rec := &fakeRecorder{}
		u := &Uploader{
			Sender:   &fakeSender{},
			Filter:   filename.Filter{Prefix: "2025", Unparseable: policy},
			Recorder: rec,
			Logger:   zap.NewNop(),
		}
		res, err := u.Run(context.Background(), base)
		require.NoError(t, err)
		counts[policy] = res
		recorded[policy] = len(rec.attempts)
	}

	// notes.srt and the impossible date fail under include, drop out under exclude
	assert.Equal(t, Result{Succeeded: 3, Failed: 2, Skipped: 1}, counts[filename.Include])
	assert.Equal(t, Result{Succeeded: 3, Failed: 0, Skipped: 3}, counts[filename.Exclude])
	assert.Equal(t, 5, recorded[filename.Include])
	assert.Equal(t, 3, recorded[filename.Exclude])
}

func TestRun_NilLogger(t *testing.T) {
	base := tree(t)
	u := &Uploader{Sender: &fakeSender{}, Filter: filename.Filter{Prefix: "2025"}}

	var res Result
	var err error
	require.NotPanics(t, func() {
		res, err = u.Run(context.Background(), base)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)
}

func TestRun_AllWithoutFilter(t *testing.T) {
	base := tree(t)
	sender := &fakeSender{}
	u := &Uploader{Sender: sender, Logger: zap.NewNop()}

	res, err := u.Run(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, res.Skipped)
}

func TestRun_MissingBase(t *testing.T) {
	u := &Uploader{Sender: &fakeSender{}, Logger: zap.NewNop()}
	_, err := u.Run(context.Background(), filepath.Join(t.TempDir(), "Transcript"))
	assert.Error(t, err)
}
