package organize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuckets_Folder(t *testing.T) {
	b := DefaultBuckets
	assert.Equal(t, "2024", b.Folder(2019))
	assert.Equal(t, "2024", b.Folder(2023))
	assert.Equal(t, "2024", b.Folder(2024))
	assert.Equal(t, "2025", b.Folder(2025))
	assert.Equal(t, "", b.Folder(2026))

	_, ok := b.FolderFor("notes.txt")
	assert.False(t, ok)
	_, ok = b.FolderFor("202")
	assert.False(t, ok)
}

func TestBuckets_Validate(t *testing.T) {
	assert.NoError(t, DefaultBuckets.Validate())
	assert.Error(t, Buckets{Floor: 2025, Ceiling: 2024}.Validate())
}

func setup(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	ch := filepath.Join(base, "Dokibird")
	require.NoError(t, os.MkdirAll(filepath.Join(ch, "2024"), 0755))
	for _, name := range []string{
		"20230615 - Video - Summer - [a].srt",
		"20250101 - Stream - NY - [b].srt",
		"20260101 - Stream - Future - [c].srt",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(ch, name), []byte("x"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "20230101 - loose.srt"), []byte("x"), 0644))
	return base
}

func TestPlan(t *testing.T) {
	base := setup(t)

	moves, err := Plan(base, DefaultBuckets)
	require.NoError(t, err)

	var got []string
	for _, m := range moves {
		got = append(got, m.Folder+"/"+m.Name)
	}
	want := []string{
		"2024/20230615 - Video - Summer - [a].srt",
		"2025/20250101 - Stream - NY - [b].srt",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan (-want +got):\n%s", diff)
	}

	// Planning is a dry run: nothing moves.
	_, err = os.Stat(filepath.Join(base, "Dokibird", "20230615 - Video - Summer - [a].srt"))
	assert.NoError(t, err)
}

func TestExecute(t *testing.T) {
	base := setup(t)
	moves, err := Plan(base, DefaultBuckets)
	require.NoError(t, err)

	var seen []string
	n, err := Execute(moves, func(m Move) { seen = append(seen, m.Name) })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, seen, 2)

	_, err = os.Stat(filepath.Join(base, "Dokibird", "2024", "20230615 - Video - Summer - [a].srt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "Dokibird", "2025", "20250101 - Stream - NY - [b].srt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "Dokibird", "20260101 - Stream - Future - [c].srt"))
	assert.NoError(t, err, "years past the ceiling stay in place")
}

func TestExecute_NoOverwrite(t *testing.T) {
	base := setup(t)
	target := filepath.Join(base, "Dokibird", "2024", "20230615 - Video - Summer - [a].srt")
	require.NoError(t, os.WriteFile(target, []byte("existing"), 0644))

	moves, err := Plan(base, DefaultBuckets)
	require.NoError(t, err)
	n, err := Execute(moves, nil)

	assert.Equal(t, 1, n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))
	b, _ := os.ReadFile(target)
	assert.Equal(t, "existing", string(b))
}
