package wordfix

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"vodkeeper/internal/filename"
)

// Stats counts the outcome of a Run.
type Stats struct {
	Scanned       int
	Changed       int
	Unchanged     int
	SkippedDate   int
	SkippedName   int
	Failed        int
	FailedDetails []string
}

// Progress receives per-file updates while Run works.
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

// Fixer applies a Table to transcript files.
type Fixer struct {
	Table    Table
	Filter   filename.Filter
	DryRun   bool
	Logger   *zap.Logger
	Progress Progress
}

// FixFile rewrites path when the table changes its content. It reports
// whether the file changed.
func (f *Fixer) FixFile(path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	original := string(b)
	fixed := f.Table.Apply(original)
	if fixed == original {
		return false, nil
	}
	if f.DryRun {
		return true, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(fixed), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// Collect lists the .srt files under dir that pass the filter.
func (f *Fixer) Collect(dir string) ([]string, Stats, error) {
	var stats Stats
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !filename.IsTranscript(d.Name()) {
			return nil
		}
		stats.Scanned++
		switch _, decision := f.Filter.Decide(d.Name()); decision {
		case filename.SkipDate:
			stats.SkippedDate++
		case filename.SkipUnparseable:
			stats.SkippedName++
		default:
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return paths, stats, nil
}

// Run fixes every selected transcript under dir. Per-file failures are
// counted and never stop the batch.
func (f *Fixer) Run(dir string) (Stats, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	progress := f.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	paths, stats, err := f.Collect(dir)
	if err != nil {
		return stats, err
	}
	logger.Info("collected transcripts",
		zap.Int("selected", len(paths)),
		zap.Int("skipped_date", stats.SkippedDate),
		zap.Int("skipped_unparseable", stats.SkippedName))

	progress.Start(len(paths))
	for _, path := range paths {
		changed, err := f.FixFile(path)
		switch {
		case err != nil:
			stats.Failed++
			stats.FailedDetails = append(stats.FailedDetails, err.Error())
			progress.Println(fmt.Sprintf("Error processing %s: %v", path, err))
		case changed:
			stats.Changed++
			logger.Debug("fixed transcript", zap.String("path", path))
		default:
			stats.Unchanged++
		}
		progress.Increment()
	}
	progress.Done()
	return stats, nil
}
