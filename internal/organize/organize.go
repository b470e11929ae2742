// Package organize moves channel transcripts into year folders.
package organize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Buckets maps a file year to a folder name.
type Buckets struct {
	// Floor collects every year up to and including it.
	Floor int
	// Ceiling is the last year that gets its own folder; later years stay put.
	Ceiling int
}

// DefaultBuckets is the layout used by the archive: everything up to 2024
// in 2024/, then 2025/.
var DefaultBuckets = Buckets{Floor: 2024, Ceiling: 2025}

// Validate checks the bucket bounds.
func (b Buckets) Validate() error {
	if b.Floor <= 0 || b.Ceiling <= 0 {
		return errors.New("bucket years must be positive")
	}
	if b.Ceiling < b.Floor {
		return fmt.Errorf("ceiling year %d is before floor year %d", b.Ceiling, b.Floor)
	}
	return nil
}

// Folder returns the folder for year, or "" when the file stays in place.
func (b Buckets) Folder(year int) string {
	switch {
	case year <= b.Floor:
		return strconv.Itoa(b.Floor)
	case year <= b.Ceiling:
		return strconv.Itoa(year)
	default:
		return ""
	}
}

// FolderFor returns the target folder for a filename starting with a
// four digit year.
func (b Buckets) FolderFor(name string) (string, bool) {
	if len(name) < 4 {
		return "", false
	}
	for _, c := range name[:4] {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	year, _ := strconv.Atoi(name[:4])
	folder := b.Folder(year)
	return folder, folder != ""
}

// Move is one planned file move.
type Move struct {
	Channel string
	Name    string
	Folder  string
	From    string
	To      string
}

// Plan lists the moves for regular files directly under each channel
// directory of baseDir.
func Plan(baseDir string, b Buckets) ([]Move, error) {
	channels, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", baseDir, err)
	}

	var moves []Move
	for _, ch := range channels {
		if !ch.IsDir() {
			continue
		}
		chDir := filepath.Join(baseDir, ch.Name())
		entries, err := os.ReadDir(chDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", chDir, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			folder, ok := b.FolderFor(e.Name())
			if !ok {
				continue
			}
			moves = append(moves, Move{
				Channel: ch.Name(),
				Name:    e.Name(),
				Folder:  folder,
				From:    filepath.Join(chDir, e.Name()),
				To:      filepath.Join(chDir, folder, e.Name()),
			})
		}
	}

	sort.SliceStable(moves, func(i, j int) bool {
		if moves[i].Channel != moves[j].Channel {
			return moves[i].Channel < moves[j].Channel
		}
		return moves[i].Name < moves[j].Name
	})
	return moves, nil
}

// MoveError records a move that failed.
type MoveError struct {
	Move Move
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s to %s/: %v", e.Move.Name, e.Move.Folder, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Execute performs the moves, creating folders as needed. It never
// overwrites an existing target. The returned error joins every failure.
func Execute(moves []Move, onMoved func(Move)) (int, error) {
	var errs []error
	moved := 0
	for _, m := range moves {
		if err := os.MkdirAll(filepath.Dir(m.To), 0755); err != nil {
			errs = append(errs, &MoveError{Move: m, Err: err})
			continue
		}
		if _, err := os.Stat(m.To); err == nil {
			errs = append(errs, &MoveError{Move: m, Err: os.ErrExist})
			continue
		}
		if err := os.Rename(m.From, m.To); err != nil {
			errs = append(errs, &MoveError{Move: m, Err: err})
			continue
		}
		moved++
		if onMoved != nil {
			onMoved(m)
		}
	}
	return moved, errors.Join(errs...)
}
