// Package prune selects transcripts by date prefix and stream type so they
// can be deleted and re-downloaded.
package prune

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vodkeeper/internal/archive"
	"vodkeeper/internal/filename"
)

// DefaultTypes are the stream types eligible for pruning.
var DefaultTypes = []string{"Stream", "Video", "TwitchVod"}

// Match is a transcript selected for deletion.
type Match struct {
	Path string
	ID   string
}

// Selection is the outcome of Select.
type Selection struct {
	Prefix  string
	Matches []Match
	IDs     map[string]struct{}
}

// NormalizePrefix turns YYYY-MM-DD, YYYY-MM or YYYY into a filename prefix.
func NormalizePrefix(date string) (string, error) {
	p := filename.CompactDate(date)
	switch len(p) {
	case 4, 6, 8:
	default:
		return "", fmt.Errorf("date %q must be YYYY, YYYY-MM or YYYY-MM-DD", date)
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("date %q must be YYYY, YYYY-MM or YYYY-MM-DD", date)
		}
	}
	return p, nil
}

// Select walks baseDir for .srt files starting with prefix whose stream
// type is allowed and whose ID can be extracted.
func Select(baseDir, date string, types []string) (*Selection, error) {
	prefix, err := NormalizePrefix(date)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		types = DefaultTypes
	}
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	sel := &Selection{Prefix: prefix, IDs: make(map[string]struct{})}
	err = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || !filename.IsTranscript(name) || !strings.HasPrefix(name, prefix) {
			return nil
		}
		st, ok := filename.StreamTypeOf(name)
		if !ok || !allowed[st] {
			return nil
		}
		id, ok := filename.ExtractID(name)
		if !ok {
			return nil
		}
		sel.Matches = append(sel.Matches, Match{Path: path, ID: id})
		sel.IDs[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", baseDir, err)
	}
	return sel, nil
}

// Result reports what Apply did.
type Result struct {
	ArchiveFound   bool
	ArchiveRemoved int
	Deleted        []string
	Errors         []error
}

// Apply scrubs the selected IDs from the archive file first, then deletes
// the transcripts. A missing archive file is not an error.
func Apply(sel *Selection, archivePath string) (*Result, error) {
	res := &Result{}

	if _, err := os.Stat(archivePath); err == nil {
		res.ArchiveFound = true
		n, err := archive.RemoveIDs(archivePath, sel.IDs)
		if err != nil {
			return res, fmt.Errorf("failed to clean archive: %w", err)
		}
		res.ArchiveRemoved = n
	} else if !errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("failed to stat archive: %w", err)
	}

	for _, m := range sel.Matches {
		if err := os.Remove(m.Path); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Deleted = append(res.Deleted, m.Path)
	}
	return res, nil
}
