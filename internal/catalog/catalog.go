// Package catalog builds the local transcript catalog from the directory
// tree and reconciles it against the archive server's catalog.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vodkeeper/internal/filename"
)

// Record is one catalog entry as the archive server reports it.
type Record struct {
	Streamer    string `json:"streamer"`
	Date        string `json:"date"`
	StreamType  string `json:"streamType"`
	StreamTitle string `json:"streamTitle"`
	ID          string `json:"id"`
}

// LocalRecord is a Record derived from a file on disk.
type LocalRecord struct {
	Record
	Filename string `json:"filename"`
	Path     string `json:"-"`
}

// Entry is a transcript file below the base directory with its channel.
type Entry struct {
	Channel string
	Name    string
	Path    string
}

// FromFilename converts a parsed filename into a LocalRecord for channel.
func FromFilename(channel, path string, rec filename.Record) LocalRecord {
	return LocalRecord{
		Record: Record{
			Streamer:    channel,
			Date:        rec.DateString(),
			StreamType:  rec.StreamType,
			StreamTitle: rec.Title,
			ID:          rec.ID,
		},
		Filename: rec.Name,
		Path:     path,
	}
}

// Walk lists every .srt file under a channel directory of baseDir, in
// lexical order. Files directly inside baseDir have no channel and are
// skipped.
func Walk(baseDir string) ([]Entry, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base directory %s is not a directory", baseDir)
	}

	var entries []Entry
	err = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !filename.IsTranscript(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) < 2 || parts[0] == "" {
			return nil
		}
		entries = append(entries, Entry{Channel: parts[0], Name: d.Name(), Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", baseDir, err)
	}
	return entries, nil
}

// ScanResult is the local catalog keyed by ID.
type ScanResult struct {
	Records map[string]LocalRecord
	// Unparsed holds the paths of .srt files that do not follow the grammar
	// or carry an impossible date.
	Unparsed []string
	// Duplicates holds the paths of files whose ID was already seen.
	Duplicates []string
}

// Scan walks baseDir and parses every transcript name into the catalog.
func Scan(baseDir string) (*ScanResult, error) {
	entries, err := Walk(baseDir)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{Records: make(map[string]LocalRecord, len(entries))}
	for _, e := range entries {
		rec, err := filename.Parse(e.Name)
		if err != nil {
			res.Unparsed = append(res.Unparsed, e.Path)
			continue
		}
		if _, seen := res.Records[rec.ID]; seen {
			res.Duplicates = append(res.Duplicates, e.Path)
			continue
		}
		res.Records[rec.ID] = FromFilename(e.Channel, e.Path, rec)
	}
	return res, nil
}

// Index keys records by ID. Records without an ID are dropped.
func Index(records []Record) map[string]Record {
	m := make(map[string]Record, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		m[r.ID] = r
	}
	return m
}
