// Package archive reads and rewrites the yt-dlp download archive, a text
// file of "<extractor> <id>" lines.
package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Line is one archive line. Raw keeps the original text, newline included.
type Line struct {
	Raw       string
	Extractor string
	ID        string
}

// Valid reports whether the line carries an extractor and an ID.
func (l Line) Valid() bool {
	return l.ID != ""
}

func parseLine(raw string) Line {
	l := Line{Raw: raw}
	fields := strings.Fields(raw)
	if len(fields) >= 2 {
		l.Extractor = fields[0]
		l.ID = fields[1]
	}
	return l
}

// Read loads every line of the archive file.
func Read(path string) ([]Line, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return parse(b), nil
}

func parse(b []byte) []Line {
	var lines []Line
	r := bufio.NewReader(bytes.NewReader(b))
	for {
		raw, err := r.ReadString('\n')
		if raw != "" {
			lines = append(lines, parseLine(raw))
		}
		if err != nil {
			break
		}
	}
	return lines
}

// IDs returns the set of IDs recorded in the archive.
func IDs(path string) (map[string]struct{}, error) {
	lines, err := Read(path)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.Valid() {
			ids[l.ID] = struct{}{}
		}
	}
	return ids, nil
}

// Filter returns the lines whose ID is not in ids, and how many were dropped.
func Filter(lines []Line, ids map[string]struct{}) ([]Line, int) {
	kept := make([]Line, 0, len(lines))
	for _, l := range lines {
		if _, drop := ids[l.ID]; drop && l.Valid() {
			continue
		}
		kept = append(kept, l)
	}
	return kept, len(lines) - len(kept)
}

// RemoveIDs drops every line for the given IDs and rewrites the file in
// place through a temporary file. Unmatched lines are kept byte for byte.
func RemoveIDs(path string, ids map[string]struct{}) (int, error) {
	lines, err := Read(path)
	if err != nil {
		return 0, err
	}
	kept, removed := Filter(lines, ids)
	if removed == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, l := range kept {
		buf.WriteString(l.Raw)
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return 0, err
	}
	return removed, nil
}

func writeAtomic(path string, data []byte) error {
	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp archive: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	return nil
}

// CountByExtractor tallies valid lines per extractor.
func CountByExtractor(lines []Line) map[string]int {
	counts := make(map[string]int)
	for _, l := range lines {
		if l.Valid() {
			counts[l.Extractor]++
		}
	}
	return counts
}
