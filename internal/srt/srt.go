// Package srt inspects SubRip subtitle files.
package srt

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Cue is one subtitle block.
type Cue struct {
	Index     string
	Timestamp string
	Text      []string
}

// Blocks splits content into cues. Blocks without a "-->" line are
// returned with only Text set.
func Blocks(content string) []Cue {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var cues []Cue
	for _, block := range blankLine.Split(content, -1) {
		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if strings.TrimSpace(l) != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}

		cue := Cue{}
		ts := -1
		for i, l := range lines {
			if strings.Contains(l, "-->") {
				ts = i
				break
			}
		}
		if ts == -1 {
			cue.Text = lines
		} else {
			if ts > 0 {
				cue.Index = lines[ts-1]
			}
			cue.Timestamp = lines[ts]
			cue.Text = lines[ts+1:]
		}
		cues = append(cues, cue)
	}
	return cues
}

// IsMultiLine reports whether any timed cue has more than one text line.
func IsMultiLine(content string) bool {
	for _, c := range Blocks(content) {
		if c.Timestamp != "" && len(c.Text) > 1 {
			return true
		}
	}
	return false
}

// FindMultiLine walks dir and returns .srt files with multi-line cues.
// It stops after the first match unless all is set. Unreadable files are
// skipped.
func FindMultiLine(dir string, all bool) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".srt") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if IsMultiLine(string(b)) {
			found = append(found, path)
			if !all {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return found, nil
}
