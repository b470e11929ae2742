// Package media finds the audio/video files downloaded next to transcripts.
package media

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extensions are the media file types produced by the downloader.
var Extensions = []string{".webm", ".m4a", ".mp3", ".mp4", ".mkv"}

// IsMedia reports whether name has one of the media extensions.
func IsMedia(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// TranscriptPath returns the .srt path whisper writes for a media file.
func TranscriptPath(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
}

// Find lists media files under dir in walk order.
func Find(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsMedia(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return files, nil
}

// DeleteResult counts what Delete removed.
type DeleteResult struct {
	Deleted int
	Errors  []error
}

// Delete removes every path, collecting failures instead of stopping.
func Delete(paths []string) DeleteResult {
	var res DeleteResult
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("could not delete %s: %w", p, err))
			continue
		}
		res.Deleted++
	}
	return res
}
