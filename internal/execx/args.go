// Package execx locates and runs the external tools the archive depends on
// (yt-dlp and faster-whisper) and builds their argument lists.
package execx

import (
	"path/filepath"
	"strconv"
	"strings"
)

// MembersType is the stream type that needs authenticated downloads.
const MembersType = "Members"

// Source is one download target.
type Source struct {
	Channel string `yaml:"channel"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
}

// IsTwitch reports whether the source is hosted on Twitch.
func (s Source) IsTwitch() bool {
	return strings.Contains(strings.ToLower(s.URL), "twitch.tv")
}

// YtDlpOptions carries the settings shared by every download.
type YtDlpOptions struct {
	BaseDir        string
	ArchiveFile    string
	CookiesBrowser string
	SleepRequests  int
	SleepInterval  int
}

// OutputTemplate is the yt-dlp -o template for a source.
func OutputTemplate(baseDir string, s Source) string {
	return filepath.ToSlash(filepath.Join(baseDir, s.Channel)) +
		"/%(upload_date)s - " + s.Type + " - %(title)s - [%(id)s].%(ext)s"
}

// BuildYtDlpArgs builds the yt-dlp argument list for one source. The URL
// is always last.
func BuildYtDlpArgs(s Source, opts YtDlpOptions) []string {
	args := []string{"--download-archive", opts.ArchiveFile}
	if s.Type == MembersType && opts.CookiesBrowser != "" {
		args = append(args, "--cookies-from-browser", opts.CookiesBrowser)
	}
	args = append(args,
		"--ignore-errors",
		"--match-filter", "!is_live",
		"-f", "ba",
		"-o", OutputTemplate(opts.BaseDir, s),
		"--windows-filenames",
		"--sleep-requests", strconv.Itoa(opts.SleepRequests),
		"--sleep-interval", strconv.Itoa(opts.SleepInterval),
	)
	if !s.IsTwitch() {
		args = append(args, "--write-thumbnail")
	}
	return append(args, s.URL)
}

// WhisperOptions configures faster-whisper.
type WhisperOptions struct {
	Language    string
	ComputeType string
	Model       string
	Translate   bool
	ExtraArgs   string
}

// BuildWhisperArgs builds the faster-whisper argument list for one media
// file. Output goes next to the source file.
func BuildWhisperArgs(mediaPath string, opts WhisperOptions) []string {
	args := []string{mediaPath}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	if opts.ComputeType != "" {
		args = append(args, "--compute_type", opts.ComputeType)
	}
	if opts.Model != "" {
		args = append(args, "-m", opts.Model)
	}
	args = append(args, "--sentence", "-o", "source", "-pp", "--beep_off")
	if opts.Translate {
		args = append(args, "--task", "translate")
	}
	if strings.TrimSpace(opts.ExtraArgs) != "" {
		args = append(args, strings.Fields(opts.ExtraArgs)...)
	}
	return args
}
