// Package filename implements the transcript filename grammar shared by
// every tool:
//
//	YYYYMMDD - <StreamType> - <Title> - [<ID>].srt
package filename

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// Ext is the transcript file extension.
	Ext = ".srt"

	compactLayout = "20060102"
	isoLayout     = "2006-01-02"
	separator     = " - "
)

var (
	// ErrMalformedFilename is returned when a name does not match the grammar.
	ErrMalformedFilename = errors.New("malformed filename")
	// ErrInvalidDate is returned when a name matches but its date segment is not a real date.
	ErrInvalidDate = errors.New("invalid date")
)

var (
	pattern   = regexp.MustCompile(`^(\d{8}) - (.+?) - (.+) - \[([^\]]+)\]\.srt$`)
	idPattern = regexp.MustCompile(`\[([^\[\]]+)\]\.srt$`)
)

// ParseError wraps a grammar failure with the offending name.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Record is the parsed form of a transcript filename.
type Record struct {
	Name       string
	Date       time.Time
	StreamType string
	Title      string
	ID         string
}

// DateString returns the date as YYYY-MM-DD.
func (r Record) DateString() string {
	return r.Date.Format(isoLayout)
}

// CompactDateString returns the date as YYYYMMDD.
func (r Record) CompactDateString() string {
	return r.Date.Format(compactLayout)
}

// Parse matches name against the grammar. The returned error wraps
// ErrMalformedFilename or ErrInvalidDate.
func Parse(name string) (Record, error) {
	m := pattern.FindStringSubmatch(name)
	if m == nil {
		return Record{}, &ParseError{Name: name, Err: ErrMalformedFilename}
	}

	date, err := time.Parse(compactLayout, m[1])
	if err != nil {
		return Record{}, &ParseError{Name: name, Err: ErrInvalidDate}
	}

	return Record{
		Name:       name,
		Date:       date,
		StreamType: m[2],
		Title:      strings.TrimSpace(m[3]),
		ID:         m[4],
	}, nil
}

// Format builds the canonical filename for the given fields.
func Format(date time.Time, streamType, title, id string) string {
	return date.Format(compactLayout) + separator + streamType + separator + title + separator + "[" + id + "]" + Ext
}

// CompactDate strips the punctuation from a YYYY-MM-DD (or YYYY-MM, YYYY)
// string, giving the prefix form used in filenames.
func CompactDate(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "-", "")
}

// ExtractID returns the last bracketed segment before the .srt extension.
// It accepts names that do not otherwise follow the grammar.
func ExtractID(name string) (string, bool) {
	m := idPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StreamTypeOf returns the second " - " separated segment of name, the
// stream type for names that follow the grammar.
func StreamTypeOf(name string) (string, bool) {
	parts := strings.Split(name, separator)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// IsTranscript reports whether name has the transcript extension.
func IsTranscript(name string) bool {
	return strings.HasSuffix(name, Ext)
}
