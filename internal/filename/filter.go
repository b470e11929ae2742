package filename

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Policy decides what a date filter does with a name that cannot be parsed.
type Policy int

const (
	// Exclude drops unparseable names whenever a date filter is active.
	Exclude Policy = iota
	// Include keeps unparseable names whenever a date filter is active.
	Include
)

func (p Policy) String() string {
	if p == Include {
		return "include"
	}
	return "exclude"
}

// ParsePolicy reads "include" or "exclude".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclude":
		return Exclude, nil
	case "include":
		return Include, nil
	default:
		return Exclude, fmt.Errorf("unknown unparseable-filename policy %q (want include or exclude)", s)
	}
}

// Filter selects transcripts by date. The zero value matches everything.
type Filter struct {
	// Since keeps files dated on or after this day when non-zero.
	Since time.Time
	// Prefix keeps files whose YYYYMMDD date starts with it (YYYY or YYYYMM).
	Prefix string
	// Unparseable applies to names that fail Parse while a filter is active.
	Unparseable Policy
}

// Decision is the outcome of a Filter for one name.
type Decision int

const (
	Keep Decision = iota
	SkipDate
	SkipUnparseable
)

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	return !f.Since.IsZero() || f.Prefix != ""
}

// Describe returns a human readable summary of the selection.
func (f Filter) Describe() string {
	switch {
	case !f.Since.IsZero():
		return "files dated on or after " + f.Since.Format(isoLayout)
	case len(f.Prefix) == 4:
		return "files from the year " + f.Prefix
	case len(f.Prefix) == 6:
		return "files from " + f.Prefix[:4] + "-" + f.Prefix[4:]
	case f.Prefix != "":
		return "files with date prefix " + f.Prefix
	default:
		return "all transcripts"
	}
}

// Decide applies the filter to name.
func (f Filter) Decide(name string) (Record, Decision) {
	rec, err := Parse(name)
	if err != nil {
		if !f.Active() || f.Unparseable == Include {
			return Record{Name: name}, Keep
		}
		return Record{Name: name}, SkipUnparseable
	}
	return rec, f.DecideRecord(rec)
}

// DecideRecord applies the filter to an already parsed record.
func (f Filter) DecideRecord(rec Record) Decision {
	if f.Prefix != "" && !strings.HasPrefix(rec.CompactDateString(), f.Prefix) {
		return SkipDate
	}
	if !f.Since.IsZero() && rec.Date.Before(f.Since) {
		return SkipDate
	}
	return Keep
}

// ErrConflictingSelection is returned when more than one selector is set.
var ErrConflictingSelection = errors.New("only one of --days, --month and --year may be given")

// Selection holds the raw date selectors exposed as flags.
type Selection struct {
	Days  int
	Month string
	Year  string
}

// Filter validates the selection and converts it to a Filter relative to now.
func (s Selection) Filter(now time.Time, policy Policy) (Filter, error) {
	set := 0
	if s.Days != 0 {
		set++
	}
	if s.Month != "" {
		set++
	}
	if s.Year != "" {
		set++
	}
	if set > 1 {
		return Filter{}, ErrConflictingSelection
	}

	f := Filter{Unparseable: policy}
	switch {
	case s.Days < 0:
		return Filter{}, fmt.Errorf("--days must be positive, got %d", s.Days)
	case s.Days > 0:
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		f.Since = today.AddDate(0, 0, -s.Days)
	case s.Month != "":
		if _, err := time.Parse("2006-01", s.Month); err != nil {
			return Filter{}, fmt.Errorf("--month must be YYYY-MM, got %q", s.Month)
		}
		f.Prefix = CompactDate(s.Month)
	case s.Year != "":
		year := strings.TrimSuffix(strings.TrimSuffix(s.Year, "*"), "-")
		if _, err := time.Parse("2006", year); err != nil {
			return Filter{}, fmt.Errorf("--year must be YYYY or YYYY-*, got %q", s.Year)
		}
		f.Prefix = year
	}
	return f, nil
}
