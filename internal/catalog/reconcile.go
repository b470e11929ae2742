package catalog

import (
	"fmt"
	"sort"
)

// Mismatch is an ID present on both sides whose fields differ.
type Mismatch struct {
	ID       string
	Filename string
	Diffs    []string
}

// Result is the outcome of Reconcile.
type Result struct {
	// MissingLocal holds server records with no local file.
	MissingLocal []Record
	// MissingServer holds local files the server does not list.
	MissingServer []LocalRecord
	Mismatches    []Mismatch
}

// InSync reports whether both sides agree completely.
func (r Result) InSync() bool {
	return len(r.MissingLocal) == 0 && len(r.MissingServer) == 0 && len(r.Mismatches) == 0
}

type field struct {
	name string
	get  func(Record) string
}

// comparedFields is the ordered field set checked for mismatches.
var comparedFields = []field{
	{"streamer", func(r Record) string { return r.Streamer }},
	{"date", func(r Record) string { return r.Date }},
	{"streamType", func(r Record) string { return r.StreamType }},
	{"streamTitle", func(r Record) string { return r.StreamTitle }},
}

// Diff lists the differing fields between a server and a local record.
func Diff(server, local Record) []string {
	var diffs []string
	for _, f := range comparedFields {
		s, l := f.get(server), f.get(local)
		if s != l {
			diffs = append(diffs, fmt.Sprintf("%s: Server='%s' vs Local='%s'", f.name, s, l))
		}
	}
	return diffs
}

// Reconcile diffs the server catalog against the local one. Output lists
// are sorted (by date, or filename for mismatches, with ID as tie
// breaker) so identical inputs give identical reports.
func Reconcile(server map[string]Record, local map[string]LocalRecord) Result {
	var res Result

	for id, s := range server {
		l, ok := local[id]
		if !ok {
			res.MissingLocal = append(res.MissingLocal, s)
			continue
		}
		if diffs := Diff(s, l.Record); len(diffs) > 0 {
			res.Mismatches = append(res.Mismatches, Mismatch{ID: id, Filename: l.Filename, Diffs: diffs})
		}
	}
	for id, l := range local {
		if _, ok := server[id]; !ok {
			res.MissingServer = append(res.MissingServer, l)
		}
	}

	sort.Slice(res.MissingLocal, func(i, j int) bool {
		a, b := res.MissingLocal[i], res.MissingLocal[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	})
	sort.Slice(res.MissingServer, func(i, j int) bool {
		a, b := res.MissingServer[i], res.MissingServer[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	})
	sort.Slice(res.Mismatches, func(i, j int) bool {
		a, b := res.Mismatches[i], res.Mismatches[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.ID < b.ID
	})

	return res
}
