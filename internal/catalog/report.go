package catalog

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	wideRule  = strings.Repeat("=", 60)
	shortRule = strings.Repeat("-", 20)
	boxRule   = strings.Repeat("=", 40)
	boxDash   = strings.Repeat("-", 40)
)

// WriteReport writes the sectioned plain-text report.
func WriteReport(w io.Writer, res Result, generatedAt time.Time) error {
	var b strings.Builder

	b.WriteString("VERIFICATION REPORT\n")
	fmt.Fprintf(&b, "Generated on: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(wideRule + "\n\n")

	fmt.Fprintf(&b, "--- MISSING LOCAL FILES (%d) ---\n", len(res.MissingLocal))
	b.WriteString("(Server has these entries, but no local .srt found)\n\n")
	if len(res.MissingLocal) == 0 {
		b.WriteString("None.\n\n")
	}
	for _, r := range res.MissingLocal {
		fmt.Fprintf(&b, "ID: %s\n", r.ID)
		fmt.Fprintf(&b, "  Streamer: %s\n", r.Streamer)
		fmt.Fprintf(&b, "  Date:     %s\n", r.Date)
		fmt.Fprintf(&b, "  Title:    %s\n", r.StreamTitle)
		b.WriteString(shortRule + "\n")
	}
	b.WriteString("\n" + wideRule + "\n\n")

	fmt.Fprintf(&b, "--- MISSING SERVER FILES (%d) ---\n", len(res.MissingServer))
	b.WriteString("(We have these .srt files locally, but Server does not list them)\n\n")
	if len(res.MissingServer) == 0 {
		b.WriteString("None.\n\n")
	}
	for _, r := range res.MissingServer {
		fmt.Fprintf(&b, "ID: %s\n", r.ID)
		fmt.Fprintf(&b, "  File:     %s\n", r.Filename)
		fmt.Fprintf(&b, "  Streamer: %s\n", r.Streamer)
		fmt.Fprintf(&b, "  Date:     %s\n", r.Date)
		b.WriteString(shortRule + "\n")
	}
	b.WriteString("\n" + wideRule + "\n\n")

	fmt.Fprintf(&b, "--- METADATA MISMATCHES (%d) ---\n", len(res.Mismatches))
	b.WriteString("(ID exists in both, but specific fields differ)\n\n")
	if len(res.Mismatches) == 0 {
		b.WriteString("None.\n\n")
	}
	for _, m := range res.Mismatches {
		fmt.Fprintf(&b, "ID: %s\n", m.ID)
		fmt.Fprintf(&b, "  File: %s\n", m.Filename)
		for _, d := range m.Diffs {
			fmt.Fprintf(&b, "  [!] %s\n", d)
		}
		b.WriteString(shortRule + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary writes the short console summary.
func WriteSummary(w io.Writer, res Result) error {
	var b strings.Builder
	b.WriteString("\n" + boxRule + "\n")
	fmt.Fprintf(&b, "%s\n", center("VERIFICATION SUMMARY", len(boxRule)))
	b.WriteString(boxRule + "\n")
	fmt.Fprintf(&b, "Missing Local Files:  %d\n", len(res.MissingLocal))
	fmt.Fprintf(&b, "Missing Server Files: %d\n", len(res.MissingServer))
	fmt.Fprintf(&b, "Metadata Mismatches:  %d\n", len(res.Mismatches))
	b.WriteString(boxDash + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
