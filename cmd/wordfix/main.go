package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/filename"
	"vodkeeper/internal/termui"
	"vodkeeper/internal/wordfix"
)

type options struct {
	path           string
	days           int
	policy         string
	rules          string
	allowConflicts bool
	dryRun         bool
	noProgress     bool
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "wordfix", "Restore censored words in .srt transcripts")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWordfix(cmd.Context(), app, opts, time.Now())
	}
	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "folder to scan (default: transcript_dir)")
	f.IntVar(&opts.days, "days", 0, "only fix files dated within the last N days (0 = all)")
	f.StringVar(&opts.policy, "policy", "exclude", "unparseable filenames under --days: include or exclude")
	f.StringVar(&opts.rules, "rules", "", "YAML rule table (default: wordfix.rules_file or the built-in table)")
	f.BoolVar(&opts.allowConflicts, "allow-conflicts", false, "run even when a rule shadows a later one")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing files")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

func loadTable(app *cli.App, path string) (wordfix.Table, error) {
	if path == "" {
		path = app.Config.Wordfix.RulesFile
	}
	if path == "" {
		return wordfix.DefaultTable(), nil
	}
	return wordfix.LoadTable(path)
}

func runWordfix(ctx context.Context, app *cli.App, opts options, now time.Time) error {
	dir := opts.path
	if dir == "" {
		dir = app.Config.TranscriptDir
	}
	if err := cli.RequireDir(dir); err != nil {
		return err
	}

	policy, err := filename.ParsePolicy(opts.policy)
	if err != nil {
		return cli.Usagef("%v", err)
	}
	filter, err := filename.Selection{Days: opts.days}.Filter(now, policy)
	if err != nil {
		return cli.Usagef("%v", err)
	}

	table, err := loadTable(app, opts.rules)
	if err != nil {
		return err
	}
	for _, c := range table.Conflicts() {
		app.Logger.Warn("rule conflict", zap.String("conflict", c.String()))
	}
	if shadowing := table.Shadowing(); len(shadowing) > 0 && !opts.allowConflicts {
		return fmt.Errorf("%d rule(s) shadow later rules (first: %s); reorder the table or pass --allow-conflicts", len(shadowing), shadowing[0])
	}

	fixer := &wordfix.Fixer{
		Table:  table,
		Filter: filter,
		DryRun: opts.dryRun,
		Logger: app.Logger,
	}
	if !opts.noProgress {
		fixer.Progress = termui.NewBar(app.Stderr, "Fixing Words")
	}

	if filter.Active() {
		fmt.Fprintf(app.Stdout, "Selecting %s.\n", filter.Describe())
	}

	run := app.BeginRun(ctx, "wordfix", map[string]any{"path": dir, "days": opts.days, "dry_run": opts.dryRun})
	stats, err := fixer.Run(dir)
	run.Finish(ctx, db.Counts{Succeeded: stats.Changed, Failed: stats.Failed, Skipped: stats.SkippedDate + stats.SkippedName}, err)
	if err != nil {
		return err
	}

	printStats(app, stats, opts.dryRun)
	return nil
}

func printStats(app *cli.App, s wordfix.Stats, dryRun bool) {
	w := app.Stdout
	changedLabel := "Files changed"
	if dryRun {
		changedLabel = "Files that would change"
	}
	fmt.Fprintln(w, "\n--- Word Fix Complete ---")
	fmt.Fprintf(w, "Transcripts scanned:     %d\n", s.Scanned)
	fmt.Fprintf(w, "%-24s %d\n", changedLabel+":", s.Changed)
	fmt.Fprintf(w, "Files unchanged:         %d\n", s.Unchanged)
	if s.SkippedDate > 0 {
		fmt.Fprintf(w, "Skipped (date):          %d\n", s.SkippedDate)
	}
	if s.SkippedName > 0 {
		fmt.Fprintf(w, "Skipped (unparseable):   %d\n", s.SkippedName)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "Failed:                  %d\n", s.Failed)
		for _, d := range s.FailedDetails {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}
}
