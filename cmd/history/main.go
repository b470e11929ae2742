package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
)

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	root := cli.NewRoot(app, "history", "Inspect the run ledger")
	root.Args = cli.NoArgs

	var limit int
	var tool string
	runs := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(app, func(ledger *db.DB) error {
				return listRuns(cmd.Context(), app, ledger, limit, tool)
			})
		},
	}
	runs.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 = all)")
	runs.Flags().StringVar(&tool, "tool", "", "only show runs of this tool")

	var failedLimit int
	failed := &cobra.Command{
		Use:   "failed",
		Short: "List failed uploads across runs",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(app, func(ledger *db.DB) error {
				return listFailed(cmd.Context(), app, ledger, failedLimit)
			})
		},
	}
	failed.Flags().IntVarP(&failedLimit, "limit", "n", 50, "number of uploads to show (0 = all)")

	root.AddCommand(
		runs,
		&cobra.Command{
			Use:   "show <run-id>",
			Short: "Show one run and its uploads",
			Args:  cli.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLedger(app, func(ledger *db.DB) error {
					return showRun(cmd.Context(), app, ledger, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Summarize runs per tool and status",
			Args:  cli.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLedger(app, func(ledger *db.DB) error {
					return showStats(cmd.Context(), app, ledger)
				})
			},
		},
		failed,
		&cobra.Command{
			Use:   "status",
			Short: "Show the ledger schema migration status",
			Args:  cli.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withLedger(app, func(ledger *db.DB) error {
					return migrationStatus(cmd.Context(), app, ledger)
				})
			},
		},
	)
	return root
}

func withLedger(app *cli.App, fn func(*db.DB) error) error {
	ledger, err := app.OpenLedger()
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	if ledger == nil {
		return errors.New("the run ledger is disabled; set ledger_path in config.yaml")
	}
	defer ledger.Close()
	return fn(ledger)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d *float64) string {
	if d == nil {
		return "-"
	}
	return time.Duration(*d * float64(time.Second)).Round(time.Millisecond).String()
}

func listRuns(ctx context.Context, app *cli.App, ledger *db.DB, limit int, tool string) error {
	runs, err := ledger.ListRuns(ctx, limit, tool)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(app.Stdout, "No runs recorded.")
		return nil
	}

	t := newTable("ID", "TOOL", "STATUS", "STARTED", "DURATION", "OK", "FAILED", "SKIPPED")
	for _, r := range runs {
		t.Row(r.ID[:8], r.Tool, r.Status, formatTime(r.StartedAt), formatDuration(r.DurationSeconds),
			strconv.Itoa(r.Succeeded), strconv.Itoa(r.Failed), strconv.Itoa(r.Skipped))
	}
	fmt.Fprintln(app.Stdout, t.String())
	return nil
}

func findRun(ctx context.Context, ledger *db.DB, id string) (*db.Run, error) {
	run, err := ledger.GetRun(ctx, id)
	if err == nil || !errors.Is(err, db.ErrNotFound) || len(id) >= 36 {
		return run, err
	}
	// Accept the short form printed by "runs".
	runs, lerr := ledger.ListRuns(ctx, 0, "")
	if lerr != nil {
		return nil, lerr
	}
	var match *db.Run
	for _, r := range runs {
		if len(r.ID) >= len(id) && r.ID[:len(id)] == id {
			if match != nil {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func showRun(ctx context.Context, app *cli.App, ledger *db.DB, id string) error {
	run, err := findRun(ctx, ledger, id)
	if err != nil {
		return err
	}

	w := app.Stdout
	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Tool:      %s\n", run.Tool)
	fmt.Fprintf(w, "Status:    %s\n", run.Status)
	fmt.Fprintf(w, "Started:   %s\n", formatTime(run.StartedAt))
	fmt.Fprintf(w, "Duration:  %s\n", formatDuration(run.DurationSeconds))
	fmt.Fprintf(w, "Counts:    %d ok, %d failed, %d skipped\n", run.Succeeded, run.Failed, run.Skipped)
	if run.Parameters != nil {
		fmt.Fprintf(w, "Params:    %s\n", *run.Parameters)
	}
	if run.ErrorMessage != nil {
		fmt.Fprintf(w, "Error:     %s\n", *run.ErrorMessage)
	}

	uploads, err := ledger.ListUploads(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, uploadTable(uploads))
	return nil
}

func uploadTable(uploads []*db.Upload) string {
	t := newTable("FILE", "STREAMER", "STATUS", "HTTP", "ERROR")
	for _, u := range uploads {
		code := "-"
		if u.HTTPStatus != nil {
			code = strconv.Itoa(*u.HTTPStatus)
		}
		msg := ""
		if u.ErrorMessage != nil {
			msg = *u.ErrorMessage
		}
		t.Row(u.Filename, u.Streamer, u.Status, code, msg)
	}
	return t.String()
}

func showStats(ctx context.Context, app *cli.App, ledger *db.DB) error {
	stats, err := ledger.GetRunStats(ctx)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(app.Stdout, "No runs recorded.")
		return nil
	}

	t := newTable("TOOL", "STATUS", "RUNS", "AVG DURATION", "OK", "FAILED")
	for _, s := range stats {
		t.Row(s.Tool, s.Status, strconv.Itoa(s.Count), formatDuration(s.AvgDuration),
			strconv.Itoa(s.Succeeded), strconv.Itoa(s.Failed))
	}
	fmt.Fprintln(app.Stdout, t.String())
	return nil
}

func listFailed(ctx context.Context, app *cli.App, ledger *db.DB, limit int) error {
	uploads, err := ledger.FailedUploads(ctx, limit)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		fmt.Fprintln(app.Stdout, "No failed uploads.")
		return nil
	}
	fmt.Fprintln(app.Stdout, uploadTable(uploads))
	return nil
}

func migrationStatus(ctx context.Context, app *cli.App, ledger *db.DB) error {
	status, err := ledger.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	w := app.Stdout
	fmt.Fprintln(w, "Migration Status:")
	fmt.Fprintln(w, "================")
	fmt.Fprintf(w, "Total migrations: %d\n", status.Total)
	fmt.Fprintf(w, "Applied: %d\n", len(status.Applied))
	fmt.Fprintf(w, "Pending: %d\n", len(status.Pending))

	if len(status.Applied) > 0 {
		fmt.Fprintln(w, "\nApplied migrations:")
		for _, v := range status.Applied {
			fmt.Fprintf(w, "  ✓ %d\n", v)
		}
	}
	if len(status.Pending) > 0 {
		fmt.Fprintln(w, "\nPending migrations:")
		for _, v := range status.Pending {
			fmt.Fprintf(w, "  ✗ %d\n", v)
		}
	}
	return nil
}
