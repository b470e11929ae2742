package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/archiveapi"
	"vodkeeper/internal/catalog"
	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/filename"
	"vodkeeper/internal/termui"
)

type options struct {
	path   string
	report string
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "verify", "Compare local transcripts with the archive server catalog")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd.Context(), app, opts, time.Now())
	}
	cmd.Flags().StringVar(&opts.path, "path", "", "base folder (default: transcript_dir)")
	cmd.Flags().StringVar(&opts.report, "report", "", "report file (default: report_file)")
	return cmd
}

func runVerify(ctx context.Context, app *cli.App, opts options, now time.Time) error {
	if err := app.RequireServer(); err != nil {
		return err
	}
	base := opts.path
	if base == "" {
		base = app.Config.TranscriptDir
	}
	if err := cli.RequireDir(base); err != nil {
		return err
	}
	reportPath := opts.report
	if reportPath == "" {
		reportPath = app.Config.ReportFile
	}

	client := archiveapi.New(app.Config.ServerURL, app.Config.APIKey)
	fmt.Fprintf(app.Stdout, "Fetching server info from: %s/info\n", client.BaseURL())
	records, err := client.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch server info: %w", err)
	}
	server := catalog.Index(records)
	fmt.Fprintf(app.Stdout, "Server reported %d streams.\n", len(server))

	fmt.Fprintf(app.Stdout, "Scanning '%s' for local files...\n", base)
	local, err := catalog.Scan(base)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Stdout, "Found %d valid local transcripts.\n", len(local.Records))
	for _, p := range local.Unparsed {
		// Names that only fail on the date are real transcripts left out
		// of the comparison.
		if _, err := filename.Parse(filepath.Base(p)); errors.Is(err, filename.ErrInvalidDate) {
			app.Logger.Warn("transcript has an invalid date and is not compared", zap.String("path", p), zap.Error(err))
			continue
		}
		app.Logger.Debug("unparseable transcript name", zap.String("path", p))
	}
	for _, p := range local.Duplicates {
		app.Logger.Warn("duplicate transcript id", zap.String("path", p))
	}

	fmt.Fprintln(app.Stdout, "Verifying consistency...")
	res := catalog.Reconcile(server, local.Records)
	diffs := len(res.MissingLocal) + len(res.MissingServer) + len(res.Mismatches)

	run := app.BeginRun(ctx, "verify", map[string]any{"path": base, "server": client.BaseURL()})
	err = report(app, reportPath, res, now)
	matched := len(local.Records) - len(res.MissingServer) - len(res.Mismatches)
	run.Finish(ctx, db.Counts{Succeeded: matched, Failed: diffs}, err)
	return err
}

func report(app *cli.App, reportPath string, res catalog.Result, now time.Time) error {
	if err := catalog.WriteSummary(app.Stdout, res); err != nil {
		return err
	}

	styles := termui.StylesFor(app.StdoutFile())
	if res.InSync() {
		fmt.Fprintln(app.Stdout, styles.OK.Render("SUCCESS: Local files and Server are perfectly synced."))
		return nil
	}

	if err := writeReport(reportPath, res, now); err != nil {
		return err
	}
	fmt.Fprintln(app.Stdout, styles.Warn.Render("Detailed report written to: "+reportPath))
	return nil
}

func writeReport(path string, res catalog.Result, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := catalog.WriteReport(f, res, now); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return f.Close()
}
