package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/archiveapi"
	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/filename"
	"vodkeeper/internal/termui"
	"vodkeeper/internal/upload"
)

type options struct {
	path       string
	days       int
	month      string
	year       string
	policy     string
	noProgress bool
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "upload", "Upload local transcripts to the archive server")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), app, opts, time.Now())
	}
	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "base folder (default: transcript_dir)")
	f.IntVar(&opts.days, "days", 0, "upload files dated within the last N days")
	f.StringVar(&opts.month, "month", "", "upload files from one month (YYYY-MM)")
	f.StringVar(&opts.year, "year", "", "upload files from one year (YYYY)")
	f.StringVar(&opts.policy, "policy", "exclude", "unparseable filenames under a date filter: include or exclude")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

func runUpload(ctx context.Context, app *cli.App, opts options, now time.Time) error {
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

	policy, err := filename.ParsePolicy(opts.policy)
	if err != nil {
		return cli.Usagef("%v", err)
	}
	sel := filename.Selection{Days: opts.days, Month: opts.month, Year: opts.year}
	filter, err := sel.Filter(now, policy)
	if err != nil {
		return cli.Usagef("%v", err)
	}
	fmt.Fprintf(app.Stdout, "Uploading %s.\n", filter.Describe())

	client := archiveapi.New(app.Config.ServerURL, app.Config.APIKey)
	run := app.BeginRun(ctx, "upload", map[string]any{
		"path":   base,
		"server": client.BaseURL(),
		"filter": filter.Describe(),
	})

	u := &upload.Uploader{
		Sender:   client,
		Filter:   filter,
		Recorder: run,
		Logger:   app.Logger,
	}
	if !opts.noProgress {
		u.Progress = termui.NewBar(app.Stderr, "Uploading")
	}

	res, err := u.Run(ctx, base)
	run.Finish(ctx, db.Counts{Succeeded: res.Succeeded, Failed: res.Failed, Skipped: res.Skipped}, err)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.Stdout, "\n--- Upload Complete ---")
	fmt.Fprintf(app.Stdout, "Successfully uploaded: %d\n", res.Succeeded)
	fmt.Fprintf(app.Stdout, "Failed to upload: %d\n", res.Failed)
	fmt.Fprintf(app.Stdout, "Skipped (non-matching): %d\n", res.Skipped)
	if id := run.ID(); id != "" {
		app.Logger.Info("upload run recorded", zap.String("run_id", id))
	}
	return nil
}
