package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/archive"
	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/download"
	"vodkeeper/internal/execx"
)

type options struct {
	noUpdate     bool
	dryRun       bool
	listArchived bool
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "download", "Download audio for every configured source with yt-dlp")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if opts.listArchived {
			return listArchived(app)
		}
		runner := &execx.ExecRunner{Stdout: app.Stdout, Stderr: app.Stderr}
		return runDownload(cmd.Context(), app, runner, opts)
	}
	cmd.Flags().BoolVar(&opts.noUpdate, "no-update", false, "skip the yt-dlp self-update")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the yt-dlp commands without running them")
	cmd.Flags().BoolVar(&opts.listArchived, "list-archived", false, "print how many IDs the archive file holds per extractor")
	return cmd
}

func sources(app *cli.App) []execx.Source {
	if len(app.Config.Download.Sources) > 0 {
		return app.Config.Download.Sources
	}
	return download.DefaultSources()
}

func ytDlpOptions(app *cli.App) execx.YtDlpOptions {
	cfg := app.Config
	return execx.YtDlpOptions{
		BaseDir:        cfg.TranscriptDir,
		ArchiveFile:    cfg.ArchiveFile,
		CookiesBrowser: cfg.Download.CookiesBrowser,
		SleepRequests:  cfg.Download.SleepRequests,
		SleepInterval:  cfg.Download.SleepInterval,
	}
}

func runDownload(ctx context.Context, app *cli.App, runner execx.Runner, opts options) error {
	srcs := sources(app)
	if err := download.ValidateSources(srcs); err != nil {
		return fmt.Errorf("invalid download sources: %w", err)
	}

	if opts.dryRun {
		for _, s := range srcs {
			args := execx.BuildYtDlpArgs(s, ytDlpOptions(app))
			fmt.Fprintf(app.Stdout, "%s %s\n", app.Config.Tools.YtDlp, strings.Join(args, " "))
		}
		return nil
	}

	tool, err := execx.Resolve(app.Config.Tools.YtDlp)
	if err != nil {
		return fmt.Errorf("%w; install yt-dlp or place it in the working directory", err)
	}
	if err := os.MkdirAll(app.Config.TranscriptDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", app.Config.TranscriptDir, err)
	}

	d := &download.Downloader{
		Runner:  runner,
		Tool:    tool,
		Sources: srcs,
		Options: ytDlpOptions(app),
		Logger:  app.Logger,
	}

	if !opts.noUpdate {
		if err := d.Update(ctx); err != nil {
			return err
		}
	}

	run := app.BeginRun(ctx, "download", map[string]any{"sources": len(srcs)})
	fmt.Fprintln(app.Stdout, "\n--- Starting Downloads ---")
	res, err := d.Run(ctx)
	run.Finish(ctx, db.Counts{Succeeded: res.Ran - res.Failed, Failed: res.Failed}, err)
	if err != nil {
		if errors.Is(err, execx.ErrToolNotFound) {
			return fmt.Errorf("%w; install yt-dlp or place it in the working directory", err)
		}
		return err
	}

	fmt.Fprintln(app.Stdout, "\n--- Download process finished. ---")
	fmt.Fprintf(app.Stdout, "Sources run: %d\n", res.Ran)
	if res.Failed > 0 {
		fmt.Fprintf(app.Stdout, "Sources with errors: %d\n", res.Failed)
	}
	app.Logger.Info("download finished", zap.Int("ran", res.Ran), zap.Int("failed", res.Failed))
	return nil
}

func listArchived(app *cli.App) error {
	lines, err := archive.Read(app.Config.ArchiveFile)
	if err != nil {
		return err
	}
	counts := archive.CountByExtractor(lines)
	extractors := make([]string, 0, len(counts))
	for e := range counts {
		extractors = append(extractors, e)
	}
	sort.Strings(extractors)

	total := 0
	for _, e := range extractors {
		fmt.Fprintf(app.Stdout, "%-20s %d\n", e, counts[e])
		total += counts[e]
	}
	fmt.Fprintf(app.Stdout, "%-20s %d\n", "total", total)
	return nil
}
