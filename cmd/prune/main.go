package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/prune"
)

type options struct {
	path   string
	dryRun bool
	types  []string
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "prune <YYYY[-MM[-DD]]>", "Delete transcripts for a date and drop them from the download archive")
	cmd.Args = cli.ExactArgs(1)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runPrune(cmd.Context(), app, args[0], opts)
	}
	cmd.Flags().StringVar(&opts.path, "path", "", "transcript folder (default: transcript_dir)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list what would be removed")
	cmd.Flags().StringSliceVar(&opts.types, "types", prune.DefaultTypes, "stream types to prune")
	return cmd
}

func runPrune(ctx context.Context, app *cli.App, date string, opts options) error {
	dir := opts.path
	if dir == "" {
		dir = app.Config.TranscriptDir
	}
	if err := cli.RequireDir(dir); err != nil {
		return err
	}
	if _, err := prune.NormalizePrefix(date); err != nil {
		return cli.Usagef("%v", err)
	}

	sel, err := prune.Select(dir, date, opts.types)
	if err != nil {
		return err
	}
	if len(sel.Matches) == 0 {
		fmt.Fprintf(app.Stdout, "No matching files found for date prefix '%s'.\n", sel.Prefix)
		return nil
	}

	fmt.Fprintf(app.Stdout, "Found %d matching files.\n", len(sel.Matches))
	for _, m := range sel.Matches {
		fmt.Fprintf(app.Stdout, "  %s\n", m.Path)
	}

	archivePath := app.Config.ArchiveFile
	if opts.dryRun {
		fmt.Fprintln(app.Stdout, "\n[DRY RUN] Would delete the files listed above.")
		fmt.Fprintf(app.Stdout, "[DRY RUN] Would remove %d IDs from %s.\n", len(sel.IDs), archivePath)
		return nil
	}

	run := app.BeginRun(ctx, "prune", map[string]any{"path": dir, "prefix": sel.Prefix, "types": opts.types})
	fmt.Fprintf(app.Stdout, "Cleaning up %s...\n", archivePath)
	res, err := prune.Apply(sel, archivePath)
	if err != nil {
		run.Finish(ctx, db.Counts{}, err)
		return err
	}
	if res.ArchiveFound {
		fmt.Fprintf(app.Stdout, "Removed %d lines from %s.\n", res.ArchiveRemoved, archivePath)
	} else {
		app.Logger.Warn("archive file not found, skipping archive cleanup", zap.String("path", archivePath))
	}

	fmt.Fprintln(app.Stdout, "Deleting files...")
	for _, p := range res.Deleted {
		fmt.Fprintf(app.Stdout, "  Deleted: %s\n", p)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(app.Stdout, "  Error deleting: %v\n", e)
	}
	run.Finish(ctx, db.Counts{Succeeded: len(res.Deleted), Failed: len(res.Errors)}, nil)
	fmt.Fprintln(app.Stdout, "Done.")
	return nil
}
