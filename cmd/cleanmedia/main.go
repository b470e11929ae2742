package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/media"
)

type options struct {
	path   string
	yes    bool
	dryRun bool
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "cleanmedia", "Delete downloaded media files once they are transcribed")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runClean(cmd.Context(), app, opts)
	}
	cmd.Flags().StringVar(&opts.path, "path", "", "folder to clean (default: transcript_dir)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list the files without deleting them")
	return cmd
}

func runClean(ctx context.Context, app *cli.App, opts options) error {
	dir := opts.path
	if dir == "" {
		dir = app.Config.TranscriptDir
	}
	if err := cli.RequireDir(dir); err != nil {
		return err
	}

	files, err := media.Find(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(app.Stdout, "No media files found in '%s'.\n", dir)
		return nil
	}

	if opts.dryRun {
		for _, f := range files {
			fmt.Fprintf(app.Stdout, "  %s\n", f)
		}
		fmt.Fprintf(app.Stdout, "\n[DRY RUN] Would delete %d media files.\n", len(files))
		return nil
	}

	if !opts.yes {
		ok, err := cli.Confirm(app.Stdin, app.Stdout, fmt.Sprintf("Are you sure you want to delete all media files in '%s'?", dir))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(app.Stdout, "Operation canceled.")
			return nil
		}
	}

	run := app.BeginRun(ctx, "cleanmedia", map[string]any{"path": dir})
	fmt.Fprintln(app.Stdout, "Scanning and deleting files...")
	res := media.Delete(files)
	for _, e := range res.Errors {
		app.Logger.Error("delete failed", zap.Error(e))
	}
	run.Finish(ctx, db.Counts{Succeeded: res.Deleted, Failed: len(res.Errors)}, nil)

	fmt.Fprintf(app.Stdout, "Deleted %d media files.\n", res.Deleted)
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d media file(s) could not be deleted", len(res.Errors))
	}
	return nil
}
