package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/organize"
)

type options struct {
	path    string
	execute bool
	floor   int
	ceiling int
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "organize", "Move channel transcripts into year folders")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runOrganize(cmd.Context(), app, opts)
	}
	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "base folder (default: transcript_dir)")
	f.BoolVar(&opts.execute, "execute", false, "move the files (default is a dry run)")
	f.IntVar(&opts.floor, "floor", 0, "every year up to this one goes in one folder (default: organize.floor_year)")
	f.IntVar(&opts.ceiling, "ceiling", 0, "last year with its own folder (default: organize.ceiling_year)")
	return cmd
}

func buckets(app *cli.App, opts options) (organize.Buckets, error) {
	b := organize.Buckets{Floor: app.Config.Organize.FloorYear, Ceiling: app.Config.Organize.CeilingYear}
	if opts.floor != 0 {
		b.Floor = opts.floor
	}
	if opts.ceiling != 0 {
		b.Ceiling = opts.ceiling
	}
	if err := b.Validate(); err != nil {
		return b, cli.Usagef("%v", err)
	}
	return b, nil
}

func runOrganize(ctx context.Context, app *cli.App, opts options) error {
	base := opts.path
	if base == "" {
		base = app.Config.TranscriptDir
	}
	if err := cli.RequireDir(base); err != nil {
		return err
	}
	b, err := buckets(app, opts)
	if err != nil {
		return err
	}

	moves, err := organize.Plan(base, b)
	if err != nil {
		return err
	}
	if len(moves) == 0 {
		fmt.Fprintln(app.Stdout, "Nothing to organize.")
		return nil
	}

	if !opts.execute {
		for _, m := range moves {
			fmt.Fprintf(app.Stdout, "[DRY RUN] Would move %s/%s -> %s/%s/\n", m.Channel, m.Name, m.Channel, m.Folder)
		}
		fmt.Fprintf(app.Stdout, "\n%d file(s) would be moved. Run with --execute to move them.\n", len(moves))
		return nil
	}

	run := app.BeginRun(ctx, "organize", map[string]any{"path": base, "floor": b.Floor, "ceiling": b.Ceiling})
	moved, err := organize.Execute(moves, func(m organize.Move) {
		app.Logger.Debug("moved", zap.String("from", m.From), zap.String("to", m.To))
	})
	failed := len(moves) - moved
	if err != nil {
		for _, e := range unjoin(err) {
			app.Logger.Error("move failed", zap.Error(e))
		}
	}
	run.Finish(ctx, db.Counts{Succeeded: moved, Failed: failed}, nil)

	fmt.Fprintf(app.Stdout, "Moved %d file(s).\n", moved)
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be moved", failed)
	}
	return nil
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
