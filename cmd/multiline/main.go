package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/srt"
)

type options struct {
	path string
	all  bool
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "multiline", "Find .srt files whose cues span more than one line")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runMultiline(app, opts)
	}
	cmd.Flags().StringVar(&opts.path, "path", "", "folder to search (default: transcript_dir)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "list every match instead of stopping at the first")
	return cmd
}

func runMultiline(app *cli.App, opts options) error {
	dir := opts.path
	if dir == "" {
		dir = app.Config.TranscriptDir
	}
	if err := cli.RequireDir(dir); err != nil {
		return err
	}

	if opts.all {
		fmt.Fprintf(app.Stdout, "Searching for multi-line .srt files in %s...\n", dir)
	} else {
		fmt.Fprintf(app.Stdout, "Searching for the first multi-line .srt file in %s...\n", dir)
	}
	found, err := srt.FindMultiLine(dir, opts.all)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(app.Stdout, "\nNo multi-line .srt files found.")
		return nil
	}
	for _, p := range found {
		fmt.Fprintf(app.Stdout, "\nMatch found: %s\n", p)
	}
	if opts.all {
		fmt.Fprintf(app.Stdout, "\n%d multi-line file(s).\n", len(found))
	}
	return nil
}
