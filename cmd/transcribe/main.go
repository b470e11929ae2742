package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/cli"
	"vodkeeper/internal/db"
	"vodkeeper/internal/execx"
	"vodkeeper/internal/termui"
	"vodkeeper/internal/transcribe"
)

type options struct {
	path      string
	tool      string
	translate bool
	logDir    string
}

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	var opts options
	cmd := cli.NewRoot(app, "transcribe", "Transcribe media files that have no .srt yet with faster-whisper")
	cmd.Args = cli.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var runner execx.Runner = &execx.ExecRunner{Stdout: app.Stdout, Stderr: app.Stderr}
		if opts.logDir != "" {
			runner = &execx.LogRunner{Dir: opts.logDir}
		}
		return runTranscribe(cmd.Context(), app, runner, opts)
	}
	cmd.Flags().StringVar(&opts.path, "path", "", "folder to scan (default: transcript_dir)")
	cmd.Flags().StringVar(&opts.tool, "whisper-bin", "", "whisper executable (default: tools.whisper)")
	cmd.Flags().BoolVar(&opts.translate, "translate", false, "run the translate task instead of transcribe")
	cmd.Flags().StringVar(&opts.logDir, "log-dir", "", "write each whisper run's output to <dir>/<media>.log instead of the terminal")
	return cmd
}

func runTranscribe(ctx context.Context, app *cli.App, runner execx.Runner, opts options) error {
	dir := opts.path
	if dir == "" {
		dir = app.Config.TranscriptDir
	}
	dir = filepath.Clean(dir)
	if err := cli.RequireDir(dir); err != nil {
		return err
	}

	name := opts.tool
	if name == "" {
		name = app.Config.Tools.Whisper
	}
	tool, err := execx.Resolve(name)
	if err != nil {
		return fmt.Errorf("%w; make sure it is in your PATH or in the working directory", err)
	}
	app.Logger.Info("using whisper", zap.String("tool", tool))

	wcfg := app.Config.Whisper
	t := &transcribe.Transcriber{
		Runner: runner,
		Tool:   tool,
		Options: execx.WhisperOptions{
			Language:    wcfg.Language,
			ComputeType: wcfg.ComputeType,
			Model:       wcfg.Model,
			Translate:   opts.translate,
			ExtraArgs:   wcfg.ExtraArgs,
		},
		Logger: app.Logger,
		Out:    app.Stdout,
		Styles: termui.StylesFor(app.StdoutFile()),
	}
	if err := t.Probe(ctx); err != nil {
		return err
	}

	app.Logger.Info("scanning for media files", zap.String("path", dir))
	items, err := transcribe.Scan(dir)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(app.Stdout, t.Styles.Warn.Render(fmt.Sprintf("No media files found in '%s'.", dir)))
		return nil
	}
	fmt.Fprintf(app.Stdout, "Found %d files to check.\n\n", len(items))

	run := app.BeginRun(ctx, "transcribe", map[string]any{"path": dir, "pending": transcribe.Pending(items), "translate": opts.translate})
	res, err := t.Run(ctx, items)
	run.Finish(ctx, db.Counts{Succeeded: res.Transcribed, Failed: res.Failed, Skipped: res.Existing}, err)
	if err != nil {
		return err
	}

	app.Logger.Info("transcription finished",
		zap.Int("total", res.Total),
		zap.Int("existing", res.Existing),
		zap.Int("transcribed", res.Transcribed),
		zap.Int("failed", res.Failed))
	return nil
}
