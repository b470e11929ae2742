// Package cli is the cobra/zap glue shared by the vodkeeper binaries.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vodkeeper/internal/config"
	"vodkeeper/internal/logging"
)

// Exit codes
const (
	ExitFatal = 1
	ExitUsage = 2
)

// UsageError marks a bad invocation.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Usagef returns a UsageError with a formatted message.
func Usagef(format string, a ...any) error {
	return &UsageError{Err: fmt.Errorf(format, a...)}
}

// App carries the state every subcommand shares.
type App struct {
	ConfigPath string
	Verbose    bool

	Config *config.Config
	Logger *zap.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewApp returns an App wired to the process streams and a no-op logger.
func NewApp() *App {
	return &App{
		ConfigPath: config.DefaultPath,
		Config:     config.Default(),
		Logger:     zap.NewNop(),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// NewRoot builds a root command with --config and --verbose. The config
// and logger are set up before any RunE runs.
func NewRoot(app *App, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", config.DefaultPath, "path to config.yaml")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "enable debug logging")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
	return cmd
}

// Init loads .env and the config file and builds the logger.
func (a *App) Init() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}
	a.Config = cfg

	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: a.Verbose,
	})
	if err != nil {
		return err
	}
	a.Logger = logger
	a.Logger.Debug("configuration loaded",
		zap.String("path", a.ConfigPath),
		zap.Bool("found", cfg.Loaded()))
	return nil
}

// RequireServer validates the server settings, used by the tools that
// talk to the archive.
func (a *App) RequireServer() error {
	return a.Config.Validate(true)
}

// RequireDir fails when path is not an existing directory.
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("base directory '%s' not found; run from the folder that contains it or set transcript_dir", path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("'%s' is not a directory", path)
	}
	return nil
}

// ExactArgs is cobra.ExactArgs reporting a UsageError.
func ExactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// NoArgs is cobra.NoArgs reporting a UsageError.
func NoArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

// Confirm asks a Y/N question until it gets an answer. EOF counts as no.
func Confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	r := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "%s (Y/N): ", prompt)
		line, err := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return false, nil
			}
			return false, fmt.Errorf("failed to read answer: %w", err)
		}
	}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitFatal
}

// FormatError renders err as the single ERROR line printed on exit.
func FormatError(now time.Time, err error) string {
	return fmt.Sprintf("%s ERROR: %v", now.Format("15:04:05.000"), err)
}

// Execute runs cmd with a context cancelled on SIGINT/SIGTERM and exits
// the process on failure.
func Execute(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(time.Now(), err))
	var ue *UsageError
	if errors.As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", cmd.CommandPath())
	}
	os.Exit(ExitCode(err))
}

// StdoutFile returns Stdout when it is an *os.File, for terminal detection.
func (a *App) StdoutFile() *os.File {
	f, _ := a.Stdout.(*os.File)
	return f
}
