package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrToolNotFound is returned when an external executable cannot be located.
var ErrToolNotFound = errors.New("tool not found")

// ExitError is returned when a tool ran but exited non-zero.
type ExitError struct {
	Tool string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", filepath.Base(e.Tool), e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner runs an external tool to completion.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) error
}

// ExecRunner runs tools with os/exec, passing output through.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
}

// Run starts tool with args and waits for it.
func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Dir = r.Dir
	return classify(tool, cmd.Run())
}

// RunLogged runs tool and writes its combined stdout/stderr to logPath.
// The log is written even when the tool fails.
func RunLogged(ctx context.Context, logPath, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	runErr := classify(tool, cmd.Run())
	if logPath == "" {
		return runErr
	}

	err := os.MkdirAll(filepath.Dir(logPath), 0755)
	if err == nil {
		err = os.WriteFile(logPath, out.Bytes(), 0644)
	}
	if err != nil {
		return &LogWriteError{Path: logPath, RunErr: runErr, Err: err}
	}
	return runErr
}

// LogWriteError reports a run whose output log could not be stored.
// RunErr is the tool's own result and is nil when the tool succeeded.
type LogWriteError struct {
	Path   string
	RunErr error
	Err    error
}

func (e *LogWriteError) Error() string {
	msg := fmt.Sprintf("failed to write log %s: %v", e.Path, e.Err)
	if e.RunErr != nil {
		return e.RunErr.Error() + "; " + msg
	}
	return msg
}

func (e *LogWriteError) Unwrap() []error {
	if e.RunErr == nil {
		return []error{e.Err}
	}
	return []error{e.RunErr, e.Err}
}

// LogRunner captures each run's output into Dir/<input>.log instead of
// streaming it, where <input> is the first argument's base name.
type LogRunner struct {
	Dir string
}

// LogPath returns the log file used for a run with args.
func (r *LogRunner) LogPath(tool string, args ...string) string {
	name := filepath.Base(tool)
	if len(args) > 0 {
		name = filepath.Base(args[0])
	}
	return filepath.Join(r.Dir, strings.TrimSuffix(name, filepath.Ext(name))+".log")
}

// Run runs tool through RunLogged.
func (r *LogRunner) Run(ctx context.Context, tool string, args ...string) error {
	return RunLogged(ctx, r.LogPath(tool, args...), tool, args...)
}

// Probe runs tool with args discarding output, to check it can start.
func Probe(ctx context.Context, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	return classify(tool, cmd.Run())
}

func classify(tool string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Tool: tool, Code: exitErr.ExitCode(), Err: err}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", tool, ErrToolNotFound)
	}
	return fmt.Errorf("failed to run %s: %w", tool, err)
}

// Resolve locates a tool. A path containing a separator is used as is.
// A bare name prefers ./<name> (with .exe on Windows), then PATH.
func Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("tool name not specified: %w", ErrToolNotFound)
	}
	if filepath.Base(name) != name {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%s: %w", name, ErrToolNotFound)
		}
		return name, nil
	}

	candidates := []string{name}
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		candidates = append(candidates, name+".exe")
	}
	for _, c := range candidates {
		local := filepath.Join(".", c)
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(local)
			if err != nil {
				return local, nil
			}
			return abs, nil
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrToolNotFound)
	}
	return path, nil
}
