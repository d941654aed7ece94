package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes the host adb tool with the given arguments and returns its
// standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the adb binary found at Path.
type ExecRunner struct {
	Path    string
	Timeout time.Duration
	logger  *zap.Logger
}

// NewExecRunner creates a runner for the adb binary at path. A zero timeout
// disables the per-command deadline.
func NewExecRunner(path string, timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if path == "" {
		path = "adb" // Assumes ADB is in PATH
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Path: path, Timeout: timeout, logger: logger}
}

// Run executes adb and waits for it to exit. Stderr is folded into the
// returned error when the process fails.
func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("adb command",
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.Bytes(), fmt.Errorf("adb %s: %w", strings.Join(args, " "), ErrTimeout)
		}
		errText := strings.TrimSpace(stderr.String())
		output := errText
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		cmdErr := &CommandError{Args: args, Output: output, Stderr: errText, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return stdout.Bytes(), cmdErr
	}
	return stdout.Bytes(), nil
}
