// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package judge invokes an external natural-language reasoning CLI and
// returns its raw text output. The concrete transport (the claude binary
// run as a subprocess) hides behind the Invoker interface so the filter
// stage stays transport-agnostic and unit-testable with a fake.
package judge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable reports that no judge binary could be located. Callers
// degrade to keyword filtering for the whole session instead of failing
// every call.
var ErrUnavailable = errors.New("judge CLI not available")

const binClaude = "claude"

// commonInstallPaths are checked when the binary is not on PATH.
var commonInstallPaths = []string{
	"~/.local/bin/claude",
	"/usr/local/bin/claude",
	"~/.claude/local/claude",
}

// Invoker runs one judgment call. Implementations own the per-call
// timeout; a timed-out call returns an error wrapping
// context.DeadlineExceeded.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Cleared so a judge running inside its own CLI session does not
	// refuse the nested invocation.
	cmd.Env = append(os.Environ(), "CLAUDECODE=")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.String(), nil
}

var defaultExec executor = &osExecutor{}

// CLIJudge invokes the claude CLI in print mode (-p) with a bounded
// timeout per call.
type CLIJudge struct {
	bin     string
	timeout time.Duration
	exec    executor
}

// NewCLIJudge locates the judge binary and returns a CLIJudge bound to
// it. Returns ErrUnavailable when the binary cannot be found; the
// timeout must be positive.
func NewCLIJudge(timeout time.Duration) (*CLIJudge, error) {
	return newCLIJudge(timeout, defaultExec)
}

func newCLIJudge(timeout time.Duration, exec executor) (*CLIJudge, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("judge timeout must be positive, got %v", timeout)
	}
	bin, err := findBinary(exec)
	if err != nil {
		return nil, err
	}
	return &CLIJudge{bin: bin, timeout: timeout, exec: exec}, nil
}

// findBinary checks PATH first, then well-known install locations.
func findBinary(exec executor) (string, error) {
	if path, err := exec.LookPath(binClaude); err == nil && path != "" {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	for _, p := range commonInstallPaths {
		path := p
		if strings.HasPrefix(path, "~/") && home != "" {
			path = home + path[1:]
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 != 0 {
			return path, nil
		}
	}

	return "", ErrUnavailable
}

// Invoke runs one judgment call and returns the trimmed raw response.
func (j *CLIJudge) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	out, err := j.exec.Run(ctx, j.bin, "-p", prompt)
	if err != nil {
		return "", fmt.Errorf("invoking judge: %w", err)
	}
	return strings.TrimSpace(out), nil
}
