// Package runner abstracts external command execution so the podman,
// certbot, systemctl, crontab and tar invocations can be faked in tests.
package runner

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes external commands.
type Runner interface {
	// Run executes the command, discarding output on success. On failure the
	// returned error includes the trimmed combined output.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// RunWithStdin executes the command feeding stdin from r.
	RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error
	// RunWithStdout executes the command streaming stdout to w.
	RunWithStdout(ctx context.Context, stdout io.Writer, name string, args ...string) error
}

// Real is the production implementation that executes commands via os/exec.
type Real struct{}

func (Real) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return wrapExecErr(name, args, out, err)
	}
	return nil
}

func (Real) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		detail := out
		if ee, ok := err.(*exec.ExitError); ok {
			detail = ee.Stderr
		}
		return "", wrapExecErr(name, args, detail, err)
	}
	return string(out), nil
}

func (Real) RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	if out, err := cmd.CombinedOutput(); err != nil {
		return wrapExecErr(name, args, out, err)
	}
	return nil
}

func (Real) RunWithStdout(ctx context.Context, stdout io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapExecErr(name, args, []byte(stderr.String()), err)
	}
	return nil
}

func wrapExecErr(name string, args []string, out []byte, err error) error {
	detail := strings.TrimSpace(string(out))
	if detail == "" {
		return fmt.Errorf("run %s: %w", commandLine(name, args), err)
	}
	return fmt.Errorf("run %s: %s: %w", commandLine(name, args), detail, err)
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
