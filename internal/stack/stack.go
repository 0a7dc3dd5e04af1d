package stack

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avelichko/lampctl/internal/runner"
)

// EnsureNetwork creates the named podman network if it does not exist.
// Idempotent: an existing network is reported and left alone.
func EnsureNetwork(ctx context.Context, r runner.Runner, name string, out io.Writer) error {
	if err := r.Run(ctx, "podman", "network", "exists", name); err == nil {
		fmt.Fprintf(out, "Network %s already exists\n", name)
		return nil
	}
	if err := r.Run(ctx, "podman", "network", "create", name); err != nil {
		return fmt.Errorf("stack: create network %s: %w", name, err)
	}
	fmt.Fprintf(out, "Network %s created\n", name)
	return nil
}

// Launch starts a container from spec. Any stale container of the same name
// is stopped and removed first, so re-running leaves exactly one instance.
// Host directories for bind-mounted volumes are created as needed.
func Launch(ctx context.Context, r runner.Runner, spec ContainerSpec, out io.Writer) error {
	// Stale container cleanup; errors here mean "nothing to clean".
	_ = r.Run(ctx, "podman", "stop", spec.Name)
	_ = r.Run(ctx, "podman", "rm", spec.Name)

	for _, v := range spec.Volumes {
		src, _, ok := strings.Cut(v, ":")
		if !ok || !strings.HasPrefix(src, "/") {
			continue // named volume, podman manages it
		}
		if looksLikeFile(src) {
			continue
		}
		if err := os.MkdirAll(src, 0o755); err != nil {
			return fmt.Errorf("stack: create volume dir %s: %w", src, err)
		}
	}

	if err := r.Run(ctx, "podman", spec.RunArgs()...); err != nil {
		return fmt.Errorf("stack: launch %s: %w", spec.Name, err)
	}
	fmt.Fprintf(out, "Container %s started\n", spec.Name)
	return nil
}

// looksLikeFile reports whether the bind source is an existing regular file
// (single-file mounts such as the SSL vhost config).
func looksLikeFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Stop stops a container. A failure is returned but callers frequently
// ignore it when the container may not be running.
func Stop(ctx context.Context, r runner.Runner, name string) error {
	if err := r.Run(ctx, "podman", "stop", name); err != nil {
		return fmt.Errorf("stack: stop %s: %w", name, err)
	}
	return nil
}

// Start starts an existing container.
func Start(ctx context.Context, r runner.Runner, name string) error {
	if err := r.Run(ctx, "podman", "start", name); err != nil {
		return fmt.Errorf("stack: start %s: %w", name, err)
	}
	return nil
}

// Restart restarts a container.
func Restart(ctx context.Context, r runner.Runner, name string) error {
	if err := r.Run(ctx, "podman", "restart", name); err != nil {
		return fmt.Errorf("stack: restart %s: %w", name, err)
	}
	return nil
}

// Remove stops and removes a container, ignoring stop failures.
func Remove(ctx context.Context, r runner.Runner, name string) error {
	_ = r.Run(ctx, "podman", "stop", name)
	if err := r.Run(ctx, "podman", "rm", name); err != nil {
		return fmt.Errorf("stack: remove %s: %w", name, err)
	}
	return nil
}

// Rollback removes the named containers, logging per-container failures to
// out. Used by atomic provisioning to undo a partially-applied run.
func Rollback(ctx context.Context, r runner.Runner, names []string, out io.Writer) {
	for i := len(names) - 1; i >= 0; i-- {
		if err := Remove(ctx, r, names[i]); err != nil {
			fmt.Fprintf(out, "rollback: %v\n", err)
		} else {
			fmt.Fprintf(out, "Rolled back container %s\n", names[i])
		}
	}
}

// Inspect returns the raw podman inspect JSON for a container.
func Inspect(ctx context.Context, r runner.Runner, name string) (string, error) {
	out, err := r.Output(ctx, "podman", "inspect", name)
	if err != nil {
		return "", fmt.Errorf("stack: inspect %s: %w", name, err)
	}
	return out, nil
}
