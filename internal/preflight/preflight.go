// Package preflight verifies host prerequisites before provisioning: OS
// identity, effective privilege, and the podman/certbot binaries (installed
// via apt when absent).
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/avelichko/lampctl/internal/runner"
)

// OSReleasePath is the standard os-release location. Tests point it elsewhere.
const OSReleasePath = "/etc/os-release"

// Overridable for tests.
var (
	geteuid  = os.Geteuid
	lookPath = exec.LookPath
)

// OSInfo describes the host distribution as reported by os-release.
type OSInfo struct {
	ID         string
	VersionID  string
	PrettyName string
}

// CheckRoot returns an error unless the process runs with effective UID 0.
func CheckRoot() error {
	if geteuid() != 0 {
		return fmt.Errorf("preflight: must run as root (try sudo)")
	}
	return nil
}

// CheckOS parses the os-release file at path and verifies the host is Ubuntu.
func CheckOS(path string) (*OSInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preflight: read %s: %w", path, err)
	}
	info := parseOSRelease(string(data))
	if info.ID != "ubuntu" {
		return nil, fmt.Errorf("preflight: unsupported distribution %q (Ubuntu required)", info.ID)
	}
	return info, nil
}

// parseOSRelease extracts ID, VERSION_ID and PRETTY_NAME from os-release text.
func parseOSRelease(text string) *OSInfo {
	info := &OSInfo{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		val = strings.Trim(val, `"`)
		switch key {
		case "ID":
			info.ID = val
		case "VERSION_ID":
			info.VersionID = val
		case "PRETTY_NAME":
			info.PrettyName = val
		}
	}
	return info
}

// EnsurePodman verifies the podman binary is available, installing it via apt
// when absent. Installation failure is fatal: nothing downstream can proceed.
func EnsurePodman(ctx context.Context, r runner.Runner, out io.Writer) error {
	return ensureBinary(ctx, r, out, "podman")
}

// EnsureCertbot verifies the certbot binary is available, installing it via
// apt when absent. Callers gate this on a domain being configured.
func EnsureCertbot(ctx context.Context, r runner.Runner, out io.Writer) error {
	return ensureBinary(ctx, r, out, "certbot")
}

func ensureBinary(ctx context.Context, r runner.Runner, out io.Writer, name string) error {
	if _, err := lookPath(name); err == nil {
		version, verr := r.Output(ctx, name, "--version")
		if verr == nil {
			fmt.Fprintf(out, "%s is already installed (%s)\n", name, strings.TrimSpace(version))
		} else {
			fmt.Fprintf(out, "%s is already installed\n", name)
		}
		return nil
	}

	fmt.Fprintf(out, "%s not found. Installing...\n", name)
	if err := r.Run(ctx, "apt-get", "update"); err != nil {
		return fmt.Errorf("preflight: apt-get update: %w", err)
	}
	if err := r.Run(ctx, "apt-get", "install", "-y", name); err != nil {
		return fmt.Errorf("preflight: install %s: %w", name, err)
	}
	fmt.Fprintf(out, "%s installed successfully.\n", name)
	return nil
}

// EnablePodmanSocket enables the podman systemd socket so the API endpoint
// survives reboots.
func EnablePodmanSocket(ctx context.Context, r runner.Runner) error {
	if err := r.Run(ctx, "systemctl", "enable", "--now", "podman.socket"); err != nil {
		return fmt.Errorf("preflight: enable podman.socket: %w", err)
	}
	return nil
}
