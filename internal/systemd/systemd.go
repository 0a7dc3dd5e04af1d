// Package systemd generates and enables the per-container service units so
// the stack survives reboots.
package systemd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/avelichko/lampctl/internal/runner"
)

// DefaultUnitDir is where generated units are installed.
const DefaultUnitDir = "/etc/systemd/system"

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=Podman container {{.Container}}
Wants=network-online.target
After=network-online.target

[Service]
Restart=always
TimeoutStopSec=70
ExecStart=/usr/bin/podman start -a {{.Container}}
ExecStop=/usr/bin/podman stop -t 10 {{.Container}}

[Install]
WantedBy=multi-user.target
`))

// UnitName returns the service unit name for a container.
func UnitName(container string) string {
	return "container-" + container + ".service"
}

// Render produces the unit file text for a container.
func Render(container string) (string, error) {
	var sb strings.Builder
	err := unitTemplate.Execute(&sb, struct{ Container string }{container})
	if err != nil {
		return "", fmt.Errorf("systemd: render unit for %s: %w", container, err)
	}
	return sb.String(), nil
}

// Install writes the container's unit file into unitDir, reloads systemd and
// enables the unit so the container restarts on boot and on failure.
func Install(ctx context.Context, r runner.Runner, unitDir, container string, out io.Writer) error {
	text, err := Render(container)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		return fmt.Errorf("systemd: create %s: %w", unitDir, err)
	}
	name := UnitName(container)
	path := filepath.Join(unitDir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("systemd: write %s: %w", path, err)
	}

	if err := r.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemd: daemon-reload: %w", err)
	}
	if err := r.Run(ctx, "systemctl", "enable", name); err != nil {
		return fmt.Errorf("systemd: enable %s: %w", name, err)
	}
	fmt.Fprintf(out, "%s auto-start enabled\n", container)
	return nil
}
