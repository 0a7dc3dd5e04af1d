package systemd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avelichko/lampctl/internal/runner"
)

func TestUnitName(t *testing.T) {
	if got := UnitName("mysql_server"); got != "container-mysql_server.service" {
		t.Errorf("UnitName = %q", got)
	}
}

func TestRender(t *testing.T) {
	text, err := Render("apache2_server")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Description=Podman container apache2_server",
		"Restart=always",
		"After=network-online.target",
		"ExecStart=/usr/bin/podman start -a apache2_server",
		"ExecStop=/usr/bin/podman stop -t 10 apache2_server",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("unit missing %q:\n%s", want, text)
		}
	}
}

func TestInstall(t *testing.T) {
	dir := t.TempDir()
	f := runner.NewFake()
	var buf bytes.Buffer

	if err := Install(context.Background(), f, dir, "mysql_server", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "container-mysql_server.service"))
	if err != nil {
		t.Fatalf("unit file not written: %v", err)
	}
	if !strings.Contains(string(data), "mysql_server") {
		t.Errorf("unit content = %s", data)
	}

	calls := f.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %v", calls)
	}
	if calls[0] != "systemctl daemon-reload" {
		t.Errorf("calls[0] = %q", calls[0])
	}
	if calls[1] != "systemctl enable container-mysql_server.service" {
		t.Errorf("calls[1] = %q", calls[1])
	}
}

func TestInstall_EnableFailure(t *testing.T) {
	f := runner.NewFake()
	f.Fail("systemctl enable", "unit masked")

	err := Install(context.Background(), f, t.TempDir(), "phpmyadmin", new(bytes.Buffer))
	if err == nil {
		t.Fatal("expected enable failure")
	}
	if !strings.Contains(err.Error(), "enable") {
		t.Errorf("error = %v", err)
	}
}
