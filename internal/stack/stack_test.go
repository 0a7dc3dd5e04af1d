package stack

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/runner"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestMySQLSpec_RunArgs(t *testing.T) {
	cfg := defaultConfig(t)
	args := MySQLSpec(cfg).RunArgs()
	line := strings.Join(args, " ")

	for _, want := range []string{
		"run -d --name mysql_server --network lamp_network",
		"-e MYSQL_ROOT_PASSWORD=1",
		"-e MYSQL_USER=user",
		"-e MYSQL_DATABASE=testdb",
		"-p 3306:3306",
		"-v mysql_data:/var/lib/mysql",
		"docker.io/library/mysql:8.0",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("run args missing %q:\n%s", want, line)
		}
	}

	// Image must come after all options.
	if args[len(args)-1] != "docker.io/library/mysql:8.0" {
		t.Errorf("image not last: %v", args)
	}
}

func TestWebSpec_HTTPOnly(t *testing.T) {
	cfg := defaultConfig(t)
	spec := WebSpec(cfg, false)
	line := strings.Join(spec.RunArgs(), " ")

	if !strings.Contains(line, "-p 80:80") || !strings.Contains(line, "-p 443:443") {
		t.Errorf("expected both port bindings, got %s", line)
	}
	if strings.Contains(line, "conf/certs") {
		t.Errorf("HTTP-only spec must not mount certs: %s", line)
	}
	if len(spec.Command) != 0 {
		t.Errorf("HTTP-only spec must not override command: %v", spec.Command)
	}
}

func TestWebSpec_SSL(t *testing.T) {
	cfg := defaultConfig(t)
	spec := WebSpec(cfg, true)
	line := strings.Join(spec.RunArgs(), " ")

	if !strings.Contains(line, "/opt/apache-ssl/certs:/usr/local/apache2/conf/certs:Z") {
		t.Errorf("missing cert mount: %s", line)
	}
	if !strings.Contains(line, "httpd-ssl.conf") {
		t.Errorf("missing ssl.conf mount: %s", line)
	}
	if !strings.Contains(line, "Include conf/extra/httpd-ssl.conf") {
		t.Errorf("missing SSL include bootstrap: %s", line)
	}
}

func TestAdminSpec(t *testing.T) {
	cfg := defaultConfig(t)
	line := strings.Join(AdminSpec(cfg).RunArgs(), " ")

	if !strings.Contains(line, "-e PMA_HOST=mysql_server") {
		t.Errorf("missing PMA_HOST: %s", line)
	}
	if !strings.Contains(line, "-p 8080:80") {
		t.Errorf("missing port binding: %s", line)
	}
}

func TestEnsureNetwork_AlreadyExists(t *testing.T) {
	f := runner.NewFake()
	var buf bytes.Buffer

	if err := EnsureNetwork(context.Background(), f, "lamp_network", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.CallCount("podman network create") != 0 {
		t.Error("network create should not run when the network exists")
	}
	if !strings.Contains(buf.String(), "already exists") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestEnsureNetwork_Creates(t *testing.T) {
	f := runner.NewFake()
	f.Fail("podman network exists", "no such network")
	var buf bytes.Buffer

	if err := EnsureNetwork(context.Background(), f, "lamp_network", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.CallCount("podman network create lamp_network") != 1 {
		t.Errorf("calls = %v", f.Calls())
	}
}

func TestLaunch_RemovesStaleContainerFirst(t *testing.T) {
	cfg := defaultConfig(t)
	f := runner.NewFake()
	var buf bytes.Buffer

	if err := Launch(context.Background(), f, MySQLSpec(cfg), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := f.Calls()
	if len(calls) != 3 {
		t.Fatalf("calls = %v, want stop/rm/run", calls)
	}
	if calls[0] != "podman stop mysql_server" || calls[1] != "podman rm mysql_server" {
		t.Errorf("stale cleanup missing: %v", calls)
	}
	if !strings.HasPrefix(calls[2], "podman run -d --name mysql_server") {
		t.Errorf("run not last: %v", calls)
	}
}

func TestLaunch_CreatesBindMountDirs(t *testing.T) {
	cfg := defaultConfig(t)
	dir := t.TempDir()
	cfg.Web.Root = filepath.Join(dir, "www")
	f := runner.NewFake()

	if err := Launch(context.Background(), f, WebSpec(cfg, false), new(bytes.Buffer)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := filepath.Glob(cfg.Web.Root); err != nil {
		t.Fatal(err)
	}
	if !dirExists(t, cfg.Web.Root) {
		t.Errorf("web root %s not created", cfg.Web.Root)
	}
}

func dirExists(t *testing.T, path string) bool {
	t.Helper()
	matches, _ := filepath.Glob(path)
	return len(matches) == 1
}

func TestLaunch_RunFailure(t *testing.T) {
	cfg := defaultConfig(t)
	f := runner.NewFake()
	f.Fail("podman run", "image pull failed")

	err := Launch(context.Background(), f, AdminSpec(cfg), new(bytes.Buffer))
	if err == nil {
		t.Fatal("expected launch failure")
	}
	if !strings.Contains(err.Error(), "phpmyadmin") {
		t.Errorf("error = %v, want container name", err)
	}
}

func TestRollback_RemovesInReverseOrder(t *testing.T) {
	f := runner.NewFake()
	var buf bytes.Buffer

	Rollback(context.Background(), f, []string{"a", "b"}, &buf)

	calls := f.Calls()
	want := []string{"podman stop b", "podman rm b", "podman stop a", "podman rm a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestStatus(t *testing.T) {
	f := runner.NewFake()
	f.Respond("podman ps --all",
		"mysql_server\tUp 2 days\napache2_server\tExited (0) 1 hour ago\n", nil)

	statuses, err := Status(context.Background(), f,
		[]string{"mysql_server", "apache2_server", "phpmyadmin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("len = %d, want 3", len(statuses))
	}
	if !statuses[0].Running {
		t.Errorf("mysql_server should be running: %+v", statuses[0])
	}
	if statuses[1].Running {
		t.Errorf("apache2_server should not be running: %+v", statuses[1])
	}
	if statuses[2].Status != "not created" {
		t.Errorf("phpmyadmin status = %q, want not created", statuses[2].Status)
	}
}
