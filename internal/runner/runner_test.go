package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestReal_Output(t *testing.T) {
	out, err := Real{}.Output(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("output = %q, want hello", out)
	}
}

func TestReal_RunFailureIncludesOutput(t *testing.T) {
	err := Real{}.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want to contain command output", err)
	}
}

func TestReal_RunWithStdin(t *testing.T) {
	err := Real{}.RunWithStdin(context.Background(), strings.NewReader("data\n"), "cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReal_RunWithStdout(t *testing.T) {
	var buf bytes.Buffer
	err := Real{}.RunWithStdout(context.Background(), &buf, "echo", "dump")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "dump" {
		t.Errorf("stdout = %q, want dump", buf.String())
	}
}

func TestFake_ScriptedResponses(t *testing.T) {
	f := NewFake()
	f.Respond("podman ps", "db1\tUp 3 days\n", nil)
	f.Fail("podman network create", "already exists")

	out, err := f.Output(context.Background(), "podman", "ps", "--all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "db1") {
		t.Errorf("output = %q, want scripted ps output", out)
	}

	if err := f.Run(context.Background(), "podman", "network", "create", "net"); err == nil {
		t.Error("expected scripted failure")
	}

	// Unscripted commands succeed.
	if err := f.Run(context.Background(), "systemctl", "daemon-reload"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	calls := f.Calls()
	if len(calls) != 3 {
		t.Fatalf("len(calls) = %d, want 3", len(calls))
	}
	if calls[0] != "podman ps --all" {
		t.Errorf("calls[0] = %q", calls[0])
	}
	if f.CallCount("podman") != 2 {
		t.Errorf("CallCount(podman) = %d, want 2", f.CallCount("podman"))
	}
}

func TestFake_CapturesStdin(t *testing.T) {
	f := NewFake()
	if err := f.RunWithStdin(context.Background(), strings.NewReader("0 2 * * * backup"), "crontab", "-"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Stdin("crontab -"); got != "0 2 * * * backup" {
		t.Errorf("Stdin = %q", got)
	}
}

func TestFake_LaterRegistrationWins(t *testing.T) {
	f := NewFake()
	f.Respond("podman", "first", nil)
	f.Respond("podman ps", "second", nil)

	out, err := f.Output(context.Background(), "podman", "ps")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "second" {
		t.Errorf("output = %q, want second", out)
	}
}
