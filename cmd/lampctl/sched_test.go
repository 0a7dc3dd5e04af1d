package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestSchedCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"sched", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("sched --help failed: %v", err)
	}
	if !strings.Contains(buf.String(), "schedules") {
		t.Errorf("expected help to mention schedules, got: %s", buf.String())
	}
}

func TestSchedCmd_RejectsBadSchedule(t *testing.T) {
	configPath := writeConfig(t, "backup:\n  root: "+t.TempDir()+"\n  schedule: \"not a schedule\"\n")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"sched", "--config", configPath})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
