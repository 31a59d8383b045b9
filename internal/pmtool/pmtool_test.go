package pmtool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nyrich/Safeguard-Sudo-Menu/internal/config"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/testutil"
)

func newTestRunner(tools config.Tools) *Runner {
	return &Runner{Tools: tools, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
}

func TestAdd_argumentVector(t *testing.T) {
	dir := t.TempDir()
	tool, record := testutil.RecordingTool(t, dir, "pmpolicy", 0)
	r := newTestRunner(config.Tools{Pmpolicy: tool})

	ws := t.TempDir()
	if err := r.Add(ws, "webservers/sudoers", "web tier"); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	got := testutil.Invocations(t, record)
	if len(got) != 1 {
		t.Fatalf("invocations = %d, want 1", len(got))
	}
	want := "add -n -p webservers/sudoers -l web tier"
	if got[0] != want {
		t.Errorf("args = %q, want %q", got[0], want)
	}
}

func TestCheckout_argumentVector(t *testing.T) {
	dir := t.TempDir()
	tool, record := testutil.RecordingTool(t, dir, "pmpolicy", 0)
	r := newTestRunner(config.Tools{Pmpolicy: tool})

	if err := r.Checkout("/tmp/policydir"); err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}

	got := testutil.Invocations(t, record)
	if len(got) != 1 || got[0] != "checkout -d /tmp/policydir" {
		t.Errorf("invocations = %v, want [checkout -d /tmp/policydir]", got)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     bool
	}{
		{"valid file", 0, true},
		{"invalid syntax", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tool, record := testutil.RecordingTool(t, dir, "pmcheck", tt.exitCode)
			r := newTestRunner(config.Tools{Pmcheck: tool})

			ok, err := r.Valid("/tmp/sudoers", "sudo")
			if err != nil {
				t.Fatalf("Valid() error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("Valid() = %v, want %v", ok, tt.want)
			}

			got := testutil.Invocations(t, record)
			if len(got) != 1 || got[0] != "-t sudo /tmp/sudoers" {
				t.Errorf("invocations = %v, want [-t sudo /tmp/sudoers]", got)
			}
		})
	}
}

func TestValid_toolMissing(t *testing.T) {
	r := newTestRunner(config.Tools{Pmcheck: "/nonexistent/pmcheck"})
	_, err := r.Valid("/tmp/sudoers", "sudo")
	if err == nil {
		t.Fatal("expected error when the validator binary cannot run")
	}
}

func TestLogSearch_filters(t *testing.T) {
	tests := []struct {
		name   string
		filter SearchFilter
		want   string
	}{
		{"by user", SearchFilter{User: "alice"}, "-u alice"},
		{"by host", SearchFilter{Host: "web01"}, "-h web01"},
		{"date range", SearchFilter{After: "2026-08-01", Before: "2026-08-27"}, "-s 2026-08-01 -e 2026-08-27"},
		{"combined", SearchFilter{User: "bob", Host: "db01"}, "-u bob -h db01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tool, record := testutil.RecordingTool(t, dir, "pmlog", 0)
			r := newTestRunner(config.Tools{Pmlog: tool})

			if _, err := r.LogSearch(tt.filter); err != nil {
				t.Fatalf("LogSearch() error: %v", err)
			}
			got := testutil.Invocations(t, record)
			if len(got) != 1 || strings.TrimSpace(got[0]) != tt.want {
				t.Errorf("invocations = %v, want [%q]", got, tt.want)
			}
		})
	}
}

func TestOutput_capturesStderrOnFailure(t *testing.T) {
	dir := t.TempDir()
	tool := testutil.StubTool(t, dir, "failing", `echo "no license" >&2; exit 2`)
	r := newTestRunner(config.Tools{})

	_, err := r.Output("", tool)
	if err == nil {
		t.Fatal("expected error from failing tool")
	}
	if !strings.Contains(err.Error(), "no license") {
		t.Errorf("error = %q, want stderr included", err)
	}
}

func TestRun_failureSurfacesExitStatus(t *testing.T) {
	dir := t.TempDir()
	tool, _ := testutil.RecordingTool(t, dir, "pmpolicy", 3)
	r := newTestRunner(config.Tools{Pmpolicy: tool})

	err := r.Sync()
	if err == nil {
		t.Fatal("expected error from non-zero exit")
	}
	if !strings.Contains(err.Error(), "sync") {
		t.Errorf("error = %q, want command context", err)
	}
}

func TestInstalled(t *testing.T) {
	if !Installed("sh") {
		t.Error("Installed(sh) = false, want true")
	}
	if Installed("definitely-not-a-real-binary-pmmenu") {
		t.Error("Installed(nonexistent) = true, want false")
	}
}
