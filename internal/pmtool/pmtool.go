package pmtool

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/nyrich/Safeguard-Sudo-Menu/internal/config"
)

// Runner executes the wrapped binaries. Stdout and Stderr default to the
// process streams; tests redirect them.
type Runner struct {
	Tools  config.Tools
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a Runner wired to the process stdout/stderr.
func New(tools config.Tools) *Runner {
	return &Runner{Tools: tools, Stdout: os.Stdout, Stderr: os.Stderr}
}

// --- pmpolicy: the policy repository tool ---

// Checkout materializes a fresh policy workspace at dest.
func (r *Runner) Checkout(dest string) error {
	return r.Run("", r.Tools.Pmpolicy, "checkout", "-d", dest)
}

// Add stages the policy file at relPath (relative to the workspace) with a
// human-readable description. The -n flag keeps the add non-destructive;
// duplicate names are left for the server to arbitrate.
func (r *Runner) Add(workspace, relPath, description string) error {
	return r.Run(workspace, r.Tools.Pmpolicy, "add", "-n", "-p", relPath, "-l", description)
}

// Commit applies staged changes to the live repository.
func (r *Runner) Commit(workspace string) error {
	return r.Run(workspace, r.Tools.Pmpolicy, "commit")
}

// Log prints the repository change history.
func (r *Runner) Log() error {
	return r.Run("", r.Tools.Pmpolicy, "log")
}

// Diff prints the differences between two repository revisions.
func (r *Runner) Diff(revA, revB string) error {
	return r.Run("", r.Tools.Pmpolicy, "diff", "-r", revA, "-r", revB)
}

// Sync synchronizes the policy servers.
func (r *Runner) Sync() error {
	return r.Run("", r.Tools.Pmpolicy, "sync")
}

// MasterStatus reports the state of the master policy server.
func (r *Runner) MasterStatus() error {
	return r.Run("", r.Tools.Pmpolicy, "masterstatus")
}

// --- pmcheck: the syntax validator ---

// Valid runs the validator against a rule file. Exit status zero means the
// file is valid; a non-zero exit is reported as invalid, not as an error.
// Errors are reserved for the validator failing to run at all.
func (r *Runner) Valid(file, mode string) (bool, error) {
	args := []string{}
	if mode != "" {
		args = append(args, "-t", mode)
	}
	args = append(args, file)

	cmd := exec.Command(r.Tools.Pmcheck, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, fmt.Errorf("%s %s: %w", r.Tools.Pmcheck, strings.Join(args, " "), err)
}

// --- pmlog / pmreplay: event logs ---

// SearchFilter narrows an event log search. Zero values are omitted from
// the argument vector.
type SearchFilter struct {
	User   string
	Host   string
	After  string // date, inclusive
	Before string // date, inclusive
}

// LogSearch runs pmlog with the given filters and returns its output.
func (r *Runner) LogSearch(f SearchFilter) (string, error) {
	args := []string{}
	if f.User != "" {
		args = append(args, "-u", f.User)
	}
	if f.Host != "" {
		args = append(args, "-h", f.Host)
	}
	if f.After != "" {
		args = append(args, "-s", f.After)
	}
	if f.Before != "" {
		args = append(args, "-e", f.Before)
	}
	return r.Output("", r.Tools.Pmlog, args...)
}

// Replay replays a recorded session log. pmreplay drives the terminal
// directly, so stdin is attached and the call blocks until it exits.
func (r *Runner) Replay(logfile string) error {
	cmd := exec.Command(r.Tools.Pmreplay, logfile)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// --- generic passthroughs ---

// Run executes a binary with the given argument vector, streaming output.
// dir may be empty to inherit the current directory.
func (r *Runner) Run(dir, bin string, args ...string) error {
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return nil
}

// Output executes a binary and returns its stdout. Stderr is captured and
// included in the error message on failure.
func (r *Runner) Output(dir, bin string, args ...string) (string, error) {
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// Installed reports whether a binary is resolvable. Bare names are looked
// up on PATH; explicit paths are checked directly.
func Installed(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}
