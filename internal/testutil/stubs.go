// Package testutil provides stub executables standing in for the wrapped
// Privilege Manager binaries during tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// StubTool writes an executable shell script named name into dir and
// returns its path.
func StubTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + script + "\n"
	if err := os.WriteFile(path, []byte(content), 0755); err != nil { //nolint:gosec // test executable
		t.Fatal(err)
	}
	return path
}

// RecordingTool creates a stub that appends its argument vector to a record
// file (one invocation per line) and exits with exitCode. It returns the
// tool path and the record file path.
func RecordingTool(t *testing.T, dir, name string, exitCode int) (string, string) {
	t.Helper()
	record := filepath.Join(dir, name+".record")
	script := `echo "$@" >> ` + record + `
exit ` + itoa(exitCode)
	return StubTool(t, dir, name, script), record
}

// Invocations reads the record file written by a RecordingTool. A missing
// file means the tool was never invoked.
func Invocations(t *testing.T, record string) []string {
	t.Helper()
	data, err := os.ReadFile(record)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

// CheckoutTool creates a pmpolicy stub whose checkout subcommand populates
// the destination directory with a default policy, mimicking a successful
// fetch from the remote repository. Other subcommands are recorded and
// succeed.
func CheckoutTool(t *testing.T, dir string) (string, string) {
	t.Helper()
	record := filepath.Join(dir, "pmpolicy.record")
	script := `echo "$@" >> ` + record + `
if [ "$1" = "checkout" ]; then
  mkdir -p "$3/sudoers"
  echo "root ALL=(ALL) ALL" > "$3/sudoers/sudoers"
fi`
	return StubTool(t, dir, "pmpolicy", script), record
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
