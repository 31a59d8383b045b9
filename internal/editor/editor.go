// Package editor opens rule files in the operator's interactive text
// editor. The capability is an interface so tests can substitute a stub.
package editor

import (
	"fmt"
	"os"
	"os/exec"
)

// Editor opens a file for interactive editing and blocks until the
// operator closes the session.
type Editor interface {
	Open(path string) error
}

// Exec launches a configured editor binary attached to the terminal.
// An empty Command falls back to $EDITOR, then vi.
type Exec struct {
	Command string
}

func (e Exec) Open(path string) error {
	bin := e.Command
	if bin == "" {
		bin = os.Getenv("EDITOR")
	}
	if bin == "" {
		bin = "vi"
	}

	cmd := exec.Command(bin, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editing %s with %s: %w", path, bin, err)
	}
	return nil
}

// Resolve returns the binary Exec would launch, for diagnostics.
func (e Exec) Resolve() string {
	if e.Command != "" {
		return e.Command
	}
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	return "vi"
}
