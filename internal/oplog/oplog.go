package oplog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level tags an entry with its outcome severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Logger writes append-only operation records. A nil *Logger is a safe
// no-op, so callers keep working when the log file cannot be opened.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// Open opens (creating if needed) the operation log for appending.
func Open(path string) (*Logger, error) {
	if path == "" {
		return nil, fmt.Errorf("operation log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening operation log: %w", err)
	}
	return &Logger{file: f, now: time.Now}, nil
}

// Success records a completed operation.
func (l *Logger) Success(op, format string, args ...any) {
	l.append(LevelSuccess, op, format, args...)
}

// Warning records a declined confirmation, cancel, or other non-error
// outcome worth noting.
func (l *Logger) Warning(op, format string, args ...any) {
	l.append(LevelWarning, op, format, args...)
}

// Error records a failed operation.
func (l *Logger) Error(op, format string, args ...any) {
	l.append(LevelError, op, format, args...)
}

func (l *Logger) append(level Level, op, format string, args ...any) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	msg = strings.ReplaceAll(msg, "\n", " ")
	id := uuid.NewString()[:8]
	line := fmt.Sprintf("%s level=%s op=%s id=%s msg=%q\n",
		l.now().UTC().Format(time.RFC3339), level, op, id, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_, _ = l.file.WriteString(line)
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
