package sync

import (
	"fmt"
	"os"
	"sync"

	apperrors "satu-amo-bridge/internal/common/errors"
)

// EventLog is the append-only human-readable outcome log, one
// "<timestamp> -- Loaded <n>" line per tenant batch. Diagnostic
// logging goes through zap separately.
type EventLog struct {
	mu   sync.Mutex
	path string
}

func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

// Append records one batch outcome.
func (l *EventLog) Append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("failed to append to event log: %w", err)
	}
	return nil
}

// Read returns the raw accumulated log text.
func (l *EventLog) Read() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return "", apperrors.NewNotFoundError("log file not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read event log: %w", err)
	}
	return string(data), nil
}
