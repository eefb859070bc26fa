// Package logbook keeps an append-only journal of task mutations.
package logbook

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Action names the kind of mutation an entry records.
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionStatus Action = "STATUS"
)

// Logbook persists mutation history to a simple text file.
type Logbook struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// Option customizes a Logbook during construction.
type Option func(*Logbook)

// WithClock overrides the clock used to stamp entries.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.now = clock
		}
	}
}

// New creates a logbook that writes to path. Nothing touches the disk until
// the first entry is appended.
func New(path string, opts ...Option) *Logbook {
	l := &Logbook{path: path, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends one entry for task id. A nil logbook discards entries.
func (l *Logbook) Record(action Action, id int, format string, args ...any) error {
	if l == nil || l.path == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	detail := strings.Join(strings.Fields(fmt.Sprintf(format, args...)), " ")
	line := fmt.Sprintf("%s %-6s #%d %s\n",
		l.now().UTC().Format(time.RFC3339),
		string(action),
		id,
		detail,
	)
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("logbook: ensure dir: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logbook: open: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("logbook: append: %w", err)
	}
	return nil
}

// Tail returns up to maxLines of the most recent entries along with the total
// number of entries on disk. A missing file yields no lines.
func (l *Logbook) Tail(maxLines int) ([]string, int, error) {
	if l == nil || maxLines <= 0 {
		return nil, 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("logbook: open: %w", err)
	}
	defer file.Close()

	// Entries carry whole task descriptions, so lines have no length cap.
	var lines []string
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if text := strings.TrimRight(line, "\r\n"); strings.TrimSpace(text) != "" {
			lines = append(lines, text)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("logbook: read: %w", err)
		}
	}
	total := len(lines)
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total, nil
}
