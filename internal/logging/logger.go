package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Logger writes structured diagnostic events to a file under the project
// directory so failures can be inspected after the command exits.
type Logger struct {
	zerolog.Logger
	file *lazyFile
}

// New builds a logger for path at the given level. The file is created on the
// first event that passes the level filter. Level "disabled" or an empty path
// yields a logger that discards everything.
func New(path, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if lvl == zerolog.Disabled || strings.TrimSpace(path) == "" {
		return &Logger{Logger: zerolog.Nop()}, nil
	}
	f := &lazyFile{path: path}
	zl := zerolog.New(f).
		Level(lvl).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
	return &Logger{Logger: zl, file: f}, nil
}

// ParseLevel accepts the level names used in config files.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", level)
	}
	return lvl, nil
}

// Close releases the file handle if one was opened.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// lazyFile opens its target in append mode on the first write.
type lazyFile struct {
	path string
	mu   sync.Mutex
	f    *os.File
	err  error
}

var _ io.WriteCloser = (*lazyFile)(nil)

func (lf *lazyFile) Write(p []byte) (int, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.f == nil && lf.err == nil {
		lf.f, lf.err = openLogFile(lf.path)
	}
	if lf.err != nil {
		return 0, lf.err
	}
	return lf.f.Write(p)
}

func (lf *lazyFile) Close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.f == nil {
		return nil
	}
	err := lf.f.Close()
	lf.f = nil
	return err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return f, nil
}
