package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/kingrea/task-cli/internal/logbook"
)

// DefaultFile is the backing file name used when no other path is configured.
const DefaultFile = "tasks.json"

// Store persists the task collection in a single JSON file. Every operation
// reads the whole collection, applies one change and rewrites the file.
type Store struct {
	path    string
	now     func() time.Time
	log     zerolog.Logger
	history *logbook.Logbook
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for task timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger attaches a diagnostic logger.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// WithHistory records every successful mutation in book.
func WithHistory(book *logbook.Logbook) StoreOption {
	return func(s *Store) {
		s.history = book
	}
}

// NewStore builds a store backed by the file at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load returns the persisted collection. A missing, unreadable or malformed
// file yields an empty collection; that is the normal first-run state.
func (s *Store) Load() Collection {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("unreadable task file, starting empty")
		}
		return Collection{}
	}
	var tasks Collection
	if err := json.Unmarshal(data, &tasks); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("malformed task file, starting empty")
		return Collection{}
	}
	if tasks == nil {
		tasks = Collection{}
	}
	for _, t := range tasks {
		if t.CreatedAt.Opaque() || t.UpdatedAt.Opaque() {
			s.log.Warn().Int("id", t.ID).Str("path", s.path).Msg("unrecognized timestamp kept verbatim")
		}
	}
	s.log.Debug().Str("path", s.path).Int("tasks", len(tasks)).Msg("loaded tasks")
	return tasks
}

// Save replaces the backing file with the serialized collection.
func (s *Store) Save(tasks Collection) error {
	data, err := Encode(tasks)
	if err != nil {
		return &PersistenceError{Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to save tasks")
		return &PersistenceError{Path: s.path, Err: err}
	}
	return nil
}

// Add creates a todo task with the given description and returns it.
func (s *Store) Add(description string) (Task, error) {
	tasks := s.Load()
	now := NewTimestamp(s.now())
	t := Task{
		ID:          NextID(tasks),
		Description: description,
		Status:      StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tasks = append(tasks, t)
	if err := s.Save(tasks); err != nil {
		return Task{}, err
	}
	s.log.Info().Int("id", t.ID).Msg("task added")
	s.record(logbook.ActionAdd, t.ID, "%s", description)
	return t, nil
}

// Update replaces the description of task id.
func (s *Store) Update(id int, description string) (Task, error) {
	tasks := s.Load()
	idx := tasks.Index(id)
	if idx < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	tasks[idx].Description = description
	tasks[idx].UpdatedAt = NewTimestamp(s.now())
	if err := s.Save(tasks); err != nil {
		return Task{}, err
	}
	s.log.Info().Int("id", id).Msg("task updated")
	s.record(logbook.ActionUpdate, id, "%s", description)
	return tasks[idx], nil
}

// Delete removes task id.
func (s *Store) Delete(id int) error {
	tasks := s.Load()
	remaining := tasks.Without(id)
	if len(remaining) == len(tasks) {
		return &NotFoundError{ID: id}
	}
	if err := s.Save(remaining); err != nil {
		return err
	}
	s.log.Info().Int("id", id).Msg("task deleted")
	s.record(logbook.ActionDelete, id, "removed")
	return nil
}

// SetStatus moves task id to status.
func (s *Store) SetStatus(id int, status Status) (Task, error) {
	tasks := s.Load()
	idx := tasks.Index(id)
	if idx < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	previous := tasks[idx].Status
	tasks[idx].Status = status
	tasks[idx].UpdatedAt = NewTimestamp(s.now())
	if err := s.Save(tasks); err != nil {
		return Task{}, err
	}
	s.log.Info().Int("id", id).Str("status", string(status)).Msg("task status changed")
	s.record(logbook.ActionStatus, id, "%s -> %s", previous, status)
	return tasks[idx], nil
}

// List returns the tasks matching status, or every task when status is
// empty, sorted by id. The caller is responsible for validating status.
func (s *Store) List(status Status) Collection {
	return s.Load().Filter(status)
}

func (s *Store) record(action logbook.Action, id int, format string, args ...any) {
	if err := s.history.Record(action, id, format, args...); err != nil {
		s.log.Warn().Err(err).Int("id", id).Msg("failed to record history")
	}
}

// Encode renders the collection in its on-disk form. The output depends only
// on the collection, so re-saving a loaded file reproduces it byte for byte.
func Encode(tasks Collection) ([]byte, error) {
	if tasks == nil {
		tasks = Collection{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place so readers never see a half-written collection. A symlinked path is
// followed so the link survives and its target is the file replaced. An
// existing file keeps its permission bits; perm only applies to new files.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	path = resolveSymlinks(path)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// resolveSymlinks follows path through any chain of symlinks, including one
// whose final target does not exist yet.
func resolveSymlinks(path string) string {
	const maxHops = 40
	for i := 0; i < maxHops; i++ {
		info, err := os.Lstat(path)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			return path
		}
		target, err := os.Readlink(path)
		if err != nil {
			return path
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return path
}
