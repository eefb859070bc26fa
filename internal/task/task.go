// Package task defines the task model and the file-backed store that
// persists the whole task collection.
package task

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// ParseStatus converts user input into a Status. Matching ignores case and
// surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range Statuses {
		if candidate == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", raw)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// StatusNames returns the valid statuses joined for user-facing messages.
func StatusNames() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// TimestampLayout is the on-disk timestamp format. It is fixed width so the
// strings sort in time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// legacyLayouts are accepted on read for files written by older trackers.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// Timestamp is a point in time stored in UTC with microsecond precision.
// A value that matches no known layout is kept verbatim so it survives a
// save untouched.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp truncates t to the precision that survives a save/load cycle.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// Opaque reports whether ts holds an unparsed string instead of a time.
func (ts Timestamp) Opaque() bool { return ts.raw != "" }

// Equal reports whether ts and other hold the same instant, or the same
// unparsed string.
func (ts Timestamp) Equal(other Timestamp) bool {
	if ts.Opaque() || other.Opaque() {
		return ts.raw == other.raw
	}
	return ts.Time.Equal(other.Time)
}

func (ts Timestamp) String() string {
	if ts.Opaque() {
		return ts.raw
	}
	return ts.UTC().Format(TimestampLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails: text in
// an unknown layout is kept as an opaque value.
func (ts *Timestamp) UnmarshalText(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if t, err := time.Parse(TimestampLayout, raw); err == nil {
		*ts = NewTimestamp(t)
		return nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			*ts = NewTimestamp(t)
			return nil
		}
	}
	*ts = Timestamp{raw: string(data)}
	return nil
}

// MarshalJSON shadows the embedded time.Time encoding so the file keeps the
// fixed layout.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("task: timestamp must be a string: %w", err)
	}
	return ts.UnmarshalText([]byte(raw))
}

// Task is a single trackable work item.
type Task struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// Collection is the full set of tasks, persisted as one unit.
type Collection []Task

// NextID returns the identifier for the next task: one past the highest id
// in use, or 1 for an empty collection. Gaps left by deletions are not filled.
func NextID(c Collection) int {
	next := 1
	for _, t := range c {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return next
}

// Index returns the position of the task with id, or -1.
func (c Collection) Index(id int) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Without returns a copy of c with every task matching id removed.
func (c Collection) Without(id int) Collection {
	out := make(Collection, 0, len(c))
	for _, t := range c {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Filter returns the tasks matching status (all tasks when status is empty)
// sorted ascending by id. The receiver is not modified.
func (c Collection) Filter(status Status) Collection {
	out := make(Collection, 0, len(c))
	for _, t := range c {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
