package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/task-cli/internal/logbook"
	"github.com/kingrea/task-cli/internal/task"
)

type harness struct {
	app    *App
	store  *task.Store
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	store := task.NewStore(filepath.Join(dir, task.DefaultFile), task.WithClock(clock))
	h := &harness{store: store, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, dir: dir}
	base := []Option{WithOutput(h.stdout, h.stderr), WithWorkDir(dir)}
	h.app = New(store, append(base, opts...)...)
	return h
}

// run executes one invocation and returns its exit code, resetting buffers first.
func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	return h.app.Run(args)
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if code := h.run(args...); code != ExitSuccess {
		t.Fatalf("%v: exit %d, stderr %q", args, code, h.stderr.String())
	}
	return h.stdout.String()
}

func TestRunWithoutCommandPrintsUsage(t *testing.T) {
	h := newHarness(t)
	if code := h.run(); code != ExitFailure {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(h.stdout.String(), "Task Tracker CLI - Usage:") {
		t.Fatalf("usage missing from stdout: %q", h.stdout.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	if code := h.run("Frobnicate"); code != ExitFailure {
		t.Fatalf("exit = %d, want 1", code)
	}
	if got := h.stderr.String(); got != "Error: Unknown command 'frobnicate'\n" {
		t.Fatalf("stderr = %q", got)
	}
	if !strings.Contains(h.stdout.String(), "task-cli mark-done <id>") {
		t.Fatalf("usage missing after unknown command: %q", h.stdout.String())
	}
}

func TestAddJoinsArgumentsAndPrintsID(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun(t, "add", "Buy", "groceries"); out != "Task added successfully (ID: 1)\n" {
		t.Fatalf("stdout = %q", out)
	}
	if out := h.mustRun(t, "ADD", "Cook dinner"); out != "Task added successfully (ID: 2)\n" {
		t.Fatalf("stdout = %q", out)
	}
	tasks := h.store.Load()
	if len(tasks) != 2 || tasks[0].Description != "Buy groceries" {
		t.Fatalf("stored tasks = %+v", tasks)
	}
}

func TestArgumentErrors(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"add"}, "Error: Please provide a task description\n"},
		{[]string{"update", "1"}, "Error: Please provide task ID and new description\n"},
		{[]string{"delete"}, "Error: Please provide task ID\n"},
		{[]string{"mark-in-progress"}, "Error: Please provide task ID\n"},
		{[]string{"mark-done"}, "Error: Please provide task ID\n"},
		{[]string{"delete", "abc"}, "Error: Invalid task ID. Please provide a valid number.\n"},
		{[]string{"update", "x1", "text"}, "Error: Invalid task ID. Please provide a valid number.\n"},
		{[]string{"mark-done", "1.5"}, "Error: Invalid task ID. Please provide a valid number.\n"},
		{[]string{"list", "Bogus"}, "Error: Invalid status 'bogus'. Valid statuses are: todo, in-progress, done\n"},
		{[]string{"history", "zero"}, "Error: Invalid count 'zero'. Please provide a positive number.\n"},
	}
	for _, tc := range cases {
		h := newHarness(t)
		if code := h.run(tc.args...); code != ExitFailure {
			t.Errorf("%v: exit = %d, want 1", tc.args, code)
		}
		if got := h.stderr.String(); got != tc.want {
			t.Errorf("%v: stderr = %q, want %q", tc.args, got, tc.want)
		}
		if h.stdout.Len() != 0 {
			t.Errorf("%v: unexpected stdout %q", tc.args, h.stdout.String())
		}
	}
}

func TestInvalidFilterDoesNotTouchStore(t *testing.T) {
	h := newHarness(t)
	if code := h.run("list", "bogus"); code != ExitFailure {
		t.Fatalf("exit = %d, want 1", code)
	}
	if _, err := os.Stat(h.store.Path()); !os.IsNotExist(err) {
		t.Fatalf("backing file should not exist, stat err = %v", err)
	}
}

func TestNotFoundErrors(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "add", "only")
	for _, args := range [][]string{
		{"update", "9", "nothing"},
		{"delete", "9"},
		{"mark-in-progress", "9"},
		{"mark-done", "9"},
	} {
		if code := h.run(args...); code != ExitFailure {
			t.Errorf("%v: exit = %d, want 1", args, code)
		}
		if got := h.stderr.String(); got != "Error: Task with ID 9 not found\n" {
			t.Errorf("%v: stderr = %q", args, got)
		}
	}
	if n := len(h.store.Load()); n != 1 {
		t.Fatalf("collection size = %d, want 1", n)
	}
}

func TestMutationMessages(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "add", "write report")

	if out := h.mustRun(t, "update", "1", "write", "final", "report"); out != "Task updated successfully (ID: 1)\n" {
		t.Fatalf("update stdout = %q", out)
	}
	if out := h.mustRun(t, "mark-in-progress", "1"); out != "Task marked as in-progress (ID: 1)\n" {
		t.Fatalf("mark-in-progress stdout = %q", out)
	}
	if out := h.mustRun(t, "mark-done", "1"); out != "Task marked as done (ID: 1)\n" {
		t.Fatalf("mark-done stdout = %q", out)
	}
	got := h.store.Load()[0]
	if got.Description != "write final report" || got.Status != task.StatusDone {
		t.Fatalf("stored task = %+v", got)
	}
	if out := h.mustRun(t, "delete", "1"); out != "Task deleted successfully (ID: 1)\n" {
		t.Fatalf("delete stdout = %q", out)
	}
	if n := len(h.store.Load()); n != 0 {
		t.Fatalf("collection size after delete = %d", n)
	}
}

func TestListOutput(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun(t, "list"); out != "\nAll Tasks:\nNo tasks found.\n" {
		t.Fatalf("empty list stdout = %q", out)
	}

	h.mustRun(t, "add", "first")
	h.mustRun(t, "add", "second")
	h.mustRun(t, "add", "third")
	h.mustRun(t, "mark-done", "3")
	h.mustRun(t, "mark-done", "1")

	out := h.mustRun(t, "list", "DONE")
	if !strings.HasPrefix(out, "\nTasks with status 'done':\n") {
		t.Fatalf("filtered header missing: %q", out)
	}
	first := strings.Index(out, "ID: 1")
	third := strings.Index(out, "ID: 3")
	if first < 0 || third < 0 || first > third {
		t.Fatalf("expected ids 1 then 3 in %q", out)
	}
	if strings.Contains(out, "ID: 2") {
		t.Fatalf("todo task leaked into done filter: %q", out)
	}
	for _, want := range []string{
		"Description: first",
		"Status: done",
		"Created: 2024-05-01T09:30:00.000000Z",
		"Updated: 2024-05-01T09:30:00.000000Z",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	all := h.mustRun(t, "list")
	if strings.Count(all, "ID: ") != 3 {
		t.Fatalf("list without filter should show 3 tasks:\n%s", all)
	}

	if out := h.mustRun(t, "list", "in-progress"); out != "\nTasks with status 'in-progress':\nNo tasks found.\n" {
		t.Fatalf("empty filtered list = %q", out)
	}
}

func TestPersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app := New(task.NewStore(filepath.Join(blocker, "tasks.json")), WithOutput(stdout, stderr))
	if code := app.Run([]string{"add", "doomed"}); code != ExitFailure {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr.String(), "Error saving tasks: ") {
		t.Fatalf("stderr = %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	book := logbook.New(filepath.Join(dir, "history.log"))
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	store := task.NewStore(filepath.Join(dir, "tasks.json"), task.WithHistory(book))
	app := New(store, WithOutput(stdout, stderr), WithHistory(book))

	if code := app.Run([]string{"history"}); code != ExitSuccess || stdout.String() != "No history recorded.\n" {
		t.Fatalf("empty history: exit %d stdout %q", code, stdout.String())
	}
	for _, args := range [][]string{{"add", "one"}, {"add", "two"}, {"mark-done", "2"}} {
		if code := app.Run(args); code != ExitSuccess {
			t.Fatalf("%v: exit %d stderr %q", args, code, stderr.String())
		}
	}
	stdout.Reset()
	if code := app.Run([]string{"history", "2"}); code != ExitSuccess {
		t.Fatalf("history exit %d", code)
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("history output = %q", stdout.String())
	}
	if !strings.Contains(lines[0], "ADD    #2 two") || !strings.Contains(lines[1], "STATUS #2 todo -> done") {
		t.Fatalf("history lines = %q", lines)
	}
	if lines[2] != "(showing 2 of 3 entries)" {
		t.Fatalf("footer = %q", lines[2])
	}
}

func TestHistoryAfterVeryLongDescription(t *testing.T) {
	dir := t.TempDir()
	book := logbook.New(filepath.Join(dir, "history.log"))
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	store := task.NewStore(filepath.Join(dir, "tasks.json"), task.WithHistory(book))
	app := New(store, WithOutput(stdout, stderr), WithHistory(book))

	for _, args := range [][]string{{"add", strings.Repeat("x", 70000)}, {"add", "short"}} {
		if code := app.Run(args); code != ExitSuccess {
			t.Fatalf("add: exit %d stderr %q", code, stderr.String())
		}
	}
	stdout.Reset()
	if code := app.Run([]string{"history"}); code != ExitSuccess {
		t.Fatalf("history exit %d stderr %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "ADD    #2 short") {
		t.Fatalf("history output missing short entry (%d bytes)", stdout.Len())
	}
}

func TestHistoryDisabled(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun(t, "history"); out != "History is disabled.\n" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestBoardCommandUsesRunner(t *testing.T) {
	var got *task.Store
	h := newHarness(t, WithBoard(func(store *task.Store) error {
		got = store
		return nil
	}))
	h.mustRun(t, "board")
	if got != h.store {
		t.Fatalf("board runner received %p, want %p", got, h.store)
	}

	failing := newHarness(t, WithBoard(func(*task.Store) error { return errors.New("no terminal") }))
	if code := failing.run("board"); code != ExitFailure {
		t.Fatalf("exit = %d, want 1", code)
	}
	if failing.stderr.String() != "Error: no terminal\n" {
		t.Fatalf("stderr = %q", failing.stderr.String())
	}
}

func TestInitCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "init")
	want := filepath.Join(h.dir, ".task-cli", "config.yaml")
	if out != "Created "+want+"\n" {
		t.Fatalf("stdout = %q", out)
	}
	if out := h.mustRun(t, "init"); out != want+" already exists\n" {
		t.Fatalf("second init stdout = %q", out)
	}
}
