// Package cli maps a command word and its positional arguments onto one task
// store operation and formats the result.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kingrea/task-cli/internal/config"
	"github.com/kingrea/task-cli/internal/logbook"
	"github.com/kingrea/task-cli/internal/task"
)

const defaultHistoryCount = 20

// BoardRunner starts the interactive board against store.
type BoardRunner func(store *task.Store) error

// App dispatches one command per Run call.
type App struct {
	program string
	workDir string
	store   *task.Store
	history *logbook.Logbook
	log     zerolog.Logger
	board   BoardRunner
	stdout  io.Writer
	stderr  io.Writer
}

// Option customizes App construction for tests and alternate runtimes.
type Option func(*App)

// WithOutput redirects normal output and error output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// WithProgram sets the program name shown in usage text.
func WithProgram(name string) Option {
	return func(a *App) {
		if strings.TrimSpace(name) != "" {
			a.program = name
		}
	}
}

// WithWorkDir sets the directory the init command writes into.
func WithWorkDir(dir string) Option {
	return func(a *App) { a.workDir = dir }
}

// WithHistory exposes the mutation journal to the history command.
func WithHistory(book *logbook.Logbook) Option {
	return func(a *App) { a.history = book }
}

// WithLogger attaches a diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithBoard installs the runner used by the board command.
func WithBoard(runner BoardRunner) Option {
	return func(a *App) { a.board = runner }
}

// New builds a dispatcher around store.
func New(store *task.Store, opts ...Option) *App {
	a := &App{
		program: "task-cli",
		workDir: ".",
		store:   store,
		log:     zerolog.Nop(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Run executes the command in args (excluding the program name) and returns
// the process exit code.
func (a *App) Run(args []string) int {
	if len(args) == 0 {
		usage(a.stdout, a.program)
		return ExitFailure
	}

	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	rest := args[1:]

	var err error
	switch cmd {
	case "add":
		err = a.cmdAdd(rest)
	case "update":
		err = a.cmdUpdate(rest)
	case "delete":
		err = a.cmdDelete(rest)
	case "mark-in-progress":
		err = a.cmdMark(rest, task.StatusInProgress)
	case "mark-done":
		err = a.cmdMark(rest, task.StatusDone)
	case "list":
		err = a.cmdList(rest)
	case "history":
		err = a.cmdHistory(rest)
	case "board":
		err = a.cmdBoard(rest)
	case "init":
		err = a.cmdInit(rest)
	default:
		err = &InvalidArgumentError{Message: fmt.Sprintf("Unknown command '%s'", cmd), ShowUsage: true}
	}

	if err != nil {
		a.log.Warn().Err(err).Str("command", cmd).Msg("command failed")
		fmt.Fprintln(a.stderr, describe(err))
		if invalid, ok := err.(*InvalidArgumentError); ok && invalid.ShowUsage {
			usage(a.stdout, a.program)
		}
	}
	return ExitCode(err)
}

// --- mutations ---

func (a *App) cmdAdd(args []string) error {
	if len(args) < 1 {
		return errMissingDescription
	}
	created, err := a.store.Add(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task added successfully (ID: %d)\n", created.ID)
	return nil
}

func (a *App) cmdUpdate(args []string) error {
	if len(args) < 2 {
		return errMissingUpdateArgs
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if _, err := a.store.Update(id, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task updated successfully (ID: %d)\n", id)
	return nil
}

func (a *App) cmdDelete(args []string) error {
	if len(args) < 1 {
		return errMissingID
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.store.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task deleted successfully (ID: %d)\n", id)
	return nil
}

func (a *App) cmdMark(args []string, status task.Status) error {
	if len(args) < 1 {
		return errMissingID
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if _, err := a.store.SetStatus(id, status); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Task marked as %s (ID: %d)\n", status, id)
	return nil
}

// --- queries ---

func (a *App) cmdList(args []string) error {
	var filter task.Status
	if len(args) > 0 {
		status, err := task.ParseStatus(args[0])
		if err != nil {
			return invalidArgumentf("Invalid status '%s'. Valid statuses are: %s",
				strings.ToLower(args[0]), task.StatusNames())
		}
		filter = status
	}
	renderList(a.stdout, filter, a.store.List(filter))
	return nil
}

func (a *App) cmdHistory(args []string) error {
	count := defaultHistoryCount
	if len(args) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || n < 1 {
			return invalidArgumentf("Invalid count '%s'. Please provide a positive number.", args[0])
		}
		count = n
	}
	if a.history == nil {
		fmt.Fprintln(a.stdout, "History is disabled.")
		return nil
	}
	lines, total, err := a.history.Tail(count)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintln(a.stdout, "No history recorded.")
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(a.stdout, line)
	}
	if total > len(lines) {
		fmt.Fprintf(a.stdout, "(showing %d of %d entries)\n", len(lines), total)
	}
	return nil
}

// --- interactive and setup ---

func (a *App) cmdBoard(_ []string) error {
	if a.board == nil {
		return fmt.Errorf("board is not available in this build")
	}
	return a.board(a.store)
}

func (a *App) cmdInit(_ []string) error {
	path, created, err := config.InitProjectDir(a.workDir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(a.stdout, "Created %s\n", path)
	} else {
		fmt.Fprintf(a.stdout, "%s already exists\n", path)
	}
	return nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}
