// cmd/task-cli/main.go
//
// This is the entry point for the task tracker.
// Every invocation runs exactly one command against the tasks file of the
// current directory and exits.
//
// Flow:
// 1. Resolve configuration (defaults, .task-cli/config.yaml, .env, environment)
// 2. Open the diagnostic log and the history journal (both lazily)
// 3. Dispatch the command and exit with its code

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kingrea/task-cli/internal/cli"
	"github.com/kingrea/task-cli/internal/config"
	"github.com/kingrea/task-cli/internal/logbook"
	"github.com/kingrea/task-cli/internal/logging"
	"github.com/kingrea/task-cli/internal/task"
	"github.com/kingrea/task-cli/internal/tui"
)

func main() {
	os.Exit(run(os.Args))
}

// run is split out of main so deferred cleanup happens before os.Exit.
func run(argv []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		return cli.ExitFailure
	}

	cfg, err := config.NewConfig(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitFailure
	}

	logger, err := logging.New(cfg.LogPath(), cfg.LogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitFailure
	}
	defer logger.Close()

	var book *logbook.Logbook
	if path := cfg.HistoryPath(); path != "" {
		book = logbook.New(path)
	}

	store := task.NewStore(cfg.TasksPath(),
		task.WithLogger(logger.Logger),
		task.WithHistory(book),
	)

	program := "task-cli"
	if len(argv) > 0 && argv[0] != "" {
		program = filepath.Base(argv[0])
	}
	var args []string
	if len(argv) > 1 {
		args = argv[1:]
	}

	app := cli.New(store,
		cli.WithProgram(program),
		cli.WithWorkDir(cwd),
		cli.WithHistory(book),
		cli.WithLogger(logger.Logger),
		cli.WithBoard(func(s *task.Store) error {
			return tui.Run(s, tui.WithHistory(book))
		}),
	)

	logger.Debug().Str("tasks_file", cfg.TasksPath()).Strs("args", args).Msg("dispatching")
	return app.Run(args)
}
