package cli

import (
	"fmt"
	"io"
)

func usage(w io.Writer, program string) {
	fmt.Fprintf(w, `Task Tracker CLI - Usage:

Add a new task:
  %[1]s add "Task description"

Update a task:
  %[1]s update <id> "New description"

Delete a task:
  %[1]s delete <id>

Mark task as in-progress:
  %[1]s mark-in-progress <id>

Mark task as done:
  %[1]s mark-done <id>

List all tasks:
  %[1]s list

List tasks by status:
  %[1]s list todo
  %[1]s list in-progress
  %[1]s list done

Show recent changes:
  %[1]s history [count]

Browse tasks interactively:
  %[1]s board

Write a default .task-cli/config.yaml:
  %[1]s init
`, program)
}
