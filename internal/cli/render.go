package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/task-cli/internal/task"
)

// styles are bound to the renderer of the writer they print to, so output
// piped to a file or buffer carries no escape sequences.
type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	empty  lipgloss.Style
	status map[task.Status]lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		label:  r.NewStyle().Bold(true),
		empty:  r.NewStyle().Faint(true),
		status: map[task.Status]lipgloss.Style{
			task.StatusTodo:       r.NewStyle().Foreground(lipgloss.Color("#F2C94C")),
			task.StatusInProgress: r.NewStyle().Foreground(lipgloss.Color("#56CCF2")),
			task.StatusDone:       r.NewStyle().Foreground(lipgloss.Color("#6FCF97")),
		},
	}
}

func (s styles) statusText(status task.Status) string {
	if style, ok := s.status[status]; ok {
		return style.Render(string(status))
	}
	return string(status)
}

// renderList writes the list command output.
func renderList(w io.Writer, filter task.Status, tasks task.Collection) {
	st := newStyles(w)
	var b strings.Builder
	b.WriteString("\n")
	if filter == "" {
		b.WriteString(st.header.Render("All Tasks:"))
	} else {
		b.WriteString(st.header.Render(fmt.Sprintf("Tasks with status '%s':", filter)))
	}
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString(st.empty.Render("No tasks found."))
		b.WriteString("\n")
		io.WriteString(w, b.String())
		return
	}

	for _, t := range tasks {
		fmt.Fprintf(&b, "\n%s %d\n", st.label.Render("ID:"), t.ID)
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Description:"), t.Description)
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Status:"), st.statusText(t.Status))
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Created:"), t.CreatedAt)
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Updated:"), t.UpdatedAt)
	}
	io.WriteString(w, b.String())
}
