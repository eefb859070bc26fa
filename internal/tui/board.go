// internal/tui/board.go
//
// The board is an interactive view of the task collection. It uses
// bubbletea, which follows The Elm Architecture:
//
// 1. Model: the board state (filter, loaded tasks, table widget)
// 2. Update: handles key presses and window resizes
// 3. View: renders the state to a string
//
// Every action goes through the same task.Store the CLI uses, so the board
// reloads the collection after each change instead of caching it.

package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/task-cli/internal/logbook"
	"github.com/kingrea/task-cli/internal/task"
)

// filterCycle is the order tab walks through. The empty status means "all".
var filterCycle = []task.Status{"", task.StatusTodo, task.StatusInProgress, task.StatusDone}

var statusKeys = map[string]task.Status{
	"t": task.StatusTodo,
	"p": task.StatusInProgress,
	"d": task.StatusDone,
}

// BoardOption customizes Board construction.
type BoardOption func(*Board)

// WithHistory shows the tail of the mutation journal under the table.
func WithHistory(book *logbook.Logbook) BoardOption {
	return func(b *Board) { b.history = book }
}

// Board is the bubbletea model for the interactive task view.
type Board struct {
	store   *task.Store
	history *logbook.Logbook

	filter task.Status
	tasks  task.Collection
	table  table.Model

	statusMsg string
	width     int
	height    int
}

// NewBoard builds a board and loads the current collection.
func NewBoard(store *task.Store, opts ...BoardOption) *Board {
	t := table.New(
		table.WithColumns(columnsFor(100)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5B8DEF"))
	t.SetStyles(styles)

	b := &Board{store: store, table: t}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.reload()
	return b
}

// Run starts the board in the alternate screen and blocks until the user quits.
func Run(store *task.Store, opts ...BoardOption) error {
	p := tea.NewProgram(NewBoard(store, opts...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init is called once when the program starts.
func (b *Board) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.table.SetColumns(columnsFor(msg.Width))
		b.table.SetHeight(max(5, msg.Height-14))
		return b, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "q":
			return b, tea.Quit
		case "tab":
			b.cycleFilter()
			return b, nil
		case "r":
			b.reload()
			b.statusMsg = "Reloaded"
			return b, nil
		}
		if status, ok := statusKeys[key]; ok {
			b.markSelected(status)
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// View renders the current state to a string.
func (b *Board) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		MarginBottom(1).
		Render("TASKS")

	var body string
	if len(b.tasks) == 0 {
		body = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Render("No tasks found.")
	} else {
		body = b.table.View()
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, b.renderFilterBar(), "", body))

	sections := []string{header, box}
	if panel := b.renderHistoryPanel(); panel != "" {
		sections = append(sections, panel)
	}
	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("tab filter · t todo · p in-progress · d done · r reload · q quit")
	sections = append(sections, help)
	if b.statusMsg != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Render(b.statusMsg))
	}
	return strings.Join(sections, "\n")
}

// Filter returns the active status filter ("" for all tasks).
func (b *Board) Filter() task.Status { return b.filter }

// Tasks returns the rows currently shown.
func (b *Board) Tasks() task.Collection { return b.tasks }

func (b *Board) reload() {
	b.tasks = b.store.List(b.filter)
	rows := make([]table.Row, len(b.tasks))
	for i, t := range b.tasks {
		rows[i] = table.Row{
			strconv.Itoa(t.ID),
			string(t.Status),
			t.Description,
			shortTime(t.UpdatedAt),
		}
	}
	b.table.SetRows(rows)
	if n := len(rows); n > 0 && (b.table.Cursor() < 0 || b.table.Cursor() >= n) {
		b.table.SetCursor(n - 1)
	}
}

func (b *Board) cycleFilter() {
	next := 0
	for i, f := range filterCycle {
		if f == b.filter {
			next = (i + 1) % len(filterCycle)
			break
		}
	}
	b.filter = filterCycle[next]
	b.reload()
	if len(b.tasks) > 0 {
		b.table.SetCursor(0)
	}
	b.statusMsg = fmt.Sprintf("Showing %s", filterLabel(b.filter))
}

func (b *Board) markSelected(status task.Status) {
	id, ok := b.selectedID()
	if !ok {
		b.statusMsg = "No task selected"
		return
	}
	if _, err := b.store.SetStatus(id, status); err != nil {
		b.statusMsg = fmt.Sprintf("Error: %v", err)
		b.reload()
		return
	}
	b.reload()
	b.statusMsg = fmt.Sprintf("Task marked as %s (ID: %d)", status, id)
}

func (b *Board) selectedID() (int, bool) {
	row := b.table.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return 0, false
	}
	return id, true
}

func (b *Board) renderFilterBar() string {
	active := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Padding(0, 1)
	tabs := make([]string, len(filterCycle))
	for i, f := range filterCycle {
		label := filterLabel(f)
		if f == b.filter {
			tabs[i] = active.Render(label)
		} else {
			tabs[i] = inactive.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (b *Board) renderHistoryPanel() string {
	if b.history == nil {
		return ""
	}
	lines, _, err := b.history.Tail(5)
	if err != nil || len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(b.history.Path())
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("HISTORY · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func shortTime(ts task.Timestamp) string {
	if ts.Opaque() {
		return ts.String()
	}
	return ts.Format("2006-01-02 15:04")
}

func filterLabel(status task.Status) string {
	if status == "" {
		return "all"
	}
	return string(status)
}

func columnsFor(width int) []table.Column {
	desc := max(20, width-6-13-18-12)
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Status", Width: 13},
		{Title: "Description", Width: desc},
		{Title: "Updated", Width: 18},
	}
}
