package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tasklist/internal/config"
	"tasklist/internal/storage"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirmDelete
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type Model struct {
	ctx        context.Context
	repo       *storage.Tasks
	keys       config.Keymap
	tasks      []storage.Task
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	pendingDel *storage.Task
}

func New(ctx context.Context, repo *storage.Tasks, keys config.Keymap) (Model, error) {
	tasks, err := repo.List(ctx)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		ctx:    ctx,
		repo:   repo,
		keys:   keys,
		tasks:  tasks,
		cursor: clampCursor(0, len(tasks)),
		status: fmt.Sprintf("Press '%s' to add, '%s' to toggle, '%s' to delete.", keys.Add, keyLabel(keys.Toggle), keys.Delete),
		input:  ti,
		mode:   modeList,
	}, nil
}

func Run(ctx context.Context, repo *storage.Tasks, keys config.Keymap) error {
	m, err := New(ctx, repo, keys)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(key, msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(key)
		default:
			return m.updateListMode(key)
		}
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.keys.Confirm:
		created, err := m.repo.Create(m.ctx, m.input.Value())
		if err != nil {
			m.status = describeErr("save", err)
			return m, nil
		}
		m = m.reload()
		m.cursor = m.indexOf(created.ID)
		m.status = "Added task"
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.keys.Quit:
		return m, tea.Quit
	case m.keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case m.keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case m.keys.Add:
		m.mode = modeAdd
		m.status = "Add mode: type a title and press Enter"
		return m, m.input.Focus()
	case m.keys.Toggle:
		if len(m.tasks) == 0 {
			return m, nil
		}
		updated, err := m.repo.Toggle(m.ctx, m.tasks[m.cursor].ID)
		if err != nil {
			m.status = describeErr("toggle", err)
			return m.reload(), nil
		}
		m = m.reload()
		m.cursor = m.indexOf(updated.ID)
		m.status = "Toggled task"
	case m.keys.Delete:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.mode = modeConfirmDelete
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete %q? y/n", t.Title)
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.keys.Cancel:
		m.status = "Delete cancelled"
	case "y", "Y":
		if err := m.repo.Delete(m.ctx, m.pendingDel.ID); err != nil {
			m.status = describeErr("delete", err)
		} else {
			m.status = "Deleted task"
		}
		m = m.reload()
	default:
		return m, nil
	}
	m.mode = modeList
	m.pendingDel = nil
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(fmt.Sprintf("Nothing to do. Press '%s' to add a task.", m.keys.Add))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	if m.mode == modeAdd {
		b.WriteString("Add Task: ")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.keys)))

	return b.String()
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i && m.mode != modeAdd {
			cursor = cursorStyle.Render(">")
		}

		checkbox := "[ ]"
		title := t.Title
		if t.Completed {
			checkbox = "[x]"
			title = doneStyle.Render(title)
		}

		b.WriteString(fmt.Sprintf("%s %s %s", cursor, checkbox, title))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) reload() Model {
	tasks, err := m.repo.List(m.ctx)
	if err != nil {
		m.status = describeErr("reload", err)
		return m
	}
	m.tasks = tasks
	m.cursor = clampCursor(m.cursor, len(tasks))
	return m
}

func (m Model) indexOf(id int64) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return m.cursor
}

func describeErr(op string, err error) string {
	switch {
	case errors.Is(err, storage.ErrTitleRequired):
		return "Title cannot be empty"
	case errors.Is(err, storage.ErrTaskNotFound):
		return "Task no longer exists"
	default:
		return fmt.Sprintf("%s failed: %v", op, err)
	}
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s delete • %s quit",
		k.Up, k.Down, k.Add, keyLabel(k.Toggle), k.Delete, k.Quit)
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
