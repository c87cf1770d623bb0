// Package shell provides an interactive Bubble Tea front-end for browsing
// a scheduled day's slot allocation and driving a session's active task.
package shell

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/maaslalani/confetty/confetti"

	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/session"
)

const celebrationDuration = 3 * time.Second

type celebrationEndMsg struct{}

// Model is the Bubble Tea model driving the interactive shell.
type Model struct {
	sess *session.Session
	now  func() time.Time

	day      time.Time
	rows     []core.TaskID
	cursor   int
	viewport viewport.Model

	message      string
	err          error
	celebrating  bool
	confetti     tea.Model

	width, height int
	quitting      bool
}

// NewModel builds a shell Model over sess, browsing the slot allocation
// for day.
func NewModel(sess *session.Session, day time.Time) *Model {
	m := &Model{
		sess:     sess,
		now:      time.Now,
		day:      day,
		viewport: viewport.New(80, 20),
		confetti: confetti.InitialModel(),
	}
	m.refreshRows()
	return m
}

func (m *Model) refreshRows() {
	day := m.sess.Slots.Get(m.day)
	ids := make([]core.TaskID, 0, len(day))
	for id := range day {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].FullString() < ids[j].FullString() })
	m.rows = ids
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Init satisfies tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update satisfies tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		var cmd tea.Cmd
		m.confetti, cmd = m.confetti.Update(msg)
		return m, cmd

	case celebrationEndMsg:
		m.celebrating = false
		return m, nil

	case tea.KeyMsg:
		if m.celebrating {
			var cmd tea.Cmd
			m.confetti, cmd = m.confetti.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}

	if m.celebrating {
		var cmd tea.Cmd
		m.confetti, cmd = m.confetti.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter", "s":
		return m, m.toggleActive()
	case "c":
		return m, m.completeCurrent()
	case "d":
		m.dropCurrent()
	}
	return m, nil
}

func (m *Model) currentID() (core.TaskID, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return core.TaskID{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) toggleActive() tea.Cmd {
	id, ok := m.currentID()
	if !ok {
		return nil
	}
	if _, err := m.sess.StopCurrentTask(session.StopNow(m.now()), false); err == nil {
		m.message = "stopped active task"
		return nil
	}
	if _, _, err := m.sess.StartTaskAt(id, m.now()); err != nil {
		m.err = err
		return nil
	}
	m.message = "started task"
	return nil
}

func (m *Model) completeCurrent() tea.Cmd {
	id, ok := m.currentID()
	if !ok {
		return nil
	}
	if _, err := m.sess.CompleteTask(id, m.now(), nil); err != nil {
		m.err = err
		return nil
	}
	m.message = "task completed"
	m.refreshRows()
	m.celebrating = true
	return tea.Batch(m.confetti.Init(), celebrationTimer())
}

func (m *Model) dropCurrent() {
	id, ok := m.currentID()
	if !ok {
		return
	}
	title, err := m.sess.DropTask(id)
	if err != nil {
		m.err = err
		return
	}
	m.message = fmt.Sprintf("dropped %q", title)
	m.refreshRows()
}

func celebrationTimer() tea.Cmd {
	return tea.Tick(celebrationDuration, func(time.Time) tea.Msg { return celebrationEndMsg{} })
}

// View satisfies tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.celebrating {
		return m.confetti.View()
	}

	header := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Schedule for %s", m.day.Format("2006-01-02")))

	var lines []string
	for i, id := range m.rows {
		task, ok := m.sess.Tasks[id]
		if !ok {
			continue
		}
		allocated := m.sess.Slots.RemainingAt(m.day, id)
		line := fmt.Sprintf("%s %-6s %-40s %s", marker(task), id, task.Title, session.FormatHumanDuration(allocated))
		if i == m.cursor {
			line = lipgloss.NewStyle().Reverse(true).Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, "(nothing scheduled)")
	}

	footer := "j/k move  enter start/stop  c complete  d drop  q quit"
	if m.message != "" {
		footer = m.message + "  |  " + footer
	}
	if m.err != nil {
		footer = "error: " + m.err.Error()
	}

	body := header + "\n\n"
	for _, l := range lines {
		body += l + "\n"
	}
	m.viewport.SetContent(body)
	return m.viewport.View() + "\n" + footer
}

func marker(task *core.Task) string {
	switch {
	case task.IsCompleted():
		return "[x]"
	case task.IsDropped():
		return "[-]"
	case task.IsBlocked():
		return "[!]"
	default:
		return "[ ]"
	}
}

// Run starts the interactive shell against sess, browsing day's schedule.
func Run(sess *session.Session, day time.Time) error {
	_, err := tea.NewProgram(NewModel(sess, day), tea.WithAltScreen()).Run()
	return err
}
