package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/arango-go/arango"
	"github.com/kelsos/arango-go/internal/storage"
)

// JobState is what the monitor knows about one async job.
type JobState struct {
	ID          string
	Description string
	Status      arango.JobStatus
	Err         error
	CompletedAt time.Time
}

// JobsLoaded seeds the monitor with the recorded pending jobs.
type JobsLoaded struct {
	Jobs []storage.PendingJob
}

// StatusUpdate reports the latest server-side status of one job.
type StatusUpdate struct {
	ID     string
	Status arango.JobStatus
	Err    error
}

// LogMessage appends a line to the monitor's log pane.
type LogMessage struct {
	Message string
}

type Model struct {
	order     []string
	jobs      map[string]*JobState
	logs      []string
	spinner   spinner.Model
	width     int
	height    int
	quit      bool
	doneCount int
	errCount  int
}

func NewModel() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		order:   []string{},
		jobs:    make(map[string]*JobState),
		logs:    []string{},
		spinner: sp,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.handleKeyMsg(msg) {
			m.quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case JobsLoaded:
		m = m.handleJobsLoaded(msg)

	case StatusUpdate:
		m = m.handleStatusUpdate(msg)

	case LogMessage:
		m = m.handleLogMessage(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func (m Model) handleJobsLoaded(msg JobsLoaded) Model {
	for _, job := range msg.Jobs {
		if _, exists := m.jobs[job.ID]; exists {
			continue
		}
		m.order = append(m.order, job.ID)
		m.jobs[job.ID] = &JobState{
			ID:          job.ID,
			Description: job.Description,
			Status:      arango.JobPending,
		}
	}
	return m
}

func (m Model) handleStatusUpdate(msg StatusUpdate) Model {
	state, exists := m.jobs[msg.ID]
	if !exists {
		return m
	}
	terminal := state.Status != arango.JobPending

	state.Status = msg.Status
	state.Err = msg.Err

	if !terminal && state.Status != arango.JobPending {
		state.CompletedAt = time.Now()
		if state.Status == arango.JobError || state.Err != nil {
			m.errCount++
		} else {
			m.doneCount++
		}
	}
	return m
}

func (m Model) handleLogMessage(msg LogMessage) Model {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s",
		time.Now().Format("15:04:05"), msg.Message))
	if len(m.logs) > 10 {
		m.logs = m.logs[len(m.logs)-10:]
	}
	return m
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("ArangoDB Job Monitor"))
	s.WriteString("\n\n")

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	pending := len(m.order) - m.doneCount - m.errCount
	summary := fmt.Sprintf("Jobs: %d | Done: %d | Errors: %d | Pending: %d",
		len(m.order), m.doneCount, m.errCount, pending)
	s.WriteString(summaryStyle.Render(summary))
	s.WriteString("\n\n")

	jobSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	var jobSection strings.Builder
	jobSection.WriteString("Async Jobs\n")
	jobSection.WriteString(strings.Repeat("─", 60) + "\n")

	for _, id := range m.order {
		state := m.jobs[id]

		marker := m.spinner.View()
		if state.Status != arango.JobPending {
			marker = statusIcon(state.Status)
		}

		jobLine := fmt.Sprintf("%s %-12s %-10s %s",
			marker,
			truncate(state.ID, 12),
			state.Status,
			truncate(state.Description, m.width-32))

		if state.Err != nil {
			errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
			jobLine += " " + errorStyle.Render(fmt.Sprintf("Error: %v", state.Err))
		}

		lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(state.Status)))
		jobSection.WriteString(lineStyle.Render(jobLine) + "\n")
	}
	if len(m.order) == 0 {
		jobSection.WriteString("No recorded jobs. Submit one with `arango-cli query --async`.\n")
	}

	s.WriteString(jobSectionStyle.Render(jobSection.String()))
	s.WriteString("\n\n")

	logSectionStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(m.width - 2).
		Height(8)

	var logSection strings.Builder
	logSection.WriteString("Recent Logs\n")
	for _, line := range m.logs {
		logSection.WriteString(line + "\n")
	}

	s.WriteString(logSectionStyle.Render(logSection.String()))
	s.WriteString("\n\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	s.WriteString(footerStyle.Render("Press 'q' to quit | Logs: logs/arango-cli_*.log"))

	return s.String()
}

func statusIcon(status arango.JobStatus) string {
	switch status {
	case arango.JobDone:
		return "✔"
	case arango.JobError:
		return "✘"
	default:
		return "•"
	}
}

func statusColor(status arango.JobStatus) string {
	switch status {
	case arango.JobDone:
		return "82"
	case arango.JobError:
		return "196"
	default:
		return "39"
	}
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
