// Package tui provides the live status dashboard for taskforge.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/taskforge/internal/orchestrator"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// MetricsProvider supplies the dashboard with fresh metrics on every tick.
type MetricsProvider func() orchestrator.Metrics

// tickMsg drives the refresh loop.
type tickMsg time.Time

// StatusApp is the bubbletea model for the status dashboard.
type StatusApp struct {
	provider MetricsProvider
	refresh  time.Duration
	metrics  orchestrator.Metrics
	spinner  spinner.Model
	width    int
	quitting bool

	// Styles
	headerStyle  lipgloss.Style
	labelStyle   lipgloss.Style
	valueStyle   lipgloss.Style
	warningStyle lipgloss.Style
	successStyle lipgloss.Style
	failStyle    lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewStatusApp creates a dashboard polling the provider at the given rate.
func NewStatusApp(provider MetricsProvider, refresh time.Duration) *StatusApp {
	if refresh <= 0 {
		refresh = time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &StatusApp{
		provider: provider,
		refresh:  refresh,
		metrics:  provider(),
		spinner:  sp,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")).
			MarginBottom(1),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		warningStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// Init implements tea.Model.
func (a *StatusApp) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.tick())
}

func (a *StatusApp) tick() tea.Cmd {
	return tea.Tick(a.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (a *StatusApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
	case tickMsg:
		a.metrics = a.provider()
		return a, a.tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

// View implements tea.Model.
func (a *StatusApp) View() string {
	if a.quitting {
		return ""
	}

	m := a.metrics
	var b strings.Builder

	b.WriteString(a.headerStyle.Render("Taskforge Status"))
	b.WriteString("\n")

	running := fmt.Sprintf("%d / %d", m.RunningTasks, m.MaxConcurrent)
	runningStyle := a.valueStyle
	if m.MaxConcurrent > 0 && float64(m.RunningTasks) > float64(m.MaxConcurrent)*0.8 {
		runningStyle = a.warningStyle
	}
	b.WriteString(a.renderRow("Running:", a.spinner.View()+" "+runningStyle.Render(running)))
	b.WriteString(a.renderRow("Queued:", a.valueStyle.Render(fmt.Sprintf("%d", m.QueueDepth))))
	b.WriteString(a.renderRow("Strategy:", a.valueStyle.Render(string(m.Strategy))))
	b.WriteString(a.renderRow("Forecast:", a.renderForecast(m)))
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Tasks:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %d   %s %d   %s %d   %s %d\n",
		a.successStyle.Render("completed"), m.StatusCounts[models.TaskStatusCompleted],
		a.failStyle.Render("failed"), m.StatusCounts[models.TaskStatusFailed],
		a.dimStyle.Render("cancelled"), m.StatusCounts[models.TaskStatusCancelled],
		a.valueStyle.Render("pending"), m.StatusCounts[models.TaskStatusPending]))
	b.WriteString("\n")

	b.WriteString(a.labelStyle.Render("Agents:"))
	b.WriteString("\n")
	b.WriteString(a.renderAgents(m))

	b.WriteString("\n")
	b.WriteString(a.dimStyle.Render("q to quit"))
	b.WriteString("\n")

	return b.String()
}

// renderRow renders a label-value pair.
func (a *StatusApp) renderRow(label, value string) string {
	return a.labelStyle.Render(label) + " " + value + "\n"
}

// renderForecast renders the predicted load with a warning color when it
// approaches the ceiling.
func (a *StatusApp) renderForecast(m orchestrator.Metrics) string {
	style := a.valueStyle
	if m.MaxConcurrent > 0 && m.PredictedLoad > float64(m.MaxConcurrent)*0.9 {
		style = a.warningStyle
	}
	return style.Render(fmt.Sprintf("%.1f tasks in 5m", m.PredictedLoad))
}

// renderAgents renders one line per agent with load and success rate,
// sorted by agent ID for a stable display.
func (a *StatusApp) renderAgents(m orchestrator.Metrics) string {
	if len(m.Performance) == 0 {
		return "  " + a.dimStyle.Render("none yet") + "\n"
	}

	perf := make([]models.AgentPerformance, len(m.Performance))
	copy(perf, m.Performance)
	sort.Slice(perf, func(i, j int) bool { return perf[i].AgentID < perf[j].AgentID })

	var b strings.Builder
	for _, p := range perf {
		rateStyle := a.successStyle
		if p.SuccessRate < 0.8 {
			rateStyle = a.warningStyle
		}
		if p.SuccessRate < 0.5 {
			rateStyle = a.failStyle
		}
		b.WriteString(fmt.Sprintf("  %s  load %d  %s  %d done\n",
			a.valueStyle.Render(p.AgentID),
			m.AgentLoads[p.AgentID],
			rateStyle.Render(fmt.Sprintf("%.0f%%", p.SuccessRate*100)),
			p.CompletedTasks))
	}
	return b.String()
}

// Run starts the dashboard and blocks until the user quits.
func Run(provider MetricsProvider, refresh time.Duration) error {
	app := NewStatusApp(provider, refresh)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
