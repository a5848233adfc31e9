package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"structa/internal/domain"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const listLimit = 4

// Phase represents the current state of the TUI
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseConfirm
	PhaseExecuting
	PhaseDone
	PhaseError
)

// Messages for the TUI
type (
	PlanReadyMsg struct {
		Summary domain.Summary
	}
	ProgressMsg struct {
		Current int
		Total   int
		Op      domain.Operation
	}
	DoneMsg struct {
		Result domain.ExecutionResult
	}
	ConfirmMsg struct {
		Confirmed bool
	}
	ErrorMsg struct {
		Err error
	}
	tickMsg time.Time
)

// PlanFunc computes the pre-flight summary.
type PlanFunc func() domain.Summary

// ExecuteFunc runs the structure and reports each processed operation.
type ExecuteFunc func(progress func(current, total int, op domain.Operation)) (domain.ExecutionResult, error)

// Config for the TUI
type Config struct {
	BaseDir      string
	ManifestPath string
	Verbose      bool
	AssumeYes    bool
	Plan         PlanFunc
	Execute      ExecuteFunc
}

// notifier forwards progress from the executing goroutine into the program.
type notifier struct {
	send func(tea.Msg)
}

func (n *notifier) notify(msg tea.Msg) {
	if n != nil && n.send != nil {
		n.send(msg)
	}
}

// Model is the main TUI model
type Model struct {
	config           Config
	notifier         *notifier
	Phase            Phase
	Summary          domain.Summary
	Result           domain.ExecutionResult
	Cancelled        bool
	spinner          spinner.Model
	progress         progress.Model
	current          int
	total            int
	currentOp        string
	confirmSelection bool // true = yes, false = no
	Err              error
	Quitting         bool
	width            int
	height           int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:           cfg,
		notifier:         &notifier{},
		Phase:            PhasePlanning,
		spinner:          s,
		progress:         p,
		confirmSelection: false, // default to No
		width:            80,
		height:           24,
	}
}

// Run starts the program and returns the final model.
func Run(cfg Config, opts ...tea.ProgramOption) (Model, error) {
	m := NewModel(cfg)
	p := tea.NewProgram(m, opts...)
	m.notifier.send = p.Send

	final, err := p.Run()
	if err != nil {
		return m, err
	}
	if fm, ok := final.(Model); ok {
		return fm, nil
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.planCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Execution runs to completion.
			if m.Phase == PhaseExecuting {
				return m, nil
			}
			m.Quitting = true
			return m, tea.Quit
		case "left", "h", "y", "Y":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = true
			}
		case "right", "l", "n", "N":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = false
			}
		case "enter":
			if m.Phase == PhaseConfirm {
				return m, func() tea.Msg {
					return ConfirmMsg{Confirmed: m.confirmSelection}
				}
			}
			if m.Phase == PhaseDone || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case PlanReadyMsg:
		m.Summary = msg.Summary
		m.total = msg.Summary.TotalOperations
		if msg.Summary.ExistingTargetCount > 0 && !m.config.AssumeYes {
			m.Phase = PhaseConfirm
			return m, nil
		}
		return m.startExecution()

	case ConfirmMsg:
		if !msg.Confirmed {
			m.Cancelled = true
			m.Phase = PhaseDone
			return m, nil
		}
		return m.startExecution()

	case ProgressMsg:
		m.current = msg.Current
		m.total = msg.Total
		m.currentOp = msg.Op.Name
		return m, nil

	case DoneMsg:
		m.Phase = PhaseDone
		m.Result = msg.Result
		m.current = msg.Result.CompletedCount + msg.Result.FailureCount
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhasePlanning || m.Phase == PhaseExecuting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseExecuting {
			var cmds []tea.Cmd
			if m.total > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.current)/float64(m.total)))
			}
			cmds = append(cmds, tickCmd(), m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func (m Model) startExecution() (tea.Model, tea.Cmd) {
	m.Phase = PhaseExecuting
	return m, tea.Batch(tickCmd(), m.spinner.Tick, m.executeCmd())
}

func (m Model) planCmd() tea.Cmd {
	plan := m.config.Plan
	return func() tea.Msg {
		if plan == nil {
			return PlanReadyMsg{Summary: domain.Summarize(nil, nil)}
		}
		return PlanReadyMsg{Summary: plan()}
	}
}

func (m Model) executeCmd() tea.Cmd {
	execute := m.config.Execute
	n := m.notifier
	return func() tea.Msg {
		if execute == nil {
			return ErrorMsg{Err: fmt.Errorf("nothing to execute")}
		}
		result, err := execute(func(current, total int, op domain.Operation) {
			n.notify(ProgressMsg{Current: current, Total: total, Op: op})
		})
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return DoneMsg{Result: result}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhasePlanning:
		b.WriteString(fmt.Sprintf("%s Checking targets...", m.spinner.View()))
	case PhaseConfirm:
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmPrompt())
	case PhaseExecuting:
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
		b.WriteString(m.renderExecution())
	case PhaseDone:
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
		b.WriteString(m.renderCompletion())
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(iconFolder + " Structa")
	subtitle := subtitleStyle.Render("Folder structures made simple")

	dimStyle := lipgloss.NewStyle().Foreground(dimTextColor)

	lines := []string{title, subtitle, ""}
	if m.config.ManifestPath != "" {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%s Manifest: %s", iconFile, shortenPath(m.config.ManifestPath))))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("%s Base: %s", iconFolder, shortenPath(m.config.BaseDir))))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderSummary() string {
	var b strings.Builder
	s := m.Summary

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Folders:"), dirStyle.Render(fmt.Sprintf("%s %d", iconDir, s.CreateDirectoryCount))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Files:"), fileStyle.Render(fmt.Sprintf("%s %d", iconFileItem, s.CreateFileCount))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Copies:"), statValueStyle.Render(fmt.Sprintf("%d", s.CopyCount))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Moves:"), statValueStyle.Render(fmt.Sprintf("%d", s.MoveCount))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Total:"), statValueStyle.Render(fmt.Sprintf("%d operations", s.TotalOperations))))

	if s.ExistingTargetCount > 0 {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Existing:"), warningStyle.Render(fmt.Sprintf("%s %d", iconOverride, s.ExistingTargetCount))))
	}

	return b.String()
}

func (m Model) renderConfirmPrompt() string {
	var b strings.Builder
	for i, target := range m.Summary.ExistingTargets {
		if i >= listLimit {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.Summary.ExistingTargets)-listLimit))
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", overrideStyle.Render(iconOverride), pathStyle.Render(shortenPath(target))))
	}

	prompt := confirmPromptStyle.Render(fmt.Sprintf("Overwrite %d existing targets?", m.Summary.ExistingTargetCount))

	var yesBtn, noBtn string
	if m.confirmSelection {
		yesBtn = highlightBoxStyle.Copy().
			Background(lipgloss.Color("#2D5A27")).
			Render(" Yes ")
		noBtn = boxStyle.Render(" No ")
	} else {
		yesBtn = boxStyle.Render(" Yes ")
		noBtn = highlightBoxStyle.Copy().
			Background(lipgloss.Color("#5A2727")).
			Render(" No ")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesBtn, "  ", noBtn)

	return lipgloss.JoinVertical(lipgloss.Left, b.String(), prompt, "", buttons)
}

func (m Model) renderExecution() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Creating Structure"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}

	b.WriteString(fmt.Sprintf("  %s Working...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))

	countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	percentStyle := lipgloss.NewStyle().Foreground(dimTextColor)

	b.WriteString(fmt.Sprintf("  %s %s\n",
		countStyle.Render(fmt.Sprintf("%d/%d operations", m.current, m.total)),
		percentStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))

	if m.currentOp != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", iconArrow, fileNameStyle.Render(m.currentOp)))
	}

	return b.String()
}

func (m Model) renderCompletion() string {
	var b strings.Builder

	if m.Cancelled {
		b.WriteString(warningStyle.Render(fmt.Sprintf("%s Cancelled, nothing was changed", iconOverride)))
		b.WriteString("\n")
		return b.String()
	}

	r := m.Result
	b.WriteString(sectionStyle.Render("Done"))
	b.WriteString("\n\n")

	if r.Succeeded() {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", successStyle.Render(iconSuccess), successStyle.Render("Structure created successfully!")))
	} else {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", errorStyle.Render(iconError), errorStyle.Render("Structure created with errors")))
	}

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Completed:"), successStyle.Render(fmt.Sprintf("%s %d", iconSuccess, r.CompletedCount))))
	if r.FailureCount > 0 {
		b.WriteString(fmt.Sprintf("  %s  %s\n\n", statLabelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprintf("%s %d", iconError, r.FailureCount))))
		maxItems := listLimit
		if m.config.Verbose {
			maxItems = len(r.Failures)
		}
		for _, line := range formatFailures(r.Failures, maxItems) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", m.Err.Error()))

	return highlightBoxStyle.Copy().
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhasePlanning:
		help = "Press q to quit"
	case PhaseConfirm:
		help = "← → or y/n to select • Enter to confirm • q to quit"
	case PhaseExecuting:
		help = "Creating structure... Please wait"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

// formatFailures lists failures, keeping the first and last entries of long lists.
func formatFailures(failures []domain.Failure, maxItems int) []string {
	if len(failures) == 0 {
		return []string{}
	}

	lines := make([]string, 0, min(len(failures), maxItems+1))
	if len(failures) > maxItems {
		half := maxItems / 2
		for i := 0; i < half; i++ {
			lines = append(lines, formatFailure(failures[i]))
		}
		dimStyle := lipgloss.NewStyle().Foreground(dimTextColor)
		lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d more failures ...", len(failures)-maxItems)))
		for i := len(failures) - half; i < len(failures); i++ {
			lines = append(lines, formatFailure(failures[i]))
		}
		return lines
	}
	for _, f := range failures {
		lines = append(lines, formatFailure(f))
	}
	return lines
}

func formatFailure(f domain.Failure) string {
	return fmt.Sprintf("%s %s  %s",
		errorStyle.Render(iconError),
		fileNameStyle.Render(shortenPath(f.TargetPath)),
		messageStyle.Render(f.Message),
	)
}

// shortenPath replaces the home directory prefix with ~ for display
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
