// Package wizard holds the interactive terminal UIs. The review browser
// walks the manual-review report a conversion run produced so an operator
// can triage findings without leaving the terminal.
package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sqlporter/sqlporter/internal/review"
)

// severityOrder cycles through the filter states.
var severityOrder = []string{"", review.SeverityError, review.SeverityWarning, review.SeverityInfo}

// ReviewModel is the bubbletea model for browsing a manual-review report.
type ReviewModel struct {
	report   *review.Report
	filtered []review.Item
	filter   string // severity filter, "" shows everything
	cursor   int
	detail   viewport.Model
	showing  bool
	done     bool
	width    int
	height   int
}

// NewReviewModel creates a review browser for a loaded report.
func NewReviewModel(report *review.Report) ReviewModel {
	m := ReviewModel{
		report: report,
		detail: viewport.New(100, 10),
		width:  100,
		height: 24,
	}
	m.applyFilter()
	return m
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width - 4
		m.detail.Height = 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.done = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.syncDetail()
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				m.syncDetail()
			}
			return m, nil
		case "enter":
			m.showing = !m.showing
			m.syncDetail()
			return m, nil
		case "s":
			m.cycleFilter()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *ReviewModel) cycleFilter() {
	for i, sev := range severityOrder {
		if sev == m.filter {
			m.filter = severityOrder[(i+1)%len(severityOrder)]
			break
		}
	}
	m.applyFilter()
}

func (m *ReviewModel) applyFilter() {
	m.filtered = m.filtered[:0]
	for _, it := range m.report.Items {
		if m.filter == "" || it.Severity == m.filter {
			m.filtered = append(m.filtered, it)
		}
	}
	m.cursor = 0
	m.syncDetail()
}

func (m *ReviewModel) syncDetail() {
	if !m.showing || m.cursor >= len(m.filtered) {
		return
	}
	it := m.filtered[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "File:    %s\n", it.File)
	fmt.Fprintf(&b, "Object:  %s (%s)\n", it.Object, it.ObjectType)
	fmt.Fprintf(&b, "Issue:   %s\n", it.IssueType)
	fmt.Fprintf(&b, "Message: %s\n", it.Message)
	if it.SuggestedAction != "" {
		fmt.Fprintf(&b, "Action:  %s\n", it.SuggestedAction)
	}
	if it.Line > 0 {
		fmt.Fprintf(&b, "Line:    %d\n", it.Line)
	}
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

func (m ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Manual Review Findings"))
	b.WriteString("\n\n")

	filterLabel := "all severities"
	if m.filter != "" {
		filterLabel = m.filter
	}
	b.WriteString(fmt.Sprintf("  %d of %d findings (%s)\n\n",
		len(m.filtered), m.report.Total, filterLabel))

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  nothing to review at this filter"))
		b.WriteString("\n")
	}

	visible := m.height - 12
	if visible < 5 {
		visible = 5
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.filtered) && i < start+visible; i++ {
		it := m.filtered[i]
		line := fmt.Sprintf("%-7s  %-24s  %s", it.Severity, truncate(it.File, 24), truncate(it.Message, m.width-40))
		switch {
		case i == m.cursor:
			b.WriteString(highlightStyle.Render("> " + line))
		case it.Severity == review.SeverityError:
			b.WriteString(errStyle.Render("  " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.showing && m.cursor < len(m.filtered) {
		b.WriteString("\n")
		b.WriteString(m.detail.View())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  j/k: move  enter: toggle detail  s: cycle severity  q: quit"))
	return b.String()
}

// Done returns true when the model is finished.
func (m ReviewModel) Done() bool {
	return m.done
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)
