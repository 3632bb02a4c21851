package tui

import (
	"fmt"
	"strings"

	"lactest/internal/analysis"
	"lactest/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MethodsModel shows every detector's answer side by side
type MethodsModel struct {
	analysisService *service.AnalysisService
	queryService    *service.QueryService
	testID          string
	results         []analysis.MethodResult
	loading         bool
	err             error
}

// NewMethodsModel creates a new method comparison model
func NewMethodsModel(as *service.AnalysisService, qs *service.QueryService, testID string) MethodsModel {
	return MethodsModel{
		analysisService: as,
		queryService:    qs,
		testID:          testID,
		loading:         true,
	}
}

// Init initializes the comparison screen
func (m MethodsModel) Init() tea.Cmd {
	return m.load
}

type methodsLoadedMsg struct {
	results []analysis.MethodResult
	err     error
}

func (m MethodsModel) load() tea.Msg {
	results, err := m.analysisService.CompareMethods(m.testID)
	return methodsLoadedMsg{results: results, err: err}
}

// Update handles messages
func (m MethodsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case methodsLoadedMsg:
		m.loading = false
		m.results = msg.results
		m.err = msg.err
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.load
		}
	}
	return m, nil
}

// View renders the comparison table
func (m MethodsModel) View() string {
	if m.loading {
		return "\n  Running detectors..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	var sections []string
	sections = append(sections, cardTitleStyle.Render("Method Comparison"))

	for _, kind := range []analysis.Kind{analysis.LT1, analysis.LT2} {
		sections = append(sections, m.renderKind(kind))
	}

	sections = append(sections, statusStyle.Render("  esc: back to test  r: rerun"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m MethodsModel) renderKind(kind analysis.Kind) string {
	var lines []string
	lines = append(lines, sectionStyle.Render(string(kind)))

	header := fmt.Sprintf("  %-22s  %12s  %6s  %8s  %-10s", "Method", "Intensity", "HR", "Lactate", "Confidence")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for _, r := range m.results {
		if r.Kind != kind {
			continue
		}
		if !r.OK {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-22s  %12s", r.Method, "no result")))
			continue
		}
		t := r.Threshold
		conf := string(t.Confidence)
		lines = append(lines, fmt.Sprintf("  %-22s  %12s  %6d  %8.2f  %s",
			r.Method,
			m.queryService.FormatIntensity(t.Value, string(t.Unit)),
			t.HeartRate,
			t.Lactate,
			confidenceStyle(conf).Render(conf),
		))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
