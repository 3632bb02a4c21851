package tui

import (
	"fmt"

	"lactest/internal/service"
	"lactest/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TestsModel is the test list screen model
type TestsModel struct {
	queryService *service.QueryService
	tests        []service.TestSummary
	cursor       int
	offset       int
	total        int
	pageSize     int
	loading      bool
	err          error
}

// NewTestsModel creates a new test list model
func NewTestsModel(qs *service.QueryService) TestsModel {
	return TestsModel{
		queryService: qs,
		pageSize:     15,
		loading:      true,
	}
}

// Init initializes the test list
func (m TestsModel) Init() tea.Cmd {
	return m.loadPage
}

type testsLoadedMsg struct {
	tests []service.TestSummary
	total int
	err   error
}

// OpenTestDetailMsg asks the app to show one test
type OpenTestDetailMsg struct {
	TestID string
}

func (m TestsModel) loadPage() tea.Msg {
	tests, total, err := m.queryService.ListTests(m.pageSize, m.offset)
	if err != nil {
		return testsLoadedMsg{err: err}
	}
	return testsLoadedMsg{tests: tests, total: total}
}

// Update handles messages
func (m TestsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case testsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.tests = msg.tests
		m.total = msg.total
		if m.cursor >= len(m.tests) {
			m.cursor = max(len(m.tests)-1, 0)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
				m.loading = true
				return m, m.loadPage
			}
		case "down", "j":
			if m.cursor < len(m.tests)-1 {
				m.cursor++
			} else if m.offset+len(m.tests) < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgdown":
			if m.offset+m.pageSize < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "r":
			m.loading = true
			return m, m.loadPage
		case "enter":
			if m.cursor < len(m.tests) {
				id := m.tests[m.cursor].Test.ID
				return m, func() tea.Msg {
					return OpenTestDetailMsg{TestID: id}
				}
			}
		}
	}
	return m, nil
}

// View renders the test list
func (m TestsModel) View() string {
	if m.loading {
		return "\n  Loading tests..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.tests) == 0 {
		return "\n  No tests yet. Import one with 'lactest import <file>'."
	}

	var sections []string

	title := cardTitleStyle.Render(fmt.Sprintf("Lactate Tests (%d-%d of %d)", m.offset+1, m.offset+len(m.tests), m.total))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-11s  %-20s  %-5s  %6s  %-18s  %-18s",
		"Date", "Athlete", "Sport", "Stages", "LT1", "LT2"))
	sections = append(sections, header)

	for i, ts := range m.tests {
		t := ts.Test

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-11s  %-20s  %-5s  %6d  %-18s  %-18s",
			cursor,
			t.TestedAt.Format("02 Jan 2006"),
			truncate(t.Athlete, 20),
			t.Sport,
			t.StageCount,
			m.thresholdCell(ts.LT1),
			m.thresholdCell(ts.LT2),
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: view test  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m TestsModel) thresholdCell(t *store.Threshold) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s @%d", m.queryService.FormatIntensity(t.Value, t.Unit), t.HeartRate)
}
