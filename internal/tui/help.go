package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))

	sections = append(sections, m.renderSection("Navigation", []keyHelp{
		{"1", "Test list"},
		{"2", "Analyze all"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	}))

	sections = append(sections, m.renderSection("Test List", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"pgdn", "Next page"},
		{"pgup", "Previous page"},
		{"enter", "Open test"},
		{"r", "Refresh list"},
	}))

	sections = append(sections, m.renderSection("Test Detail", []keyHelp{
		{"a", "Analyze and save"},
		{"m", "Compare detection methods"},
		{"o", "Open HTML report in browser"},
		{"r", "Reload"},
	}))

	sections = append(sections, m.renderSection("Analyze All", []keyHelp{
		{"a / enter", "Start"},
	}))

	sections = append(sections, m.renderTermsHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderTermsHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Terms"))
	lines = append(lines, "")

	terms := []struct {
		name string
		desc string
	}{
		{"LT1", "Aerobic threshold. First sustained rise of lactate above baseline."},
		{"LT2", "Anaerobic threshold. Upper limit of steady state, near 4 mmol/L for most."},
		{"DMAX", "Point of the fitted curve farthest from the first-to-last chord."},
		{"Confidence", "HIGH for curve methods with a good fit, LOW for fallbacks."},
		{"Zones", "Five heart-rate zones anchored on LT1 and LT2 when both are known."},
	}

	for _, term := range terms {
		lines = append(lines, "  "+helpKeyStyle.Render(term.name))
		lines = append(lines, "  "+mutedStyle.Render(term.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
