package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lactest/internal/analysis"
	"lactest/internal/report"
	"lactest/internal/service"
	"lactest/internal/store"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// TestDetailModel is the test detail screen model
type TestDetailModel struct {
	queryService    *service.QueryService
	analysisService *service.AnalysisService
	paceUnit        string
	testID          string
	detail          *service.TestDetail
	viewport        viewport.Model
	loading         bool
	err             error
	status          string
	width           int
	height          int
	ready           bool
}

// NewTestDetailModel creates a new test detail model
func NewTestDetailModel(qs *service.QueryService, as *service.AnalysisService, paceUnit, testID string, width, height int) TestDetailModel {
	m := TestDetailModel{
		queryService:    qs,
		analysisService: as,
		paceUnit:        paceUnit,
		testID:          testID,
		loading:         true,
		width:           width,
		height:          height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the test detail screen
func (m TestDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type testDetailLoadedMsg struct {
	detail *service.TestDetail
	status string
	err    error
}

// OpenMethodsMsg asks the app to show the method comparison for a test
type OpenMethodsMsg struct {
	TestID string
}

func (m TestDetailModel) loadDetail() tea.Msg {
	detail, err := m.queryService.GetTestDetail(m.testID)
	return testDetailLoadedMsg{detail: detail, err: err}
}

func (m TestDetailModel) analyze() tea.Msg {
	res, err := m.analysisService.AnalyzeTest(m.testID)
	if err != nil {
		return testDetailLoadedMsg{err: err}
	}
	detail, err := m.queryService.GetTestDetail(m.testID)
	status := "Analyzed"
	if n := len(res.Warnings); n > 0 {
		status = fmt.Sprintf("Analyzed with %d warnings", n)
	}
	return testDetailLoadedMsg{detail: detail, status: status, err: err}
}

func (m TestDetailModel) openReport() tea.Msg {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("lactest-%s.html", m.testID))
	if err := report.WriteFile(path, report.FromDetail(m.detail, m.paceUnit)); err != nil {
		return testDetailLoadedMsg{detail: m.detail, status: fmt.Sprintf("Report failed: %v", err)}
	}
	if err := report.Open(path); err != nil {
		return testDetailLoadedMsg{detail: m.detail, status: "Report written to " + path}
	}
	return testDetailLoadedMsg{detail: m.detail, status: "Opened " + path}
}

// Update handles messages
func (m TestDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case testDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.status = msg.status
		if msg.detail != nil {
			m.detail = msg.detail
		}
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadDetail
		case "a":
			m.loading = true
			return m, m.analyze
		case "m":
			id := m.testID
			return m, func() tea.Msg { return OpenMethodsMsg{TestID: id} }
		case "o":
			if m.detail != nil {
				m.status = "Writing report..."
				return m, m.openReport
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the test detail screen
func (m TestDetailModel) View() string {
	if m.loading {
		return "\n  Loading test..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back  j/k: scroll  a: analyze  m: compare methods  o: HTML report  r: refresh")
	if m.status != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, successStyle.Render("  "+m.status), footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m TestDetailModel) renderContent() string {
	if m.detail == nil {
		return "No data"
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderThresholds())
	if m.detail.Zones != nil {
		sections = append(sections, m.renderZones())
	}
	if len(m.detail.Lactates) > 2 {
		sections = append(sections, m.renderCurve("Lactate by Stage (mmol/L)", m.detail.Lactates))
	}
	if len(m.detail.HeartRates) > 2 {
		sections = append(sections, m.renderCurve("Heart Rate by Stage (bpm)", m.detail.HeartRates))
	}
	sections = append(sections, m.renderStages())
	if len(m.detail.Test.Warnings) > 0 {
		sections = append(sections, m.renderWarnings())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m TestDetailModel) renderHeader() string {
	t := m.detail.Test
	name := t.Athlete
	if name == "" {
		name = "Lactate test"
	}
	title := cardTitleStyle.Render(name)

	subtitle := mutedStyle.Render(fmt.Sprintf("%s  •  %s", t.TestedAt.Format("Monday, January 2, 2006"), service.RelativeDate(t.TestedAt)))

	stats := fmt.Sprintf("%s  •  %d stages  •  %s", t.Sport, t.StageCount, t.Source)
	if t.Profile != "" {
		stats += "  •  " + t.Profile
	}
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(stats)

	lines := []string{"", title, subtitle, statsLine}
	if m.detail.Stale() {
		lines = append(lines, warningStyle.Render("Not analyzed since the last change. Press 'a' to analyze."))
	}
	if t.Notes != "" {
		lines = append(lines, mutedStyle.Render(t.Notes))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

func (m TestDetailModel) renderThresholds() string {
	var lines []string
	lines = append(lines, sectionStyle.Render("Thresholds"))

	for _, t := range []struct {
		label string
		kind  analysis.Kind
		th    *store.Threshold
	}{
		{"LT1 (aerobic)", analysis.LT1, m.detail.LT1},
		{"LT2 (anaerobic)", analysis.LT2, m.detail.LT2},
	} {
		if t.th == nil {
			lines = append(lines, "  "+RenderMetric(t.label, "-"))
			continue
		}
		value := fmt.Sprintf("%s  %d bpm  %.1f mmol/L  %d%% HRmax",
			m.queryService.FormatIntensity(t.th.Value, t.th.Unit), t.th.HeartRate, t.th.Lactate, t.th.PercentOfMax)
		method := fmt.Sprintf("  %s ", t.th.Method) + confidenceStyle(t.th.Confidence).Render(t.th.Confidence)
		lines = append(lines, "  "+RenderMetric(t.label, value)+mutedStyle.Render(method))
	}

	for _, o := range m.detail.Overrides {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  Manual %s: %.1f mmol/L at %s",
			o.Kind, o.Lactate, m.queryService.FormatIntensity(o.Intensity, m.detail.Unit))))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m TestDetailModel) renderZones() string {
	z := m.detail.Zones
	var lines []string

	title := fmt.Sprintf("Training Zones (%s, max HR %d, ", z.Method, z.MaxHR)
	lines = append(lines, sectionStyle.Render(title)+confidenceStyle(z.Confidence).Render(z.Confidence)+sectionStyle.Render(")"))

	header := fmt.Sprintf("  %-16s  %-11s  %-9s  %-22s  %s", "Zone", "HR", "%HRmax", "Intensity", "Effect")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for i, zone := range z.Zones {
		color := zoneColors[i%len(zoneColors)]
		name := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("Z%d %-13s", zone.Zone, zone.Name))
		row := fmt.Sprintf("  %s  %-11s  %-9s  %-22s  %s",
			name,
			fmt.Sprintf("%d-%d", zone.HRMin, zone.HRMax),
			fmt.Sprintf("%d-%d%%", zone.PercentMin, zone.PercentMax),
			m.zoneIntensity(zone),
			mutedStyle.Render(truncate(zone.Effect, 40)),
		)
		lines = append(lines, row)
	}

	if z.Warning != "" {
		lines = append(lines, warningStyle.Render("  "+z.Warning))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// zoneIntensity renders a zone's intensity band in the unit the test used
func (m TestDetailModel) zoneIntensity(z store.Zone) string {
	var lo, hi *float64
	switch analysis.IntensityUnit(m.detail.Unit) {
	case analysis.UnitSpeed:
		lo, hi = z.SpeedMin, z.SpeedMax
	case analysis.UnitPower:
		lo, hi = z.PowerMin, z.PowerMax
	case analysis.UnitPace:
		lo, hi = z.PaceMin, z.PaceMax
	}
	if lo == nil || hi == nil {
		return "-"
	}
	return m.queryService.FormatIntensity(*lo, m.detail.Unit) + " - " + m.queryService.FormatIntensity(*hi, m.detail.Unit)
}

func (m TestDetailModel) renderCurve(title string, data []float64) string {
	var lines []string
	lines = append(lines, sectionStyle.Render(title))

	chart := asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(50),
	)
	lines = append(lines, chart)

	if len(m.detail.Intensities) > 0 {
		first := m.queryService.FormatIntensity(m.detail.Intensities[0], m.detail.Unit)
		last := m.queryService.FormatIntensity(m.detail.Intensities[len(m.detail.Intensities)-1], m.detail.Unit)
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %s → %s", first, last)))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m TestDetailModel) renderStages() string {
	var lines []string
	lines = append(lines, sectionStyle.Render("Stages"))

	header := fmt.Sprintf("  %-5s  %12s  %6s  %8s", "Stage", "Intensity", "HR", "Lactate")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for _, s := range m.detail.Stages {
		intensity := "-"
		if v, unit, ok := service.StageIntensity(s); ok {
			intensity = m.queryService.FormatIntensity(v, unit)
		}
		lines = append(lines, fmt.Sprintf("  %-5d  %12s  %6.0f  %8.1f", s.Seq, intensity, s.HeartRate, s.Lactate))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m TestDetailModel) renderWarnings() string {
	var lines []string
	lines = append(lines, sectionStyle.Render("Warnings"))
	for _, w := range m.detail.Test.Warnings {
		lines = append(lines, warningStyle.Render("  ! "+w))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
