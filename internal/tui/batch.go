package tui

import (
	"context"
	"fmt"
	"strings"

	"lactest/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// BatchModel is the analyze-all screen model
type BatchModel struct {
	analysisService *service.AnalysisService
	running         bool
	progress        service.BatchProgress
	updates         <-chan service.BatchProgress
	done            <-chan BatchDoneMsg
	result          *service.BatchResult
	err             error
	finished        bool
}

// NewBatchModel creates a new batch model
func NewBatchModel(as *service.AnalysisService) BatchModel {
	return BatchModel{analysisService: as}
}

// Init initializes the batch screen
func (m BatchModel) Init() tea.Cmd {
	return nil
}

// BatchDoneMsg is sent when a batch finishes
type BatchDoneMsg struct {
	Result *service.BatchResult
	Err    error
}

type batchProgressMsg service.BatchProgress

// Update handles messages
func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case batchProgressMsg:
		m.progress = service.BatchProgress(msg)
		return m, m.wait

	case BatchDoneMsg:
		m.running = false
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return BatchCompleteMsg{} }

	case tea.KeyMsg:
		if !m.running {
			switch msg.String() {
			case "enter", "a":
				return m.start()
			}
		}
	}
	return m, nil
}

func (m BatchModel) start() (BatchModel, tea.Cmd) {
	updates := make(chan service.BatchProgress, 16)
	done := make(chan BatchDoneMsg, 1)

	go func() {
		result, err := m.analysisService.AnalyzeAll(context.Background(), updates)
		done <- BatchDoneMsg{Result: result, Err: err}
	}()

	m.running = true
	m.finished = false
	m.err = nil
	m.result = nil
	m.progress = service.BatchProgress{}
	m.updates = updates
	m.done = done
	return m, m.wait
}

// wait delivers the next progress update, or the result once the
// progress channel is closed
func (m BatchModel) wait() tea.Msg {
	if p, ok := <-m.updates; ok {
		return batchProgressMsg(p)
	}
	return <-m.done
}

// View renders the batch screen
func (m BatchModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Analyze All"))

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, "\n"+statusStyle.Render("  Press 'a' or Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	switch {
	case m.finished:
		sections = append(sections, successStyle.Render("\n  Analysis complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to go to the test list"))
	case m.running:
		sections = append(sections, m.renderProgress())
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m BatchModel) renderStartPrompt() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  This will analyze every test without a current result:")
	lines = append(lines, "")
	lines = append(lines, "  1. Newly imported tests")
	lines = append(lines, "  2. Tests whose manual thresholds changed")
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press 'a' or Enter to start"))

	return strings.Join(lines, "\n")
}

func (m BatchModel) renderProgress() string {
	var lines []string

	lines = append(lines, "")
	p := m.progress
	if p.Total == 0 {
		lines = append(lines, "  Looking for tests to analyze...")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, fmt.Sprintf("  %s  %d/%d", RenderProgressBar(float64(p.Completed)/float64(p.Total), 30), p.Completed, p.Total))
	if p.CurrentTest != "" {
		lines = append(lines, mutedStyle.Render("  "+p.CurrentTest))
	}
	if p.Error != nil {
		lines = append(lines, warningStyle.Render("  "+p.Error.Error()))
	}

	return strings.Join(lines, "\n")
}

func (m BatchModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	r := m.result
	var lines []string
	lines = append(lines, "")

	if r.Analyzed > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d tests analyzed", r.Analyzed)))
	} else if r.Pending == 0 {
		lines = append(lines, statusStyle.Render("  Every test is up to date"))
	}

	if r.Warnings > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d warnings, see each test for details", r.Warnings)))
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d tests could not be analyzed", len(r.Errors))))
		for _, err := range r.Errors {
			lines = append(lines, mutedStyle.Render("  "+err.Error()))
		}
	}

	return strings.Join(lines, "\n")
}
