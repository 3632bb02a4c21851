package tui

import (
	"lactest/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenTests Screen = iota
	ScreenDetail
	ScreenMethods
	ScreenBatch
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	tests   TestsModel
	detail  TestDetailModel
	methods MethodsModel
	batch   BatchModel
	help    HelpModel

	// Services
	queryService    *service.QueryService
	analysisService *service.AnalysisService
	paceUnit        string

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(analysisService *service.AnalysisService, queryService *service.QueryService, paceUnit string) *App {
	return &App{
		screen:          ScreenTests,
		queryService:    queryService,
		analysisService: analysisService,
		paceUnit:        paceUnit,
		tests:           NewTestsModel(queryService),
		batch:           NewBatchModel(analysisService),
		help:            NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.tests.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless a batch is running)
		if a.screen != ScreenBatch || !a.batch.running {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenTests
				return a, a.tests.Init()
			case "2":
				if a.screen != ScreenBatch {
					a.screen = ScreenBatch
					return a, a.batch.Init()
				}
			case "?":
				if a.screen != ScreenHelp {
					a.prevScreen = a.screen
				}
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				switch a.screen {
				case ScreenHelp:
					a.screen = a.prevScreen
					return a, nil
				case ScreenMethods:
					a.screen = ScreenDetail
					return a, nil
				case ScreenDetail:
					a.screen = ScreenTests
					return a, a.tests.Init()
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenTestDetailMsg:
		a.screen = ScreenDetail
		a.detail = NewTestDetailModel(a.queryService, a.analysisService, a.paceUnit, msg.TestID, a.width, a.height)
		return a, a.detail.Init()

	case OpenMethodsMsg:
		a.screen = ScreenMethods
		a.methods = NewMethodsModel(a.analysisService, a.queryService, msg.TestID)
		return a, a.methods.Init()

	case BatchCompleteMsg:
		// Results changed; reload the list so it is current when shown
		return a, a.tests.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenTests:
		var m tea.Model
		m, cmd = a.tests.Update(msg)
		a.tests = m.(TestsModel)
	case ScreenDetail:
		var m tea.Model
		m, cmd = a.detail.Update(msg)
		a.detail = m.(TestDetailModel)
	case ScreenMethods:
		var m tea.Model
		m, cmd = a.methods.Update(msg)
		a.methods = m.(MethodsModel)
	case ScreenBatch:
		var m tea.Model
		m, cmd = a.batch.Update(msg)
		a.batch = m.(BatchModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenTests:
		content = a.tests.View()
	case ScreenDetail:
		content = a.detail.View()
	case ScreenMethods:
		content = a.methods.View()
	case ScreenBatch:
		content = a.batch.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Lactate Threshold Analyzer")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Tests", ScreenTests},
		{"2", "Analyze All", ScreenBatch},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		active := a.screen == item.screen ||
			(item.screen == ScreenTests && (a.screen == ScreenDetail || a.screen == ScreenMethods))
		if active {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// BatchCompleteMsg is sent when a batch analysis finishes
type BatchCompleteMsg struct{}
