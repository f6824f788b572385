// Package tui implements the interactive browser over stored authorization records.
package tui

import (
	authmodels "github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	pageMain   = "main"
	pageList   = "list"
	pageDetail = "detail"
	pageExport = "export"
)

// AppModel is the main application model that manages page switching
type AppModel struct {
	mainPage   MainPageModel
	listView   ListItemModel
	detailView DetailView
	exportView ExportView
	page       string
	cdnBase    string
	width      int
	height     int
}

// NewAppModel creates a new AppModel over records, which are shown in the given order
func NewAppModel(records []authmodels.AuthorizationRecord, source, cdnBase string) AppModel {
	items := make([]models.RecordItem, len(records))
	for i, rec := range records {
		items[i] = models.RecordItem{Record: rec}
	}

	return AppModel{
		mainPage: NewMainPageModel(items, source),
		listView: NewListItemModel(items),
		page:     pageMain,
		cdnBase:  cdnBase,
	}
}

// Init initializes the AppModel
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.mainPage.Init(),
		m.listView.Init(),
	)
}

// Update handles app-level messages and delegates to the appropriate page model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case OpenListItemMsg:
		m.page = pageList
		return m, m.listView.Init()

	case ShowDetailMsg:
		m.page = pageDetail
		m.detailView = NewDetailView(msg.Item, m.cdnBase, m.width, m.height)
		return m, m.detailView.Init()

	case BackToListMsg, BackToMainMsg:
		m.page = pageList
		return m, nil

	case DoneMsg:
		m.page = pageExport
		m.exportView = NewExportView(msg.Items)
		m.exportView.width, m.exportView.height = m.width, m.height
		return m, m.exportView.Init()

	case tea.KeyMsg:
		if msg.String() == "esc" && m.page == pageList && m.listView.Unfiltered() {
			m.page = pageMain
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		var cmd tea.Cmd
		var tempModel tea.Model

		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
		cmds = append(cmds, cmd)

		tempModel, cmd = m.listView.Update(msg)
		m.listView = tempModel.(ListItemModel)
		cmds = append(cmds, cmd)

		tempModel, cmd = m.detailView.Update(msg)
		m.detailView = tempModel.(DetailView)
		cmds = append(cmds, cmd)

		tempModel, cmd = m.exportView.Update(msg)
		m.exportView = tempModel.(ExportView)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	var tempModel tea.Model
	switch m.page {
	case pageMain:
		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
	case pageList:
		tempModel, cmd = m.listView.Update(msg)
		m.listView = tempModel.(ListItemModel)
	case pageDetail:
		tempModel, cmd = m.detailView.Update(msg)
		m.detailView = tempModel.(DetailView)
	case pageExport:
		tempModel, cmd = m.exportView.Update(msg)
		m.exportView = tempModel.(ExportView)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the active page
func (m AppModel) View() string {
	switch m.page {
	case pageMain:
		return m.mainPage.View()
	case pageDetail:
		return m.detailView.View()
	case pageExport:
		return m.exportView.View()
	default:
		return m.listView.View()
	}
}

// Exported reports how many records were written, zero when the user quit without exporting
func (m AppModel) Exported() int {
	if !m.exportView.Success {
		return 0
	}
	return m.exportView.Exported
}
