package tui

import (
	"github.com/brizzai/discord-verify/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// listKeyMap holds key bindings for the list actions.
type listKeyMap struct {
	export key.Binding
	quit   key.Binding
}

// DoneMsg asks the app to open the export page with the given items
type DoneMsg struct {
	Items []*models.RecordItem
}

// newListKeyMap creates a new listKeyMap with default bindings.
func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		export: key.NewBinding(
			key.WithKeys("E", "e"),
			key.WithHelp("E", "Export"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// ListItemModel is the filterable list of stored records
type ListItemModel struct {
	list list.Model
	keys *listKeyMap
}

// NewListItemModel creates the list page for items
func NewListItemModel(items []models.RecordItem) ListItemModel {
	listKeys := newListKeyMap()

	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = it
	}

	l := list.New(listItems, newItemDelegate(newDelegateKeyMap()), 0, 0)
	l.Title = titleStyle.Render("Authorized users")
	l.SetShowFilter(true)
	// esc navigates back to the landing page
	l.KeyMap.Quit = key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "Quit"),
	)

	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			listKeys.export,
			listKeys.quit,
		}
	}
	return ListItemModel{list: l, keys: listKeys}
}

// Init returns the initial command for the list model.
func (m ListItemModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the list.
func (m ListItemModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.export):
			return m, func() tea.Msg {
				return DoneMsg{Items: m.GetVisibleItems()}
			}
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list
func (m ListItemModel) View() string {
	return docStyle.Render(m.list.View())
}

// Unfiltered reports whether no filter is being typed or applied
func (m ListItemModel) Unfiltered() bool {
	return m.list.FilterState() == list.Unfiltered
}

// GetVisibleItems returns the currently visible (filtered) items with their exclusion state
func (m ListItemModel) GetVisibleItems() []*models.RecordItem {
	visible := m.list.VisibleItems()
	result := make([]*models.RecordItem, len(visible))
	for i, item := range visible {
		it := item.(models.RecordItem)
		result[i] = &it
	}
	return result
}
