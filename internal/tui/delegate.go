package tui

import (
	"github.com/brizzai/discord-verify/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ShowDetailMsg is sent when the user opens the detail pane of a record
type ShowDetailMsg struct {
	Item models.RecordItem
}

// newItemDelegate returns a list.DefaultDelegate with custom update and help functions.
func newItemDelegate(keys *delegateKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		item, ok := m.SelectedItem().(models.RecordItem)
		if !ok {
			return nil
		}
		title := item.Title()

		switch msg := msg.(type) {
		case tea.KeyMsg:
			// the filter input owns the keyboard while typing
			if m.FilterState() == list.Filtering {
				return nil
			}
			switch {
			case key.Matches(msg, keys.exclude):
				updated := item.ToggleExcluded()
				m.SetItem(m.Index(), updated)
				if updated.Excluded {
					return m.NewStatusMessage(statusMessageStyle("Excluded " + title + " from the export"))
				}
				return m.NewStatusMessage(statusMessageStyle("Added back " + title + " to the export"))
			case key.Matches(msg, keys.open):
				return func() tea.Msg { return ShowDetailMsg{Item: item} }
			}
		}
		return nil
	}

	help := []key.Binding{keys.open, keys.exclude}

	d.ShortHelpFunc = func() []key.Binding {
		return help
	}

	d.FullHelpFunc = func() [][]key.Binding {
		return [][]key.Binding{help}
	}

	return d
}

// delegateKeyMap holds key bindings for list item actions.
type delegateKeyMap struct {
	open    key.Binding
	exclude key.Binding
}

// newDelegateKeyMap creates a new delegateKeyMap with default bindings.
func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Show details"),
		),
		exclude: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "Exclude from export"),
		),
	}
}
