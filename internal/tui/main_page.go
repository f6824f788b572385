package tui

import (
	"fmt"
	"strings"

	"github.com/brizzai/discord-verify/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxPreviewRecords = 5

// MainPageKeyMap holds key bindings for the main page actions
type MainPageKeyMap struct {
	open key.Binding
	quit key.Binding
}

func newMainPageKeyMap() *MainPageKeyMap {
	return &MainPageKeyMap{
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Browse records"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c/q", "Quit"),
		),
	}
}

// MainPageModel is the landing page with a summary of the store
type MainPageModel struct {
	keys   *MainPageKeyMap
	width  int
	height int
	items  []models.RecordItem
	source string
}

// OpenListItemMsg is sent when the user chooses to open the record list
type OpenListItemMsg struct{}

// NewMainPageModel creates a new main page model. source names the store being browsed.
func NewMainPageModel(items []models.RecordItem, source string) MainPageModel {
	return MainPageModel{
		keys:   newMainPageKeyMap(),
		items:  items,
		source: source,
	}
}

// Init initializes the model
func (m MainPageModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the main page
func (m MainPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			return m, func() tea.Msg { return OpenListItemMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the main page
func (m MainPageModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render("Discord Verify Records")

	descStyle := lipgloss.NewStyle().
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center)

	description := descStyle.Render(
		"Browse the users who completed the Discord authorization flow.\n" +
			"Filter the list, inspect a record, and export a selection as YAML.\n\n" +
			"The store " + m.source + " currently holds " + pluralize(len(m.items), "record") + ".",
	)

	previewStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#5865F2")).
		Padding(1, 1).
		Width(m.width - 10).
		Align(lipgloss.Left)

	var preview strings.Builder
	shown := min(len(m.items), maxPreviewRecords)
	if shown == 0 {
		preview.WriteString("No user has authorized yet.")
	}
	for _, it := range m.items[:shown] {
		fmt.Fprintf(&preview, "%s  %s\n",
			it.Record.AuthorizedAt.UTC().Format("2006-01-02 15:04"),
			it.Title(),
		)
	}
	if len(m.items) > maxPreviewRecords {
		fmt.Fprintf(&preview, "\n... and %d more records", len(m.items)-maxPreviewRecords)
	}

	instructionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5865F2")).
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center)

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}).
		Width(m.width - 4).
		Align(lipgloss.Center)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		title,
		"",
		description,
		"",
		previewStyle.Render(preview.String()),
		"",
		instructionStyle.Render("Press ENTER to browse the records"),
		"",
		helpStyle.Render("Press q or Ctrl+C to quit"),
	)

	return docStyle.Render(content)
}

// pluralize returns count followed by noun, pluralized when needed
func pluralize(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", count, noun)
}
