package tui

import (
	"fmt"
	"strings"

	"github.com/brizzai/discord-verify/internal/tui/models"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// BackToListMsg closes the detail pane
type BackToListMsg struct{}

// DetailView shows every stored field of one record in a scrollable pane
type DetailView struct {
	item     models.RecordItem
	viewport viewport.Model
	cdnBase  string
}

// NewDetailView creates the pane for item, sized to width x height
func NewDetailView(item models.RecordItem, cdnBase string, width, height int) DetailView {
	h, v := docStyle.GetFrameSize()
	vp := viewport.New(max(width-h, 0), max(height-v-2, 0))
	vp.SetContent(renderDetail(item, cdnBase))
	return DetailView{item: item, viewport: vp, cdnBase: cdnBase}
}

func (m DetailView) Init() tea.Cmd {
	return nil
}

func (m DetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "q":
			return m, func() tea.Msg { return BackToListMsg{} }
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.viewport.Width = max(msg.Width-h, 0)
		m.viewport.Height = max(msg.Height-v-2, 0)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DetailView) View() string {
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.item.Title()),
		m.viewport.View(),
		statusMessageStyle("(esc) Back to list | ↑/↓ scroll"),
	))
}

func renderDetail(item models.RecordItem, cdnBase string) string {
	rec := item.Record
	p := rec.Profile

	email := p.Email
	if !p.HasEmail() {
		email = "-"
	}

	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	row("User ID", rec.UserID)
	row("Username", p.Username)
	row("Display name", p.DisplayName())
	row("Email", email)
	row("Verified", fmt.Sprintf("%t", p.Verified))
	row("Locale", p.Locale)
	row("Avatar", p.AvatarURL(cdnBase))
	row("Authorized", rec.AuthorizedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render(fmt.Sprintf("Guilds (%d)", len(rec.Guilds))))
	sb.WriteString("\n")
	for _, g := range rec.Guilds {
		marker := " "
		if g.Owner {
			marker = "★"
		}
		fmt.Fprintf(&sb, " %s %s  %s\n", marker, g.Name, labelStyle.UnsetWidth().Render(g.ID))
	}
	return sb.String()
}
