package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	authmodels "github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/tui/models"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// RecordExport is the document written by ExportRecordsToYamlFile
type RecordExport struct {
	ExportedAt time.Time                        `yaml:"exported_at"`
	Records    []authmodels.AuthorizationRecord `yaml:"records"`
}

// ExportView handles prompting for a filename and exporting records
type ExportView struct {
	items        []*models.RecordItem
	textInput    textinput.Model
	err          error
	width        int
	height       int
	exportStatus string
	Success      bool
	Exported     int
}

// NewExportView creates a new export view
func NewExportView(items []*models.RecordItem) ExportView {
	ti := textinput.New()
	ti.Placeholder = "authorizations.yaml"
	ti.Focus()
	ti.Width = 40

	return ExportView{
		items:     items,
		textInput: ti,
	}
}

// Init initializes the export view
func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the export view
func (m ExportView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return BackToMainMsg{} }
		case "enter":
			if m.textInput.Value() == "" {
				m.exportStatus = "Please enter a filename"
				return m, nil
			}

			filename := m.textInput.Value()
			if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
				filename += ".yaml"
			}

			n, err := ExportRecordsToYamlFile(m.items, filename, time.Now())
			if err != nil {
				m.err = err
				m.exportStatus = fmt.Sprintf("Error exporting: %v", err)
				return m, nil
			}

			m.Success = true
			m.Exported = n
			m.exportStatus = completeMessageStyle(fmt.Sprintf("Exported %d records to %s", n, filename))
			return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tea.Quit()
			})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the export view
func (m ExportView) View() string {
	var sb strings.Builder

	verticalPadding := (m.height - 6) / 2
	for i := 0; i < verticalPadding; i++ {
		sb.WriteString("\n")
	}

	sb.WriteString(centerText(titleStyle.Render("Export Records"), m.width))
	sb.WriteString("\n\n")

	sb.WriteString(centerText("Enter filename to export records:", m.width))
	sb.WriteString("\n")

	sb.WriteString(centerText(m.textInput.View(), m.width))
	sb.WriteString("\n\n")

	if m.exportStatus != "" {
		sb.WriteString(centerText(m.exportStatus, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(centerText("(esc) Back to list | (enter) Export", m.width))

	return sb.String()
}

// BackToMainMsg signals to leave the export page
type BackToMainMsg struct{}

// ExportRecordsToYamlFile writes every item not marked as excluded to filename
// and returns how many records were written. The file holds e-mail addresses,
// so it is created owner-readable only.
func ExportRecordsToYamlFile(items []*models.RecordItem, filename string, now time.Time) (int, error) {
	doc := RecordExport{
		ExportedAt: now.UTC().Truncate(time.Second),
		Records:    []authmodels.AuthorizationRecord{},
	}
	for _, it := range items {
		if it.Excluded {
			continue
		}
		doc.Records = append(doc.Records, it.Record)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return len(doc.Records), nil
}

// Helper function to center text horizontally
func centerText(text string, width int) string {
	if width <= len(text) {
		return text
	}

	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
