package models

import (
	"fmt"
	"strings"

	authmodels "github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/charmbracelet/lipgloss"
)

// RecordItem wraps an authorization record for display in the list
// Implements list.Item
type RecordItem struct {
	Record   authmodels.AuthorizationRecord
	Excluded bool
}

func (i RecordItem) Title() string {
	p := i.Record.Profile
	if p.GlobalName != "" && p.GlobalName != p.Username {
		return fmt.Sprintf("%s (@%s)", p.GlobalName, p.Username)
	}
	return "@" + p.Username
}

func (i RecordItem) Description() string {
	if i.Excluded {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Render("[Excluded]")
	}
	return fmt.Sprintf("%s · %d guilds · %s",
		i.Record.UserID,
		len(i.Record.Guilds),
		i.Record.AuthorizedAt.UTC().Format("2006-01-02 15:04"),
	)
}

func (i RecordItem) ToggleExcluded() RecordItem {
	i.Excluded = !i.Excluded
	return i
}

func (i RecordItem) FilterValue() string {
	p := i.Record.Profile
	return strings.Join([]string{i.Record.UserID, p.Username, p.GlobalName, p.Email}, " ")
}
