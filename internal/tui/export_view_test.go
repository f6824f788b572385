package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	authmodels "github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var exportTime = time.Date(2026, 10, 16, 12, 30, 0, 0, time.UTC)

func record(id, username string, guilds ...string) authmodels.AuthorizationRecord {
	gs := make([]authmodels.Guild, len(guilds))
	for i, name := range guilds {
		gs[i] = authmodels.Guild{ID: name + "-id", Name: name}
	}
	return authmodels.NewAuthorizationRecord(
		authmodels.Profile{ID: id, Username: username},
		gs,
		time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
	)
}

func TestExportRecordsToYamlFile(t *testing.T) {
	alice := record("42", "alice", "Yellow Team")
	bob := record("7", "bob")

	testCases := []struct {
		name      string
		items     []*models.RecordItem
		wantCount int
		wantIDs   []string
	}{
		{
			name:      "Empty list",
			items:     []*models.RecordItem{},
			wantCount: 0,
		},
		{
			name:      "All records",
			items:     []*models.RecordItem{{Record: alice}, {Record: bob}},
			wantCount: 2,
			wantIDs:   []string{"42", "7"},
		},
		{
			name:      "Excluded records are skipped",
			items:     []*models.RecordItem{{Record: alice, Excluded: true}, {Record: bob}},
			wantCount: 1,
			wantIDs:   []string{"7"},
		},
		{
			name:      "Everything excluded",
			items:     []*models.RecordItem{{Record: alice, Excluded: true}},
			wantCount: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "export.yaml")

			n, err := ExportRecordsToYamlFile(tc.items, path, exportTime)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCount, n)

			doc := readExport(t, path)
			assert.True(t, doc.ExportedAt.Equal(exportTime))

			ids := make([]string, len(doc.Records))
			for i, rec := range doc.Records {
				ids[i] = rec.UserID
			}
			assert.True(t, cmp.Equal(tc.wantIDs, ids, cmpopts.EquateEmpty()), cmp.Diff(tc.wantIDs, ids))
		})
	}
}

func TestExportRecordsToYamlFile_Layout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.yaml")
	_, err := ExportRecordsToYamlFile([]*models.RecordItem{{Record: record("42", "alice", "Yellow Team")}}, path, exportTime)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	var raw map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &raw))

	records := raw["records"].([]any)
	require.Len(t, records, 1)
	first := records[0].(map[string]any)
	assert.Equal(t, "42", first["user_id"])
	assert.Contains(t, first, "authorized_at")
	assert.Equal(t, "alice", first["user"].(map[string]any)["username"])
	assert.Equal(t, "Yellow Team", first["guilds"].([]any)[0].(map[string]any)["name"])

	doc := readExport(t, path)
	require.Len(t, doc.Records, 1)
	if diff := cmp.Diff(record("42", "alice", "Yellow Team"), doc.Records[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestExportRecordsToYamlFile_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "export.yaml")
	_, err := ExportRecordsToYamlFile(nil, path, exportTime)
	assert.Error(t, err)
}

func readExport(t *testing.T, path string) RecordExport {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc RecordExport
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

func TestRecordItem(t *testing.T) {
	item := models.RecordItem{Record: record("42", "alice", "A", "B")}
	assert.Equal(t, "@alice", item.Title())
	assert.Equal(t, "42 · 2 guilds · 2026-10-16 08:00", item.Description())
	assert.Contains(t, item.FilterValue(), "alice")

	item.Record.Profile.GlobalName = "Alice"
	assert.Equal(t, "Alice (@alice)", item.Title())

	excluded := item.ToggleExcluded()
	assert.True(t, excluded.Excluded)
	assert.False(t, item.Excluded, "toggling returns a copy")
	assert.Contains(t, excluded.Description(), "[Excluded]")
}

// send feeds msgs to m and follows the page-switching messages their commands produce
func send(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		for cmd != nil {
			next := cmd()
			if !isPageMsg(next) {
				break
			}
			m, cmd = m.Update(next)
		}
	}
	return m
}

func isPageMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case OpenListItemMsg, ShowDetailMsg, BackToListMsg, BackToMainMsg, DoneMsg:
		return true
	}
	return false
}

func TestAppModel_Navigation(t *testing.T) {
	records := []authmodels.AuthorizationRecord{record("7", "bob"), record("42", "alice", "Yellow Team")}
	var m tea.Model = NewAppModel(records, "users.json", "https://cdn.discordapp.com")

	m = send(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	app := m.(AppModel)
	assert.Equal(t, pageMain, app.page)
	assert.Contains(t, app.View(), "2 records")
	assert.Contains(t, app.View(), "@bob")

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, pageList, m.(AppModel).page)

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(AppModel)
	require.Equal(t, pageDetail, app.page)
	assert.Equal(t, "7", app.detailView.item.Record.UserID)
	assert.Contains(t, app.View(), "https://cdn.discordapp.com/embed/avatars/")

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, pageList, m.(AppModel).page)

	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	items := m.(AppModel).listView.GetVisibleItems()
	require.Len(t, items, 2)
	assert.True(t, items[0].Excluded)
	assert.False(t, items[1].Excluded)

	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	app = m.(AppModel)
	require.Equal(t, pageExport, app.page)
	assert.Len(t, app.exportView.items, 2)
	assert.Equal(t, 0, app.Exported())

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, pageList, m.(AppModel).page)

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, pageMain, m.(AppModel).page)
}

func TestMainPage_Empty(t *testing.T) {
	var m tea.Model = NewMainPageModel(nil, "users.json")
	assert.Equal(t, "Loading...", m.View())

	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	view := m.View()
	assert.Contains(t, view, "No user has authorized yet.")
	assert.Contains(t, view, "0 records")
}
