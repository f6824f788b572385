package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistedLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	s, err := OpenFile(path)
	require.NoError(t, err)

	rec := record("42", "alice", baseTime, "Yellow Team")
	require.NoError(t, s.Put(context.Background(), rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"42": {
			"user": {"id": "42", "username": "alice", "avatar": "abc"},
			"guilds": [{"id": "1", "name": "Yellow Team"}],
			"authorizedAt": "2026-10-16T09:30:00Z"
		}
	}`, string(data))
	assert.Contains(t, string(data), "\n  \"42\"", "document should be pretty-printed")
	assert.Contains(t, string(data), "\"user\": {\n      \"id\": \"42\"", "nested objects should be indented")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_KeepsUnmodelledDiscordFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	doc := `{"42":{"user":{"id":"42","username":"alice","banner":"b1","flags":64},` +
		`"guilds":[{"id":"1","name":"Yellow Team","features":["COMMUNITY"]}],"authorizedAt":"2026-10-16T09:30:00Z"}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), record("7", "bob", baseTime)))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	alice, err := reopened.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.JSONEq(t, `"b1"`, string(alice.Profile.Extra["banner"]))
	assert.JSONEq(t, `64`, string(alice.Profile.Extra["flags"]))
	assert.JSONEq(t, `["COMMUNITY"]`, string(alice.Guilds[0].Extra["features"]))
}

func TestFileStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(context.Background(), record("42", "alice", baseTime.Add(time.Duration(i)*time.Second))))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "users.json", entries[0].Name())
}

func TestFileStore_Load(t *testing.T) {
	tests := []struct {
		name        string
		content     *string
		wantRecords int
		wantCorrupt bool
	}{
		{name: "absent file", content: nil},
		{name: "empty file", content: ptr("")},
		{name: "empty object", content: ptr("{}")},
		{
			name:        "one record",
			content:     ptr(`{"42":{"user":{"id":"42","username":"alice"},"guilds":[],"authorizedAt":"2026-10-16T09:30:00Z"}}`),
			wantRecords: 1,
		},
		{name: "truncated json", content: ptr(`{"42":{"user":`), wantCorrupt: true},
		{name: "wrong shape", content: ptr(`["42"]`), wantCorrupt: true},
		{name: "null document", content: ptr("null\n"), wantCorrupt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "users.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o600))
			}

			s, err := OpenFile(path)
			if tt.wantCorrupt {
				var corrupt *StoreCorruptError
				require.True(t, errors.As(err, &corrupt), "got %v", err)
				assert.Equal(t, path, corrupt.Location)
				return
			}
			require.NoError(t, err)

			records, err := s.Load()
			require.NoError(t, err)
			assert.Len(t, records, tt.wantRecords)
			for id, rec := range records {
				assert.Equal(t, id, rec.UserID)
			}
		})
	}
}

func TestFileStore_ConcurrentPuts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	s, err := OpenFile(path)
	require.NoError(t, err)

	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, s.Put(context.Background(), record(id, "user"+id, baseTime)))
		}(id)
	}
	wg.Wait()

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	list, err := reopened.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(ids), "no update may be lost")
}

func TestFileStore_FailedWriteKeepsMirror(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), record("42", "alice", baseTime)))

	// a directory where the document should be makes the rename fail
	s.path = dir
	err = s.Put(context.Background(), record("42", "mallory", baseTime.Add(time.Hour)))
	require.Error(t, err)

	got, err := s.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Profile.Username)
}

func ptr(s string) *string { return &s }
