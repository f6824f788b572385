package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestBoltStore_CorruptValue(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(authorizationsBucket)).Put([]byte("42"), []byte("{not json"))
	}))

	_, err = s.Get(context.Background(), "42")
	var corrupt *StoreCorruptError
	assert.True(t, errors.As(err, &corrupt))

	_, err = s.List(context.Background())
	assert.True(t, errors.As(err, &corrupt))
}

func TestBoltStore_StoresRecordEncoding(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), record("42", "alice", baseTime)))

	var raw []byte
	require.NoError(t, s.db.View(func(tx *bbolt.Tx) error {
		raw = append(raw, tx.Bucket([]byte(authorizationsBucket)).Get([]byte("42"))...)
		return nil
	}))
	assert.JSONEq(t, `{"user":{"id":"42","username":"alice","avatar":"abc"},"guilds":[],"authorizedAt":"2026-10-16T09:30:00Z"}`, string(raw))
}

func TestOpenBolt_EmptyPath(t *testing.T) {
	_, err := OpenBolt(" ")
	assert.Error(t, err)
}
