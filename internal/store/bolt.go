package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/logger"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const authorizationsBucket = "authorizations"

// BoltStore keeps one bucket entry per user, valued with the same JSON
// encoding the file backend writes.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// OpenBolt opens or creates the database at path
func OpenBolt(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(authorizationsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s bucket: %w", authorizationsBucket, err)
	}

	logger.Info("Credential store opened", zap.String("driver", "bolt"), zap.String("path", cleanPath))
	return &BoltStore{db: db, path: cleanPath}, nil
}

func (s *BoltStore) Get(ctx context.Context, userID string) (models.AuthorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.AuthorizationRecord{}, err
	}

	var rec models.AuthorizationRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		payload := tx.Bucket([]byte(authorizationsBucket)).Get([]byte(userID))
		if payload == nil {
			return ErrNotFound
		}
		var err error
		rec, err = decodeRecord(userID, payload)
		if err != nil {
			return &StoreCorruptError{Location: s.path + "#" + userID, Err: err}
		}
		return nil
	})
	return rec, err
}

func (s *BoltStore) Put(ctx context.Context, rec models.AuthorizationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return ErrMissingUserID
	}

	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(authorizationsBucket)).Put([]byte(rec.UserID), payload)
	})
}

func (s *BoltStore) List(ctx context.Context) ([]models.AuthorizationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []models.AuthorizationRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(authorizationsBucket)).ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(string(k), v)
			if err != nil {
				return &StoreCorruptError{Location: s.path + "#" + string(k), Err: err}
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortByAuthorizedAt(records)
	return records, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
