// Package store persists one AuthorizationRecord per Discord user.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/config"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotFound is returned by Get when the user never completed authorization
	ErrNotFound = errors.New("authorization record not found")

	// ErrMissingUserID is returned by Put for a record without a key
	ErrMissingUserID = errors.New("authorization record has no user id")
)

// StoreCorruptError reports a persisted document that cannot be decoded.
// It is fatal at startup.
type StoreCorruptError struct {
	Location string
	Err      error
}

func (e *StoreCorruptError) Error() string {
	return fmt.Sprintf("credential store %s is corrupt: %v", e.Location, e.Err)
}

func (e *StoreCorruptError) Unwrap() error {
	return e.Err
}

// Store is the credential store shared by the callback server and the bot
type Store interface {
	// Get returns the record for userID or ErrNotFound
	Get(ctx context.Context, userID string) (models.AuthorizationRecord, error)

	// Put inserts or wholly replaces the record keyed by rec.UserID and
	// returns only once the change is persisted
	Put(ctx context.Context, rec models.AuthorizationRecord) error

	// List returns every record, most recently authorized first
	List(ctx context.Context) ([]models.AuthorizationRecord, error)

	Close() error
}

// New opens the backend selected by cfg.Driver
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverFile, "":
		return OpenFile(cfg.Path)
	case config.StoreDriverBolt:
		return OpenBolt(cfg.Path)
	case config.StoreDriverRedis:
		return OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func encodeRecord(rec models.AuthorizationRecord) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", rec.UserID, err)
	}
	return payload, nil
}

func decodeRecord(userID string, payload []byte) (models.AuthorizationRecord, error) {
	var rec models.AuthorizationRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return models.AuthorizationRecord{}, err
	}
	rec.UserID = userID
	return rec, nil
}

func sortByAuthorizedAt(records []models.AuthorizationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].AuthorizedAt.Equal(records[j].AuthorizedAt) {
			return records[i].UserID < records[j].UserID
		}
		return records[i].AuthorizedAt.After(records[j].AuthorizedAt)
	})
}
