package store

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/logger"
	"go.uber.org/zap"
)

// FileStore keeps the whole mapping in memory and rewrites a single
// pretty-printed JSON document on every Put.
type FileStore struct {
	path    string
	mu      sync.RWMutex
	records map[string]models.AuthorizationRecord
}

// OpenFile loads the document at path. A missing file yields an empty store.
func OpenFile(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}

	s := &FileStore{path: filepath.Clean(path)}
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	s.records = records

	logger.Info("Credential store loaded",
		zap.String("driver", "file"),
		zap.String("path", s.path),
		zap.Int("records", len(records)),
	)
	return s, nil
}

// Load reads the persisted mapping from disk
func (s *FileStore) Load() (map[string]models.AuthorizationRecord, error) {
	records := map[string]models.AuthorizationRecord{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential store: %w", err)
	}
	doc := strings.TrimSpace(string(data))
	if doc == "" {
		return records, nil
	}
	if doc == "null" {
		return nil, &StoreCorruptError{Location: s.path, Err: errors.New("document is not a JSON object")}
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &StoreCorruptError{Location: s.path, Err: err}
	}
	for id, rec := range records {
		rec.UserID = id
		records[id] = rec
	}
	return records, nil
}

func (s *FileStore) Get(_ context.Context, userID string) (models.AuthorizationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return models.AuthorizationRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *FileStore) Put(ctx context.Context, rec models.AuthorizationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return ErrMissingUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.records[rec.UserID]
	s.records[rec.UserID] = rec

	if err := s.flush(); err != nil {
		// keep the mirror in step with what is on disk
		if existed {
			s.records[rec.UserID] = prev
		} else {
			delete(s.records, rec.UserID)
		}
		return err
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]models.AuthorizationRecord, error) {
	s.mu.RLock()
	records := make([]models.AuthorizationRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sortByAuthorizedAt(records)
	return records, nil
}

func (s *FileStore) Close() error {
	return nil
}

// flush writes the mapping to a sibling temp file and renames it over the
// document. Callers hold s.mu.
func (s *FileStore) flush() error {
	compact, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("marshal credential store: %w", err)
	}
	// jsoniter writes custom marshaler output verbatim, so indent the whole document
	var buf bytes.Buffer
	if err = stdjson.Indent(&buf, compact, "", "  "); err != nil {
		return fmt.Errorf("indent credential store: %w", err)
	}
	buf.WriteByte('\n')
	data := buf.Bytes()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write credential store: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync credential store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close credential store: %w", err)
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod credential store: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credential store: %w", err)
	}
	return nil
}
