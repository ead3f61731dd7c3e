// Package backup mirrors the in-progress edit of a draft to client-local
// storage so that no edit is lost to a crash or a reload. A backup is a
// recovery hint only; the server's version check decides correctness.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/backup/kv"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

var backupLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	backupLogger = l
}

// Namespace is the kv namespace draft backups live in.
const Namespace = "drafts"

// NewDraftKey is the slot of a draft that has not been created on the server yet.
const NewDraftKey = "new"

// Key returns the slot of the draft with the given id, or NewDraftKey for nil.
func Key(id *model.DraftID) string {
	if id == nil || *id == "" {
		return NewDraftKey
	}
	return "draft-" + string(*id)
}

// LocalBackup is the persisted snapshot of an edit.
type LocalBackup struct {
	Timestamp     time.Time      `json:"timestamp"`
	Data          model.Fields   `json:"data"`
	ServerVersion *model.Version `json:"serverVersion,omitempty"`
}

type Store struct {
	mu  sync.Mutex
	kv  kv.Store
	now func() time.Time
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store, now: time.Now}
}

// Persist writes snapshot synchronously. It is called on every edit.
func (s *Store) Persist(key string, snapshot model.Fields, serverVersion *model.Version) error {
	b := LocalBackup{
		Timestamp:     s.now().UTC(),
		Data:          snapshot,
		ServerVersion: serverVersion,
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("error encoding backup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(key, data); err != nil {
		return fmt.Errorf("error writing backup %s: %w", key, err)
	}
	return nil
}

func (s *Store) load(key string) (*LocalBackup, error) {
	data, err := s.kv.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading backup %s: %w", key, err)
	}

	var b LocalBackup
	if err := json.Unmarshal(data, &b); err != nil {
		// An unreadable backup cannot be recovered from; drop it.
		backupLogger.Warn().Err(err).Str("key", key).Msg("Discarding corrupt backup")
		return nil, s.kv.Delete(key)
	}
	return &b, nil
}

// Read returns the backup stored under key when it is newer than the
// version the server reported for that draft. A stale backup is discarded.
// knownServerVersion is nil for a draft the server does not have yet.
func (s *Store) Read(key string, knownServerVersion *model.Version) (*LocalBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(key)
	if err != nil || b == nil {
		return nil, err
	}

	if knownServerVersion == nil || knownServerVersion.IsZero() || b.Timestamp.After(knownServerVersion.Time()) {
		return b, nil
	}

	backupLogger.Debug().
		Str("key", key).
		Time("backup", b.Timestamp).
		Str("server", knownServerVersion.String()).
		Msg("Discarding backup older than server version")
	if err := s.kv.Delete(key); err != nil {
		return nil, fmt.Errorf("error discarding backup %s: %w", key, err)
	}
	return nil, nil
}

// Peek returns the stored backup without applying the staleness rule.
func (s *Store) Peek(key string) (*LocalBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(key)
}

func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(key); err != nil {
		return fmt.Errorf("error clearing backup %s: %w", key, err)
	}
	return nil
}

// ClearIfMatches removes the backup only when it still holds saved, i.e. no
// edit happened after the snapshot the server confirmed.
func (s *Store) ClearIfMatches(key string, saved model.Fields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(key)
	if err != nil || b == nil {
		return false, err
	}
	if !b.Data.Equal(saved) {
		return false, nil
	}
	if err := s.kv.Delete(key); err != nil {
		return false, fmt.Errorf("error clearing backup %s: %w", key, err)
	}
	return true, nil
}

// Migrate moves the backup from one slot to another, typically from
// NewDraftKey to the key of the id the first save returned. A missing
// source is not an error.
func (s *Store) Migrate(from, to string) error {
	if from == to {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Rename(from, to)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error migrating backup %s to %s: %w", from, to, err)
	}
	backupLogger.Debug().Str("from", from).Str("to", to).Msg("Backup migrated")
	return nil
}

// SetServerVersion records the version the next snapshot was based on
// without touching its data or timestamp.
func (s *Store) SetServerVersion(key string, v model.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(key)
	if err != nil || b == nil {
		return err
	}
	b.ServerVersion = &v
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("error encoding backup: %w", err)
	}
	return s.kv.Put(key, data)
}
