// Package editor is the client side of draft editing. A Session mirrors
// every edit to the local backup, autosaves it and applies the user's answer
// to a conflict.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/autosave"
	"github.com/Rani367/Hativon-sub000/internal/backup"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

var (
	ErrNoConflict = errors.New("no conflict to resolve")
	ErrNotCreated = errors.New("draft has not been created yet")
	ErrClosed     = errors.New("session closed")
)

// Remote is the server side a Session works against.
type Remote interface {
	autosave.Saver
	Get(ctx context.Context, id model.DraftID) (*draft.DraftResponse, error)
	Delete(ctx context.Context, id model.DraftID) error
}

type Options struct {
	Debounce       time.Duration
	RequestTimeout time.Duration
	// OnStatus is called on the scheduler's dispatch goroutine after the
	// session has handled the outcome.
	OnStatus func(autosave.Outcome)
}

type Session struct {
	remote    Remote
	backups   *backup.Store
	scheduler *autosave.Scheduler
	onStatus  func(autosave.Outcome)

	mu      sync.Mutex
	id      *model.DraftID
	current model.Fields
	closed  bool
}

// Open mounts a draft. For an existing draft the server copy becomes the
// baseline. A local backup newer than the server copy is returned for the
// caller to Restore or Discard; an older one is dropped.
func Open(ctx context.Context, remote Remote, backups *backup.Store, id *model.DraftID, opts Options) (*Session, *backup.LocalBackup, error) {
	s := &Session{
		remote:   remote,
		backups:  backups,
		onStatus: opts.OnStatus,
	}
	s.scheduler = autosave.New(remote, autosave.Options{
		Debounce:       opts.Debounce,
		RequestTimeout: opts.RequestTimeout,
		OnChange:       s.handleOutcome,
	})

	var known *model.Version
	if id != nil {
		d, err := remote.Get(ctx, *id)
		if err != nil {
			s.scheduler.Close()
			return nil, nil, fmt.Errorf("error loading draft %s: %w", *id, err)
		}
		draftID := d.ID
		version := d.UpdatedAt
		s.id = &draftID
		s.current = d.Fields()
		known = &version
		s.scheduler.Reset(&draftID, &version)
	}

	recovered, err := backups.Read(backup.Key(s.id), known)
	if err != nil {
		editorLogger.Warn().Err(err).Msg("Failed to read local backup")
		recovered = nil
	}
	return s, recovered, nil
}

func (s *Session) key() string {
	return backup.Key(s.id)
}

// Edit records the new field values. The backup is written before this
// returns; the server save follows after the debounce window.
func (s *Session) Edit(fields model.Fields) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.current = fields
	_, version := s.scheduler.Baseline()
	err := s.backups.Persist(s.key(), fields, version)
	s.mu.Unlock()

	s.scheduler.Update(fields)
	return err
}

// Restore adopts a recovered backup as the current edit.
func (s *Session) Restore(b *backup.LocalBackup) error {
	return s.Edit(b.Data)
}

// Save sends the current fields now, skipping the debounce window.
func (s *Session) Save() {
	s.mu.Lock()
	fields := s.current
	s.mu.Unlock()
	s.scheduler.TriggerImmediate(fields)
}

func (s *Session) Retry() bool {
	return s.scheduler.Retry()
}

// Resolve applies the user's answer to the current conflict.
func (s *Session) Resolve(res draft.Resolution) error {
	conflict := s.scheduler.Conflict()
	if conflict == nil {
		return ErrNoConflict
	}

	switch res {
	case draft.Overwrite:
		if !s.scheduler.Overwrite() {
			return ErrNoConflict
		}
	case draft.Reload:
		s.mu.Lock()
		s.current = conflict.ServerContent
		id := s.id
		err := s.backups.Clear(s.key())
		s.mu.Unlock()
		s.scheduler.Reset(id, &conflict.ServerVersion)
		if err != nil {
			return err
		}
	case draft.ContinueEditing:
		s.scheduler.Suspend()
	default:
		return fmt.Errorf("unknown resolution %d", res)
	}

	editorLogger.Info().Str("resolution", res.String()).Msg("Conflict resolved")
	return nil
}

// Discard drops local edits that were not saved: the backup is cleared,
// autosave forgets the pending snapshot and the last saved copy becomes
// current again.
func (s *Session) Discard(ctx context.Context) error {
	s.scheduler.CancelPendingSave()
	id, version := s.scheduler.Baseline()
	s.scheduler.Reset(id, version)

	var saved *model.Fields
	if id != nil {
		d, err := s.remote.Get(ctx, *id)
		if err != nil {
			return err
		}
		f := d.Fields()
		saved = &f
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if saved != nil {
		s.current = *saved
	} else {
		s.current = model.Fields{}
	}
	return s.backups.Clear(s.key())
}

// Delete removes the draft on the server. Autosave is cancelled first so that
// no save races the deletion; a create still in flight is waited for and its
// draft deleted.
func (s *Session) Delete(ctx context.Context) error {
	s.scheduler.CancelPendingSave()

	s.mu.Lock()
	id := s.id
	s.mu.Unlock()
	if id == nil {
		return ErrNotCreated
	}

	if err := s.remote.Delete(ctx, *id); err != nil {
		return err
	}

	s.mu.Lock()
	err := s.backups.Clear(s.key())
	s.mu.Unlock()
	s.Close()
	return err
}

func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.scheduler.Close()
}

func (s *Session) Status() autosave.Status {
	return s.scheduler.Status()
}

func (s *Session) Conflict() *draft.ConflictError {
	return s.scheduler.Conflict()
}

func (s *Session) Err() error {
	return s.scheduler.Err()
}

// Baseline is the last version confirmed by the server.
func (s *Session) Baseline() (*model.DraftID, *model.Version) {
	return s.scheduler.Baseline()
}

// ID returns the draft id once the draft exists on the server.
func (s *Session) ID() *model.DraftID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return nil
	}
	id := *s.id
	return &id
}

func (s *Session) Current() model.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) handleOutcome(o autosave.Outcome) {
	if o.Status == autosave.StatusSaved {
		s.saved(o)
	}
	if s.onStatus != nil {
		s.onStatus(o)
	}
}

// saved moves the backup to the id slot after a create and clears it when it
// holds exactly what the server confirmed.
func (s *Session) saved(o autosave.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == nil {
		id := o.Response.ID
		s.id = &id
		if err := s.backups.Migrate(backup.NewDraftKey, s.key()); err != nil {
			editorLogger.Error().Err(err).Str("draft_id", string(id)).Msg("Failed to migrate backup")
			return
		}
	}

	cleared, err := s.backups.ClearIfMatches(s.key(), o.Snapshot)
	if err != nil {
		editorLogger.Error().Err(err).Msg("Failed to clear backup")
		return
	}
	editorLogger.Debug().
		Str("draft_id", string(*s.id)).
		Str("version", o.Response.UpdatedAt.String()).
		Bool("backup_cleared", cleared).
		Msg("Draft saved")
}
