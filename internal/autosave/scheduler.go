// Package autosave turns a rapid stream of edits into a bounded, cancellable
// stream of save attempts. At most one save is in flight at a time; a newer
// attempt always aborts the previous one.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

var autosaveLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	autosaveLogger = l
}

const (
	DefaultDebounce       = 2 * time.Second
	DefaultRequestTimeout = 1800 * time.Millisecond
)

// Saver performs one save against the persistence gateway. It must return
// draft.ErrAborted (or a context error) when ctx is cancelled.
type Saver interface {
	Save(ctx context.Context, req draft.SaveRequest) (*draft.SaveResponse, error)
}

type Options struct {
	Debounce       time.Duration
	RequestTimeout time.Duration
	// OnChange receives outcomes in order on a dedicated goroutine, so it may
	// call back into the Scheduler.
	OnChange func(Outcome)
}

type Scheduler struct {
	saver    Saver
	debounce time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	status Status

	// Baseline the next request is built from.
	draftID *model.DraftID
	version *model.Version

	// pending is the latest snapshot not yet confirmed by the server.
	pending *model.Fields

	timerSeq uint64
	timer    *time.Timer

	gen      uint64
	cancel   context.CancelFunc
	inflight *model.Fields
	creating bool
	deferred bool
	// createDone is closed once the in-flight create has been handled.
	createDone chan struct{}

	// abandoned holds snapshots whose requests were aborted or failed after
	// being sent. The server may still have applied them.
	abandoned []model.Fields

	blocked  bool
	conflict *draft.ConflictError
	lastErr  error
	closed   bool

	wg     sync.WaitGroup
	events *dispatcher
}

func New(saver Saver, opts Options) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Scheduler{
		saver:    saver,
		debounce: opts.Debounce,
		timeout:  opts.RequestTimeout,
		events:   newDispatcher(opts.OnChange),
	}
}

// Reset replaces the baseline and drops any pending snapshot, conflict and
// in-flight attempt. It is used on mount and when adopting the server state.
func (s *Scheduler) Reset(id *model.DraftID, version *model.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimer()
	s.abort()
	s.draftID = copyPtr(id)
	s.version = copyPtr(version)
	s.pending = nil
	s.abandoned = nil
	s.blocked = false
	s.conflict = nil
	s.lastErr = nil
	s.setStatus(Outcome{Status: StatusIdle})
}

// Baseline returns the draft id and version the next save will carry.
func (s *Scheduler) Baseline() (*model.DraftID, *model.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPtr(s.draftID), copyPtr(s.version)
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Conflict returns the unresolved conflict, if any.
func (s *Scheduler) Conflict() *draft.ConflictError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflict
}

// Err returns the error of the last failed attempt.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Update records snapshot as the latest pending edit and restarts the
// debounce window. Intermediate snapshots are coalesced, never queued.
func (s *Scheduler) Update(snapshot model.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending = &snapshot
	s.abort()

	if s.status == StatusSaved {
		s.setStatus(Outcome{Status: StatusIdle, Snapshot: snapshot})
	}
	if s.blocked {
		return
	}

	s.stopTimer()
	s.timerSeq++
	seq := s.timerSeq
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(seq) })
}

// TriggerImmediate cancels the debounce window and any in-flight attempt and
// saves snapshot right away.
func (s *Scheduler) TriggerImmediate(snapshot model.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending = &snapshot
	s.stopTimer()
	s.abort()
	s.start(snapshot)
}

// CancelPendingSave cancels the debounce window and aborts an in-flight
// update without issuing a new one. An in-flight create is waited for instead,
// so the draft it made is known by id when this returns; its outcome has been
// delivered by then. It must not be called from OnChange.
func (s *Scheduler) CancelPendingSave() {
	s.mu.Lock()
	s.stopTimer()
	s.deferred = false
	s.abort()
	done := s.createDone
	s.mu.Unlock()

	if done != nil {
		<-done
		s.events.flush()
	}
}

// Retry resends the retained snapshot after a failed attempt. It reports
// whether an attempt was started.
func (s *Scheduler) Retry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.status != StatusError || s.pending == nil {
		return false
	}
	s.stopTimer()
	s.start(*s.pending)
	return true
}

// Overwrite resolves a conflict by resubmitting the local snapshot against
// the server's current version.
func (s *Scheduler) Overwrite() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.conflict == nil {
		return false
	}
	v := s.conflict.ServerVersion
	s.version = &v
	s.conflict = nil
	s.blocked = false
	if s.pending == nil {
		s.setStatus(Outcome{Status: StatusIdle})
		return true
	}
	s.start(*s.pending)
	return true
}

// Suspend keeps autosave off while an unresolved conflict is deferred. Edits
// keep being recorded and are sent by the next explicit resolution.
func (s *Scheduler) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimer()
	s.abort()
	s.blocked = true
	s.setStatus(Outcome{Status: StatusIdle})
}

// Close aborts an in-flight update, lets an in-flight create finish and waits
// for the attempt to return. It must not be called from OnChange.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimer()
	s.deferred = false
	s.abort()
	s.mu.Unlock()

	s.wg.Wait()
	s.events.close()
}

func (s *Scheduler) fire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.timerSeq || s.closed || s.blocked || s.pending == nil {
		return
	}
	s.timer = nil
	s.start(*s.pending)
}

func (s *Scheduler) stopTimer() {
	s.timerSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// abort cancels the in-flight update. A create in flight is left to finish so
// that it never leaves an orphaned draft behind; the newer snapshot follows
// it instead.
func (s *Scheduler) abort() {
	if s.cancel == nil || s.creating {
		return
	}
	s.abortAll()
}

func (s *Scheduler) abortAll() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.gen++
	if s.inflight != nil {
		s.abandoned = append(s.abandoned, *s.inflight)
		s.inflight = nil
	}
	s.creating = false
	s.createDone = nil
	s.deferred = false
	autosaveLogger.Debug().Msg("In-flight save aborted")
}

// start must be called with mu held.
func (s *Scheduler) start(snapshot model.Fields) {
	if s.creating {
		s.deferred = true
		return
	}

	s.gen++
	gen := s.gen
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.cancel = cancel
	s.inflight = &snapshot
	s.creating = s.draftID == nil
	var done chan struct{}
	if s.creating {
		done = make(chan struct{})
		s.createDone = done
	}

	req := draft.NewSaveRequest(copyPtr(s.draftID), snapshot, copyPtr(s.version))
	s.setStatus(Outcome{Status: StatusSaving, Snapshot: snapshot})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		resp, err := s.saver.Save(ctx, req)
		s.finish(gen, snapshot, resp, err)
		if done != nil {
			close(done)
		}
	}()
}

func (s *Scheduler) finish(gen uint64, snapshot model.Fields, resp *draft.SaveResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		// Superseded. Aborted attempts produce no visible change.
		return
	}
	s.cancel = nil
	s.inflight = nil
	s.creating = false
	s.createDone = nil
	deferred := s.deferred
	s.deferred = false

	if err == nil && resp == nil {
		err = errors.New("empty save response")
	}

	var conflict *draft.ConflictError
	switch {
	case err == nil:
		id := resp.ID
		v := resp.UpdatedAt
		s.draftID = &id
		s.version = &v
		s.abandoned = nil
		s.lastErr = nil
		s.blocked = false
		s.conflict = nil
		if s.pending != nil && s.pending.Equal(snapshot) {
			s.pending = nil
		}
		s.setStatus(Outcome{Status: StatusSaved, Snapshot: snapshot, Response: resp})

		if deferred && s.pending != nil && !s.closed {
			s.start(*s.pending)
		}

	case errors.Is(err, draft.ErrAborted), errors.Is(err, context.Canceled):
		return

	case errors.As(err, &conflict):
		if s.ownWrite(conflict) {
			// The server holds a snapshot this client sent and later
			// abandoned. Nobody else wrote, so continue from there.
			autosaveLogger.Debug().
				Str("version", conflict.ServerVersion.String()).
				Msg("Conflict caused by an aborted save of ours, resending")
			v := conflict.ServerVersion
			s.version = &v
			s.abandoned = nil
			if s.pending == nil {
				s.pending = &snapshot
			}
			s.start(*s.pending)
			return
		}
		s.blocked = true
		s.conflict = conflict
		s.stopTimer()
		if s.pending == nil {
			s.pending = &snapshot
		}
		s.setStatus(Outcome{Status: StatusConflict, Snapshot: snapshot, Conflict: conflict})

	default:
		s.lastErr = err
		if s.pending == nil {
			s.pending = &snapshot
		}
		if draft.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded) {
			// The write may have landed before the request failed.
			s.abandoned = append(s.abandoned, snapshot)
		}
		autosaveLogger.Warn().Err(err).Bool("retryable", draft.IsRetryable(err)).Msg("Save failed")
		s.setStatus(Outcome{Status: StatusError, Snapshot: snapshot, Err: err})
	}
}

func (s *Scheduler) ownWrite(c *draft.ConflictError) bool {
	for _, a := range s.abandoned {
		if covers(c.ServerContent, a) {
			return true
		}
	}
	return false
}

// covers reports whether every field supplied in sent has the same value in server.
func covers(server, sent model.Fields) bool {
	match := func(a, b *string) bool { return b == nil || (a != nil && *a == *b) }
	return match(server.Title, sent.Title) &&
		match(server.Content, sent.Content) &&
		match(server.Description, sent.Description) &&
		match(server.CoverImage, sent.CoverImage) &&
		match(server.CustomAuthor, sent.CustomAuthor)
}

func (s *Scheduler) setStatus(o Outcome) {
	s.status = o.Status
	s.events.push(o)
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
