package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Rani367/Hativon-sub000/internal/auth"
	"github.com/Rani367/Hativon-sub000/internal/autosave"
	"github.com/Rani367/Hativon-sub000/internal/backup"
	"github.com/Rani367/Hativon-sub000/internal/backup/kv"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/gateway"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/repository"
)

const (
	debounce    = 10 * time.Millisecond
	waitTimeout = 2 * time.Second
)

// gatewayRemote calls the gateway in process on behalf of one user.
type gatewayRemote struct {
	gw   *gateway.Gateway
	user model.UserID

	mu    sync.Mutex
	saves int
	fail  error
	// gates[n], when set, holds the n-th save until it is closed.
	gates []chan struct{}
	// holds[n], when set, holds the n-th save after the server applied it.
	holds []chan struct{}
}

func (r *gatewayRemote) Save(ctx context.Context, req draft.SaveRequest) (*draft.SaveResponse, error) {
	r.mu.Lock()
	n := r.saves
	r.saves++
	fail := r.fail
	var gate, hold chan struct{}
	if n < len(r.gates) {
		gate = r.gates[n]
	}
	if n < len(r.holds) {
		hold = r.holds[n]
	}
	r.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, draft.ErrAborted
		}
	}

	res, err := r.gw.Save(ctx, r.user, req)
	if err != nil {
		return nil, err
	}
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, draft.ErrAborted
		}
	}
	return &draft.SaveResponse{Success: true, ID: res.ID, UpdatedAt: res.Version, IsNew: res.IsNew}, nil
}

func (r *gatewayRemote) Get(ctx context.Context, id model.DraftID) (*draft.DraftResponse, error) {
	d, err := r.gw.Get(ctx, r.user, id)
	if err != nil {
		return nil, err
	}
	resp := draft.NewDraftResponse(d)
	return &resp, nil
}

func (r *gatewayRemote) Delete(ctx context.Context, id model.DraftID) error {
	return r.gw.Delete(ctx, r.user, id)
}

func (r *gatewayRemote) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *gatewayRemote) setFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

type harness struct {
	gw *gateway.Gateway
}

func newHarness() *harness {
	return &harness{gw: gateway.NewGateway(repository.NewMemoryDraftStore(), auth.NewOwnerOrAdmin())}
}

func (h *harness) remote(user model.UserID) *gatewayRemote {
	return &gatewayRemote{gw: h.gw, user: user}
}

type statuses chan autosave.Outcome

func (c statuses) waitFor(t *testing.T, status autosave.Status) autosave.Outcome {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case o := <-c:
			if o.Status == status {
				return o
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %s", status)
		}
	}
}

// waitForContent skips outcomes until one with status carries content.
func (c statuses) waitForContent(t *testing.T, status autosave.Status, content string) autosave.Outcome {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case o := <-c:
			if o.Status == status && o.Snapshot.Content != nil && *o.Snapshot.Content == content {
				return o
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %s with %q", status, content)
		}
	}
}

func open(t *testing.T, remote Remote, backups *backup.Store, id *model.DraftID) (*Session, *backup.LocalBackup, statuses) {
	t.Helper()
	ch := make(statuses, 64)
	s, recovered, err := Open(context.Background(), remote, backups, id, Options{
		Debounce:       debounce,
		RequestTimeout: time.Second,
		OnStatus:       func(o autosave.Outcome) { ch <- o },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s, recovered, ch
}

func newBackups() *backup.Store {
	return backup.NewStore(kv.NewMemoryStore(backup.Namespace, nil))
}

func fields(title, content string) model.Fields {
	return model.Fields{Title: model.StringPtr(title), Content: model.StringPtr(content)}
}

func TestNewDraftBackupLifecycle(t *testing.T) {
	h := newHarness()
	backups := newBackups()
	s, recovered, ch := open(t, h.remote("alice"), backups, nil)
	if recovered != nil {
		t.Fatalf("Expected no backup, got %+v", recovered)
	}

	if err := s.Edit(fields("A", "B")); err != nil {
		t.Fatal(err)
	}
	b, _ := backups.Peek(backup.NewDraftKey)
	if b == nil || *b.Data.Title != "A" {
		t.Fatalf("Backup must be written synchronously, got %+v", b)
	}

	o := ch.waitFor(t, autosave.StatusSaved)
	if !o.Response.IsNew {
		t.Errorf("Expected create, got %+v", o.Response)
	}
	id := s.ID()
	if id == nil || *id != o.Response.ID {
		t.Fatalf("Session should adopt the new id, got %v", id)
	}
	if b, _ := backups.Peek(backup.NewDraftKey); b != nil {
		t.Error("The new-draft slot should be empty after the first save")
	}
	if b, _ := backups.Peek(backup.Key(id)); b != nil {
		t.Error("Backup should be cleared after a confirmed save")
	}
}

func TestEditDuringSaveKeepsBackup(t *testing.T) {
	h := newHarness()
	backups := newBackups()
	remote := h.remote("alice")
	first, second := make(chan struct{}), make(chan struct{})
	remote.gates = []chan struct{}{first, second}
	s, _, ch := open(t, remote, backups, nil)

	s.Edit(fields("A", "one"))
	ch.waitFor(t, autosave.StatusSaving)
	// Lands while the create is in flight.
	s.Edit(fields("A", "two"))

	close(first)
	o := ch.waitFor(t, autosave.StatusSaved)
	if *o.Snapshot.Content != "one" || !o.Response.IsNew {
		t.Fatalf("Expected the create to be confirmed first, got %+v", o)
	}
	b, _ := backups.Peek(backup.Key(s.ID()))
	if b == nil || *b.Data.Content != "two" {
		t.Fatalf("Newer edit must survive the older save's confirmation, got %+v", b)
	}

	close(second)
	o = ch.waitFor(t, autosave.StatusSaved)
	if *o.Snapshot.Content != "two" {
		t.Fatalf("Expected the follow-up save, got %+v", o)
	}
	if b, _ := backups.Peek(backup.Key(s.ID())); b != nil {
		t.Errorf("Backup should be cleared once the latest edit is saved, got %+v", b)
	}
	d, err := remote.Get(context.Background(), *s.ID())
	if err != nil || d.Content != "two" {
		t.Errorf("Expected server to hold the latest edit, got %+v (%v)", d, err)
	}
}

func TestFailedSaveKeepsBackupAndRetries(t *testing.T) {
	h := newHarness()
	backups := newBackups()
	remote := h.remote("alice")
	remote.setFail(&draft.TransientError{StatusCode: 503, Err: errors.New("unavailable")})
	s, _, ch := open(t, remote, backups, nil)

	s.Edit(fields("A", "B"))
	o := ch.waitFor(t, autosave.StatusError)
	if !draft.IsRetryable(o.Err) {
		t.Errorf("Expected transient error, got %v", o.Err)
	}
	if b, _ := backups.Peek(backup.NewDraftKey); b == nil {
		t.Fatal("Backup must survive a failed save")
	}

	remote.setFail(nil)
	if !s.Retry() {
		t.Fatal("Expected retry to start")
	}
	ch.waitFor(t, autosave.StatusSaved)
	if b, _ := backups.Peek(backup.Key(s.ID())); b != nil {
		t.Error("Backup should be cleared after the retried save")
	}
}

func createDraft(t *testing.T, h *harness, user model.UserID, f model.Fields) (model.DraftID, model.Version) {
	t.Helper()
	res, err := h.gw.Save(context.Background(), user, draft.NewSaveRequest(nil, f, nil))
	if err != nil {
		t.Fatal(err)
	}
	return res.ID, res.Version
}

func TestOpenRecoversOnlyNewerBackup(t *testing.T) {
	h := newHarness()
	id, _ := createDraft(t, h, "alice", fields("server", "copy"))
	backups := newBackups()

	// Written after the server copy.
	if err := backups.Persist(backup.Key(&id), fields("local", "edit"), nil); err != nil {
		t.Fatal(err)
	}
	s, recovered, ch := open(t, h.remote("alice"), backups, &id)
	if recovered == nil || *recovered.Data.Title != "local" {
		t.Fatalf("Expected newer backup to be offered, got %+v", recovered)
	}
	if *s.Current().Title != "server" {
		t.Errorf("Baseline must be the server copy until restored, got %q", *s.Current().Title)
	}

	if err := s.Restore(recovered); err != nil {
		t.Fatal(err)
	}
	ch.waitFor(t, autosave.StatusSaved)

	// The server is now newer than any backup written before the save.
	backups.Persist(backup.Key(&id), fields("stale", "edit"), nil)
	time.Sleep(2 * time.Millisecond)
	if _, err := h.gw.Save(context.Background(), "alice", draft.NewSaveRequest(&id, fields("newest", "x"), nil)); err != nil {
		t.Fatal(err)
	}
	_, recovered, _ = open(t, h.remote("alice"), backups, &id)
	if recovered != nil {
		t.Errorf("Stale backup must not be offered, got %+v", recovered)
	}
	if b, _ := backups.Peek(backup.Key(&id)); b != nil {
		t.Error("Stale backup must be discarded")
	}
}

func conflictedSessions(t *testing.T) (*harness, model.DraftID, *Session, statuses, *backup.Store) {
	t.Helper()
	h := newHarness()
	id, _ := createDraft(t, h, "alice", fields("A", "B"))

	tabA, _, chA := open(t, h.remote("alice"), newBackups(), &id)
	backupsB := newBackups()
	tabB, _, chB := open(t, h.remote("alice"), backupsB, &id)

	tabA.Edit(fields("A2", "B"))
	chA.waitFor(t, autosave.StatusSaved)

	tabB.Edit(fields("A", "B from tab B"))
	o := chB.waitFor(t, autosave.StatusConflict)
	if *o.Conflict.ServerContent.Title != "A2" {
		t.Fatalf("Expected server content in conflict, got %+v", o.Conflict.ServerContent)
	}
	return h, id, tabB, chB, backupsB
}

func TestConflictKeepsBackupAndBlocksAutosave(t *testing.T) {
	h, id, tabB, _, backupsB := conflictedSessions(t)

	b, _ := backupsB.Peek(backup.Key(&id))
	if b == nil || *b.Data.Content != "B from tab B" {
		t.Fatalf("Conflict must not touch the backup, got %+v", b)
	}

	remote := tabB.remote.(*gatewayRemote)
	before := remote.saveCount()
	tabB.Edit(fields("A", "more from tab B"))
	time.Sleep(5 * debounce)
	if remote.saveCount() != before {
		t.Error("Autosave must stay blocked while in conflict")
	}

	d, _ := h.gw.Get(context.Background(), "alice", id)
	if d.Title != "A2" {
		t.Errorf("Conflicting write must not be applied, title %q", d.Title)
	}
}

func TestResolveOverwrite(t *testing.T) {
	h, id, tabB, chB, backupsB := conflictedSessions(t)

	if err := tabB.Resolve(draft.Overwrite); err != nil {
		t.Fatal(err)
	}
	chB.waitFor(t, autosave.StatusSaved)

	d, _ := h.gw.Get(context.Background(), "alice", id)
	if d.Title != "A" || d.Content != "B from tab B" {
		t.Errorf("Expected tab B's fields on the server, got %+v", d)
	}
	if b, _ := backupsB.Peek(backup.Key(&id)); b != nil {
		t.Error("Backup should be cleared after the overwrite is confirmed")
	}
	if err := tabB.Resolve(draft.Overwrite); !errors.Is(err, ErrNoConflict) {
		t.Errorf("Expected ErrNoConflict, got %v", err)
	}
}

func TestResolveReload(t *testing.T) {
	h, id, tabB, chB, backupsB := conflictedSessions(t)
	conflict := tabB.Conflict()

	if err := tabB.Resolve(draft.Reload); err != nil {
		t.Fatal(err)
	}
	if *tabB.Current().Title != "A2" {
		t.Errorf("Expected server fields, got %+v", tabB.Current())
	}
	if b, _ := backupsB.Peek(backup.Key(&id)); b != nil {
		t.Error("Reload must clear the backup")
	}
	if tabB.Conflict() != nil || tabB.Status() != autosave.StatusIdle {
		t.Errorf("Expected idle without conflict, got %s", tabB.Status())
	}

	tabB.Edit(fields("A2", "after reload"))
	o := chB.waitFor(t, autosave.StatusSaved)
	if !o.Response.UpdatedAt.After(conflict.ServerVersion) {
		t.Errorf("Expected a new version after %s", conflict.ServerVersion)
	}
	d, _ := h.gw.Get(context.Background(), "alice", id)
	if d.Content != "after reload" {
		t.Errorf("Unexpected server content %q", d.Content)
	}
}

func TestResolveContinueEditing(t *testing.T) {
	_, id, tabB, chB, backupsB := conflictedSessions(t)

	if err := tabB.Resolve(draft.ContinueEditing); err != nil {
		t.Fatal(err)
	}
	chB.waitFor(t, autosave.StatusIdle)

	remote := tabB.remote.(*gatewayRemote)
	before := remote.saveCount()
	tabB.Edit(fields("A", "keep typing"))
	time.Sleep(5 * debounce)
	if remote.saveCount() != before {
		t.Error("Autosave must stay suspended")
	}
	if b, _ := backupsB.Peek(backup.Key(&id)); b == nil || *b.Data.Content != "keep typing" {
		t.Errorf("Backup must keep local edits, got %+v", b)
	}

	// The decision can still be made later.
	if err := tabB.Resolve(draft.Overwrite); err != nil {
		t.Fatal(err)
	}
	chB.waitFor(t, autosave.StatusSaved)
}

func TestDeleteCancelsAutosave(t *testing.T) {
	h := newHarness()
	id, _ := createDraft(t, h, "alice", fields("A", "B"))
	backups := newBackups()
	remote := h.remote("alice")

	ch := make(statuses, 64)
	s, _, err := Open(context.Background(), remote, backups, &id, Options{Debounce: 50 * time.Millisecond, OnStatus: func(o autosave.Outcome) { ch <- o }})
	if err != nil {
		t.Fatal(err)
	}

	s.Edit(fields("A", "unsaved"))
	if err := s.Delete(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if remote.saveCount() != 0 {
		t.Errorf("No save may race the delete, got %d", remote.saveCount())
	}
	if _, err := h.gw.Get(context.Background(), "alice", id); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected draft to be gone, got %v", err)
	}
	if b, _ := backups.Peek(backup.Key(&id)); b != nil {
		t.Error("Backup should be cleared with the draft")
	}
	if err := s.Edit(fields("x", "y")); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after delete, got %v", err)
	}
}

func TestDeleteBeforeCreate(t *testing.T) {
	s, _, _ := open(t, newHarness().remote("alice"), newBackups(), nil)
	if err := s.Delete(context.Background()); !errors.Is(err, ErrNotCreated) {
		t.Errorf("Expected ErrNotCreated, got %v", err)
	}
}

func TestDiscard(t *testing.T) {
	h := newHarness()
	id, _ := createDraft(t, h, "alice", fields("A", "B"))
	backups := newBackups()
	remote := h.remote("alice")

	s, _, err := Open(context.Background(), remote, backups, &id, Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.Edit(fields("A", "throw away"))
	if err := s.Discard(context.Background()); err != nil {
		t.Fatal(err)
	}
	if cur := s.Current(); *cur.Title != "A" || *cur.Content != "B" {
		t.Errorf("Discard should restore the saved copy, got content %q", *cur.Content)
	}
	time.Sleep(100 * time.Millisecond)

	if remote.saveCount() != 0 {
		t.Errorf("Discarded edit must not be saved, got %d saves", remote.saveCount())
	}
	if b, _ := backups.Peek(backup.Key(&id)); b != nil {
		t.Error("Discard must clear the backup")
	}
}

func TestOpenMissingDraft(t *testing.T) {
	id := model.DraftID("missing")
	_, _, err := Open(context.Background(), newHarness().remote("alice"), newBackups(), &id, Options{})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAbortedUpdateLeavesBackupUntouched(t *testing.T) {
	h := newHarness()
	id, version := createDraft(t, h, "alice", fields("A", "v0"))
	backups := newBackups()
	remote := h.remote("alice")
	first, second := make(chan struct{}), make(chan struct{})
	remote.gates = []chan struct{}{first, second}
	defer close(first)
	s, _, ch := open(t, remote, backups, &id)

	s.Edit(fields("A", "v1"))
	ch.waitForContent(t, autosave.StatusSaving, "v1")
	// Supersedes the held save, which is aborted.
	s.Edit(fields("A", "v2"))
	before, err := backups.Peek(backup.Key(&id))
	if err != nil || before == nil {
		t.Fatalf("Expected a backup, got %+v (%v)", before, err)
	}

	ch.waitForContent(t, autosave.StatusSaving, "v2")
	after, err := backups.Peek(backup.Key(&id))
	if err != nil || after == nil {
		t.Fatalf("Abort must not clear the backup, got %+v (%v)", after, err)
	}
	if *after.Data.Content != "v2" {
		t.Errorf("Expected the newest snapshot in the backup, got %q", *after.Data.Content)
	}
	if !after.Timestamp.Equal(before.Timestamp) {
		t.Errorf("Abort rewrote the backup: timestamp %s, was %s", after.Timestamp, before.Timestamp)
	}
	if after.ServerVersion == nil || !after.ServerVersion.Equal(version) {
		t.Errorf("Expected server version %s to be kept, got %v", version, after.ServerVersion)
	}

	close(second)
	ch.waitForContent(t, autosave.StatusSaved, "v2")
	if b, _ := backups.Peek(backup.Key(&id)); b != nil {
		t.Error("Backup should be cleared once the newest edit is saved")
	}
}

func TestDeleteWaitsForInFlightCreate(t *testing.T) {
	h := newHarness()
	backups := newBackups()
	remote := h.remote("alice")
	landed := make(chan struct{})
	remote.holds = []chan struct{}{landed}
	s, _, _ := open(t, remote, backups, nil)

	s.Edit(fields("A", "B"))
	s.Save()

	ctx := context.Background()
	deadline := time.After(waitTimeout)
	for {
		list, err := h.gw.List(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if len(list) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for the create to reach the server")
		case <-time.After(5 * time.Millisecond):
		}
	}

	deleted := make(chan error, 1)
	go func() { deleted <- s.Delete(ctx) }()
	time.Sleep(30 * time.Millisecond)
	close(landed)

	select {
	case err := <-deleted:
		if err != nil {
			t.Fatalf("Delete should act on the created draft, got %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("Delete did not return")
	}

	list, err := h.gw.List(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no drafts left on the server, got %d", len(list))
	}
	id := s.ID()
	if id == nil {
		t.Fatal("Session should know the id of the draft it created")
	}
	for _, key := range []string{backup.NewDraftKey, backup.Key(id)} {
		if b, _ := backups.Peek(key); b != nil {
			t.Errorf("Expected backup %q to be cleared, got %+v", key, b)
		}
	}
}
