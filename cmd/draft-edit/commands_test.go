package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Rani367/Hativon-sub000/internal/backup"
	"github.com/Rani367/Hativon-sub000/internal/backup/kv"
	"github.com/Rani367/Hativon-sub000/internal/client"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/editor"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

type stubRemote struct {
	stored *draft.DraftResponse
}

func (r *stubRemote) Save(ctx context.Context, req draft.SaveRequest) (*draft.SaveResponse, error) {
	return nil, errors.New("saving is not expected here")
}

func (r *stubRemote) Get(ctx context.Context, id model.DraftID) (*draft.DraftResponse, error) {
	if r.stored == nil || r.stored.ID != id {
		return nil, errors.New("not found")
	}
	d := *r.stored
	return &d, nil
}

func (r *stubRemote) Delete(ctx context.Context, id model.DraftID) error { return nil }

func newTestApp(t *testing.T, remote editor.Remote, backups *backup.Store, id *model.DraftID) (*app, *backup.LocalBackup) {
	t.Helper()
	s, recovered, err := editor.Open(context.Background(), remote, backups, id, editor.Options{Debounce: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)

	a := &app{session: s, ui: &ui{out: &bytes.Buffer{}}}
	a.doc = newFileWatcher(filepath.Join(t.TempDir(), "draft.md"), time.Second, func(f model.Fields) {
		s.Edit(f)
	})
	return a, recovered
}

func TestHandleCommands(t *testing.T) {
	a, _ := newTestApp(t, &stubRemote{}, backup.NewStore(kv.NewMemoryStore(backup.Namespace, nil)), nil)

	tests := []struct {
		line string
		want error
	}{
		{"", nil},
		{"help", nil},
		{"status", nil},
		{"retry", nil},
		{"  QUIT ", errQuit},
		{"overwrite", editor.ErrNoConflict},
		{"delete", editor.ErrNotCreated},
	}
	for _, tt := range tests {
		if err := a.handle(context.Background(), tt.line); !errors.Is(err, tt.want) {
			t.Errorf("handle(%q) = %v, want %v", tt.line, err, tt.want)
		}
	}

	if err := a.handle(context.Background(), "publish"); err == nil {
		t.Error("Unknown commands should be reported")
	}
}

func TestMountWritesOpenedDraft(t *testing.T) {
	version := model.NewVersion(time.Now())
	remote := &stubRemote{stored: &draft.DraftResponse{
		ID:        "d1",
		Title:     "Bake sale",
		Content:   "Cakes at noon",
		UpdatedAt: version,
	}}
	id := model.DraftID("d1")
	a, recovered := newTestApp(t, remote, backup.NewStore(kv.NewMemoryStore(backup.Namespace, nil)), &id)
	if recovered != nil {
		t.Fatal("No backup was stored")
	}

	if err := a.mount(context.Background(), nil, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(a.doc.path)
	if err != nil {
		t.Fatal(err)
	}
	f := parseDocument(a.doc.path, data)
	if deref(f.Title) != "Bake sale" || deref(f.Content) != "Cakes at noon" {
		t.Errorf("Unexpected document:\n%s", data)
	}
}

func TestMountRestoresRecoveredBackup(t *testing.T) {
	backups := backup.NewStore(kv.NewMemoryStore(backup.Namespace, nil))
	edit := model.Fields{Title: model.StringPtr("Unsaved"), Content: model.StringPtr("typed before the crash")}
	if err := backups.Persist(backup.NewDraftKey, edit, nil); err != nil {
		t.Fatal(err)
	}

	a, recovered := newTestApp(t, &stubRemote{}, backups, nil)
	if recovered == nil {
		t.Fatal("Expected the backup to be recovered")
	}

	lines := make(chan string, 1)
	lines <- "y"
	if err := a.mount(context.Background(), recovered, lines); err != nil {
		t.Fatal(err)
	}

	if !a.session.Current().Equal(edit) {
		t.Error("Restored backup should become the current edit")
	}
	data, err := os.ReadFile(a.doc.path)
	if err != nil {
		t.Fatal(err)
	}
	if f := parseDocument(a.doc.path, data); deref(f.Content) != "typed before the crash" {
		t.Errorf("Unexpected document:\n%s", data)
	}
}

func TestMountDiscardsRecoveredBackup(t *testing.T) {
	backups := backup.NewStore(kv.NewMemoryStore(backup.Namespace, nil))
	edit := model.Fields{Title: model.StringPtr("Unsaved"), Content: model.StringPtr("old")}
	if err := backups.Persist(backup.NewDraftKey, edit, nil); err != nil {
		t.Fatal(err)
	}

	a, recovered := newTestApp(t, &stubRemote{}, backups, nil)
	lines := make(chan string, 1)
	lines <- "n"
	if err := a.mount(context.Background(), recovered, lines); err != nil {
		t.Fatal(err)
	}

	if b, _ := backups.Peek(backup.NewDraftKey); b != nil {
		t.Error("Declined backup should be cleared")
	}
}

type fakeEvents struct {
	events  []client.DraftEvent
	watched chan model.DraftID
}

func (f *fakeEvents) Watch(ctx context.Context, id model.DraftID, fn func(client.DraftEvent)) error {
	for _, e := range f.events {
		fn(e)
	}
	f.watched <- id
	return nil
}

func TestStaleHint(t *testing.T) {
	version := model.NewVersion(time.Now())
	remote := &stubRemote{stored: &draft.DraftResponse{ID: "d1", Title: "T", UpdatedAt: version}}
	id := model.DraftID("d1")
	a, _ := newTestApp(t, remote, backup.NewStore(kv.NewMemoryStore(backup.Namespace, nil)), &id)

	newer := model.NewVersion(version.Time().Add(time.Second))
	tests := []struct {
		name  string
		event client.DraftEvent
		want  string
	}{
		{"current version", client.DraftEvent{Version: version}, ""},
		{"older version", client.DraftEvent{Version: model.NewVersion(version.Time().Add(-time.Second))}, ""},
		{"newer version", client.DraftEvent{Version: newer}, "newer version"},
		{"deleted", client.DraftEvent{Deleted: true}, "deleted"},
	}
	for _, tt := range tests {
		got := a.staleHint(tt.event)
		if tt.want == "" && got != "" {
			t.Errorf("%s: expected no hint, got %q", tt.name, got)
		}
		if tt.want != "" && !strings.Contains(got, tt.want) {
			t.Errorf("%s: expected a hint mentioning %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestWatchStartsOnceAndReportsNewerVersion(t *testing.T) {
	version := model.NewVersion(time.Now())
	remote := &stubRemote{stored: &draft.DraftResponse{ID: "d1", Title: "T", UpdatedAt: version}}
	id := model.DraftID("d1")
	a, _ := newTestApp(t, remote, backup.NewStore(kv.NewMemoryStore(backup.Namespace, nil)), &id)

	out := &bytes.Buffer{}
	a.ui = &ui{out: out}
	src := &fakeEvents{
		events:  []client.DraftEvent{{Version: version}, {Version: model.NewVersion(version.Time().Add(time.Minute))}},
		watched: make(chan model.DraftID, 2),
	}
	a.events = src

	a.watch(context.Background(), id)
	a.watch(context.Background(), id)

	select {
	case got := <-src.watched:
		if got != id {
			t.Errorf("Expected to watch %s, got %s", id, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch was not started")
	}
	select {
	case <-src.watched:
		t.Error("Only one stream should be started")
	case <-time.After(50 * time.Millisecond):
	}

	a.ui.mu.Lock()
	text := out.String()
	a.ui.mu.Unlock()
	if strings.Count(text, "newer version") != 1 {
		t.Errorf("Expected a single stale notice, got:\n%s", text)
	}
}
