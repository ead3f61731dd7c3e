package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Rani367/Hativon-sub000/internal/autosave"
	"github.com/Rani367/Hativon-sub000/internal/client"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/editor"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  save       send the document now
  retry      resend after a failed save
  overwrite  keep your version after a conflict
  reload     take the server version after a conflict
  continue   keep editing without autosave after a conflict
  discard    drop unsaved edits and reload the last saved copy
  delete     delete the draft on the server
  status     show the autosave state
  quit       stop editing`

// eventSource streams change notifications of a draft.
type eventSource interface {
	Watch(ctx context.Context, id model.DraftID, fn func(client.DraftEvent)) error
}

// app ties the editing session to the document on disk.
type app struct {
	session *editor.Session
	doc     *fileWatcher
	ui      *ui

	events    eventSource
	watchOnce sync.Once
}

func (a *app) handle(ctx context.Context, line string) error {
	cmd := strings.ToLower(strings.TrimSpace(line))
	if cmd == "" {
		return nil
	}

	if res, ok := draft.ParseResolution(cmd); ok {
		return a.resolve(res)
	}

	switch cmd {
	case "save", "s":
		a.session.Save()
	case "retry":
		if !a.session.Retry() {
			a.ui.info("nothing to retry")
		}
	case "discard":
		return a.discard(ctx)
	case "delete":
		if err := a.session.Delete(ctx); err != nil {
			return err
		}
		a.ui.info("draft deleted")
		return errQuit
	case "status":
		a.ui.println(renderStatus(autosave.Outcome{
			Status:   a.session.Status(),
			Snapshot: a.session.Current(),
			Conflict: a.session.Conflict(),
			Err:      a.session.Err(),
			Response: a.savedResponse(),
		}))
	case "help", "?":
		a.ui.println(helpText)
	case "quit", "q", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return nil
}

func (a *app) resolve(res draft.Resolution) error {
	if err := a.session.Resolve(res); err != nil {
		return err
	}
	switch res {
	case draft.Reload:
		if err := a.doc.write(a.session.Current()); err != nil {
			return err
		}
		a.ui.info("document replaced with the server version")
	case draft.ContinueEditing:
		a.ui.info("autosave paused, 'overwrite' or 'reload' when ready")
	}
	return nil
}

func (a *app) discard(ctx context.Context) error {
	if err := a.session.Discard(ctx); err != nil {
		return err
	}
	if a.session.ID() == nil {
		a.ui.info("unsaved edits discarded")
		return nil
	}
	if err := a.doc.write(a.session.Current()); err != nil {
		return err
	}
	a.ui.info("unsaved edits discarded, document reloaded")
	return nil
}

// savedResponse describes the last confirmed version for the status command.
func (a *app) savedResponse() *draft.SaveResponse {
	id, version := a.session.Baseline()
	if id == nil || version == nil {
		return nil
	}
	return &draft.SaveResponse{Success: true, ID: *id, UpdatedAt: *version}
}

// watch follows the draft's event stream once its id is known and reports
// writes made elsewhere. Only the first call starts a stream.
func (a *app) watch(ctx context.Context, id model.DraftID) {
	if a.events == nil {
		return
	}
	a.watchOnce.Do(func() {
		go func() {
			err := a.events.Watch(ctx, id, func(e client.DraftEvent) {
				if msg := a.staleHint(e); msg != "" {
					a.ui.info("%s", msg)
				}
			})
			if err != nil && !errors.Is(err, draft.ErrAborted) {
				editLogger.Warn().Err(err).Str("draft_id", string(id)).Msg("Draft event stream ended")
			}
		}()
	})
}

// staleHint turns a draft event into a notice when the server copy moved past
// the last version this session confirmed. Events that arrive while a save is
// in flight are ignored since they are usually our own write.
func (a *app) staleHint(e client.DraftEvent) string {
	if e.Deleted {
		return "the draft was deleted on the server, saving will fail"
	}
	if a.session.Status() == autosave.StatusSaving {
		return ""
	}
	_, version := a.session.Baseline()
	if version != nil && !e.Version.After(*version) {
		return ""
	}
	return fmt.Sprintf("server has a newer version (%s), your next save will conflict; 'discard' to reload it", e.Version)
}
