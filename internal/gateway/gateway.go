// Package gateway is the single authoritative mutation point for drafts. It
// implements optimistic concurrency control on top of the store's
// compare-and-swap: a write carrying a stale version is rejected with the
// server's state, never merged and never silently applied.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/auth"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/repository"
)

var gatewayLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	gatewayLogger = l
}

// ErrContention is returned when the compare-and-swap kept losing to other writers.
var ErrContention = errors.New("draft is being modified concurrently, try again")

const maxSwapAttempts = 5

// Result describes an accepted save. Changed is false for a no-op save.
type Result struct {
	ID      model.DraftID
	Version model.Version
	IsNew   bool
	Changed bool
}

// Event is emitted after every accepted mutation.
type Event struct {
	DraftID model.DraftID
	Version model.Version
	Deleted bool
}

type Gateway struct {
	store repository.DraftStore
	authz auth.Authorizer

	notifier func(Event)

	now   func() time.Time
	newID func() model.DraftID
}

func NewGateway(store repository.DraftStore, authz auth.Authorizer) *Gateway {
	return &Gateway{
		store: store,
		authz: authz,
		now:   time.Now,
		newID: func() model.DraftID { return model.DraftID(uuid.New().String()) },
	}
}

// SetNotifier sets a function that will be called after every accepted write.
func (g *Gateway) SetNotifier(notifier func(Event)) {
	g.notifier = notifier
}

func (g *Gateway) notify(e Event) {
	if g.notifier != nil {
		g.notifier(e)
	}
}

// Save creates the draft when req.DraftID is nil, otherwise conditionally
// updates it. A *draft.ConflictError is returned when req.ExpectedVersion is
// older than the stored version.
func (g *Gateway) Save(ctx context.Context, caller model.UserID, req draft.SaveRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if caller == "" {
		return nil, &draft.AuthorizationError{Unauthenticated: true}
	}

	if req.DraftID == nil {
		return g.create(ctx, caller, req)
	}
	return g.update(ctx, caller, *req.DraftID, req)
}

func (g *Gateway) create(ctx context.Context, caller model.UserID, req draft.SaveRequest) (*Result, error) {
	now := g.now()
	d := &model.Draft{
		ID:          g.newID(),
		Status:      model.StatusDraft,
		Owner:       caller,
		CreatedDate: now.UTC(),
		Version:     model.NewVersion(now),
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	d.Apply(req.Fields())

	if err := g.store.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("error creating draft: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("draft_id", string(d.ID)).
		Str("owner", string(caller)).
		Str("version", d.Version.String()).
		Msg("Draft created")

	return &Result{ID: d.ID, Version: d.Version, IsNew: true, Changed: true}, nil
}

func (g *Gateway) update(ctx context.Context, caller model.UserID, id model.DraftID, req draft.SaveRequest) (*Result, error) {
	l := zerolog.Ctx(ctx)
	fields := req.Fields()

	for attempt := 1; attempt <= maxSwapAttempts; attempt++ {
		current, err := g.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if !g.authz.CanMutate(caller, current) {
			l.Warn().Str("draft_id", string(id)).Str("caller", string(caller)).Msg("Refused save by non-owner")
			return nil, &draft.AuthorizationError{Reason: "not the owner of this draft"}
		}

		if req.ExpectedVersion != nil && current.Version.After(*req.ExpectedVersion) {
			l.Info().
				Str("draft_id", string(id)).
				Str("expected", req.ExpectedVersion.String()).
				Str("current", current.Version.String()).
				Msg("Stale save rejected")
			return nil, &draft.ConflictError{
				ServerVersion: current.Version,
				ServerContent: current.Fields(),
			}
		}

		changes := current.Changes(fields)
		if changes.IsEmpty() {
			return &Result{ID: id, Version: current.Version}, nil
		}

		next := model.NextVersion(current.Version, g.now())
		swapped, err := g.store.CompareAndSwap(ctx, id, current.Version, changes, next)
		if err != nil {
			return nil, fmt.Errorf("error saving draft: %w", err)
		}
		if swapped {
			l.Debug().
				Str("draft_id", string(id)).
				Str("version", next.String()).
				Msg("Draft saved")
			g.notify(Event{DraftID: id, Version: next})
			return &Result{ID: id, Version: next, Changed: true}, nil
		}

		// Another writer got in between the read and the swap. The next
		// iteration re-reads, so a caller with an expected version now
		// receives a conflict.
		gatewayLogger.Debug().Str("draft_id", string(id)).Int("attempt", attempt).Msg("Lost compare-and-swap race")
	}

	return nil, ErrContention
}

// Get returns the draft if caller may edit it.
func (g *Gateway) Get(ctx context.Context, caller model.UserID, id model.DraftID) (*model.Draft, error) {
	if caller == "" {
		return nil, &draft.AuthorizationError{Unauthenticated: true}
	}
	d, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.authz.CanMutate(caller, d) {
		return nil, &draft.AuthorizationError{Reason: "not the owner of this draft"}
	}
	return d, nil
}

// Delete removes the draft. Clients cancel their autosave before calling it.
func (g *Gateway) Delete(ctx context.Context, caller model.UserID, id model.DraftID) error {
	if _, err := g.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := g.store.Delete(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("draft_id", string(id)).Msg("Draft deleted")
	g.notify(Event{DraftID: id, Deleted: true})
	return nil
}

// List returns the caller's own drafts, newest first.
func (g *Gateway) List(ctx context.Context, caller model.UserID) ([]model.Draft, error) {
	if caller == "" {
		return nil, &draft.AuthorizationError{Unauthenticated: true}
	}
	return g.store.ListByOwner(ctx, caller)
}
