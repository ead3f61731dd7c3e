package repository

import (
	"context"
	"slices"

	"github.com/Rani367/Hativon-sub000/internal/cache"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

// MemoryDraftStore keeps drafts in process. Values are copied in and out so
// callers never share state with the store.
type MemoryDraftStore struct {
	drafts *cache.Cache[model.DraftID, model.Draft]
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{
		drafts: cache.NewCache[model.DraftID, model.Draft](),
	}
}

func (m *MemoryDraftStore) Create(_ context.Context, draft *model.Draft) error {
	d := *draft
	if d.Status == "" {
		d.Status = model.StatusDraft
	}
	if !m.drafts.SetIfAbsent(d.ID, d) {
		return ErrAlreadyExists
	}
	return nil
}

func (m *MemoryDraftStore) Get(_ context.Context, id model.DraftID) (*model.Draft, error) {
	d, ok := m.drafts.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *MemoryDraftStore) CompareAndSwap(_ context.Context, id model.DraftID, expected model.Version, changes model.Fields, next model.Version) (bool, error) {
	swapped := m.drafts.Update(id, func(current model.Draft, exists bool) (model.Draft, bool) {
		if !exists || !current.Version.Equal(expected) {
			return current, false
		}
		current.Apply(changes)
		current.Version = next
		return current, true
	})
	return swapped, nil
}

func (m *MemoryDraftStore) Delete(_ context.Context, id model.DraftID) error {
	if _, ok := m.drafts.Get(id); !ok {
		return ErrNotFound
	}
	m.drafts.Delete(id)
	return nil
}

func (m *MemoryDraftStore) ListByOwner(_ context.Context, owner model.UserID) ([]model.Draft, error) {
	out := make([]model.Draft, 0)
	for _, d := range m.drafts.Values() {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Draft) int {
		return -a.Version.Time().Compare(b.Version.Time())
	})
	return out, nil
}
