// Package repository persists drafts. Every store offers the same
// compare-and-swap primitive the persistence gateway builds on.
package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/model"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

var (
	ErrNotFound      = errors.New("draft not found")
	ErrAlreadyExists = errors.New("draft already exists")
)

type DraftStore interface {
	Create(ctx context.Context, draft *model.Draft) error
	Get(ctx context.Context, id model.DraftID) (*model.Draft, error)

	// CompareAndSwap writes changes and sets the version to next only if the
	// stored version still equals expected. It reports whether the write happened.
	CompareAndSwap(ctx context.Context, id model.DraftID, expected model.Version, changes model.Fields, next model.Version) (bool, error)

	Delete(ctx context.Context, id model.DraftID) error

	// ListByOwner returns the owner's drafts, most recently modified first.
	ListByOwner(ctx context.Context, owner model.UserID) ([]model.Draft, error)
}
