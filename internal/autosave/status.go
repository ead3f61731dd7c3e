package autosave

import (
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

type Status int

const (
	StatusIdle Status = iota
	StatusSaving
	StatusSaved
	StatusError
	StatusConflict
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	case StatusConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Outcome is delivered to the status callback on every visible state change.
type Outcome struct {
	Status Status

	// Snapshot is the field set the attempt carried.
	Snapshot model.Fields

	// Set on StatusSaved.
	Response *draft.SaveResponse
	// Set on StatusConflict.
	Conflict *draft.ConflictError
	// Set on StatusError.
	Err error
}
