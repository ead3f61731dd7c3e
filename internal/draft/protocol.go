// Package draft holds the contract shared by the persistence gateway and its
// clients: the wire payloads of a save, the error taxonomy and the ways a
// client may resolve a conflict.
package draft

import "github.com/Rani367/Hativon-sub000/internal/model"

// SaveRequest is the body of a save. A nil DraftID creates a new draft.
type SaveRequest struct {
	DraftID *model.DraftID `json:"draftId"`

	Title        *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content      *string `json:"content,omitempty" validate:"omitempty,max=1000000"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	CoverImage   *string `json:"coverImage,omitempty" validate:"omitempty,max=2048"`
	CustomAuthor *string `json:"customAuthor,omitempty" validate:"omitempty,max=100"`

	// Status is only honoured on create.
	Status *model.Status `json:"status,omitempty" validate:"omitempty,oneof=draft published"`

	ExpectedVersion *model.Version `json:"expectedVersion,omitempty"`
}

func NewSaveRequest(id *model.DraftID, f model.Fields, expected *model.Version) SaveRequest {
	return SaveRequest{
		DraftID:         id,
		Title:           f.Title,
		Content:         f.Content,
		Description:     f.Description,
		CoverImage:      f.CoverImage,
		CustomAuthor:    f.CustomAuthor,
		ExpectedVersion: expected,
	}
}

func (r SaveRequest) Fields() model.Fields {
	return model.Fields{
		Title:        r.Title,
		Content:      r.Content,
		Description:  r.Description,
		CoverImage:   r.CoverImage,
		CustomAuthor: r.CustomAuthor,
	}
}

// SaveResponse is returned for an accepted (or no-op) save.
type SaveResponse struct {
	Success   bool          `json:"success"`
	ID        model.DraftID `json:"id"`
	UpdatedAt model.Version `json:"updatedAt"`
	IsNew     bool          `json:"isNew,omitempty"`
}

// ConflictResponse is returned with 409 when the caller's version is stale.
type ConflictResponse struct {
	Conflict      bool          `json:"conflict"`
	ServerVersion model.Version `json:"serverVersion"`
	ServerContent model.Fields  `json:"serverContent"`
}

type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// DraftResponse is the full record served to a client mounting the editor.
type DraftResponse struct {
	ID        model.DraftID `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Desc      string        `json:"description,omitempty"`
	Cover     string        `json:"coverImage,omitempty"`
	Author    string        `json:"customAuthor,omitempty"`
	Status    model.Status  `json:"status"`
	UpdatedAt model.Version `json:"updatedAt"`
}

func NewDraftResponse(d *model.Draft) DraftResponse {
	return DraftResponse{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Desc:      d.Description,
		Cover:     d.CoverImage,
		Author:    d.CustomAuthor,
		Status:    d.Status,
		UpdatedAt: d.Version,
	}
}

func (r DraftResponse) Fields() model.Fields {
	return model.Fields{
		Title:        model.StringPtr(r.Title),
		Content:      model.StringPtr(r.Content),
		Description:  model.StringPtr(r.Desc),
		CoverImage:   model.StringPtr(r.Cover),
		CustomAuthor: model.StringPtr(r.Author),
	}
}

// SummaryResponse is one entry of a draft listing.
type SummaryResponse struct {
	ID        model.DraftID `json:"id"`
	Title     string        `json:"title"`
	Status    model.Status  `json:"status"`
	UpdatedAt model.Version `json:"updatedAt"`
}

// Resolution is the caller's answer to a conflict.
type Resolution int

const (
	// Overwrite resubmits the local fields against the server's current version.
	Overwrite Resolution = iota + 1
	// Reload adopts the server's fields and version and drops the local backup.
	Reload
	// ContinueEditing keeps local edits and the backup but stops autosaving.
	ContinueEditing
)

func (r Resolution) String() string {
	switch r {
	case Overwrite:
		return "overwrite"
	case Reload:
		return "reload"
	case ContinueEditing:
		return "continue"
	default:
		return "unknown"
	}
}

// ParseResolution maps user input onto a Resolution.
func ParseResolution(s string) (Resolution, bool) {
	switch s {
	case "overwrite", "o":
		return Overwrite, true
	case "reload", "r":
		return Reload, true
	case "continue", "c":
		return ContinueEditing, true
	}
	return 0, false
}
