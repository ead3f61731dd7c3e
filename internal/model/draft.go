// Package model defines the core data structures of the newsletter drafts.
package model

import "time"

type DraftID string

type UserID string

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Fields holds the editable columns of a draft. A nil pointer means "not supplied".
type Fields struct {
	Title        *string `json:"title,omitempty"`
	Content      *string `json:"content,omitempty"`
	Description  *string `json:"description,omitempty"`
	CoverImage   *string `json:"coverImage,omitempty"`
	CustomAuthor *string `json:"customAuthor,omitempty"`
}

type Draft struct {
	ID DraftID

	Title        string
	Content      string
	Description  string
	CoverImage   string
	CustomAuthor string

	Status Status
	Owner  UserID

	CreatedDate time.Time

	// Version doubles as the last-modified timestamp.
	Version Version
}

// Fields returns every editable column as supplied values.
func (d *Draft) Fields() Fields {
	return Fields{
		Title:        StringPtr(d.Title),
		Content:      StringPtr(d.Content),
		Description:  StringPtr(d.Description),
		CoverImage:   StringPtr(d.CoverImage),
		CustomAuthor: StringPtr(d.CustomAuthor),
	}
}

// Changes returns the subset of f that differs from the stored draft.
// The result is empty when f carries nothing new.
func (d *Draft) Changes(f Fields) Fields {
	var out Fields
	if f.Title != nil && *f.Title != d.Title {
		out.Title = f.Title
	}
	if f.Content != nil && *f.Content != d.Content {
		out.Content = f.Content
	}
	if f.Description != nil && *f.Description != d.Description {
		out.Description = f.Description
	}
	if f.CoverImage != nil && *f.CoverImage != d.CoverImage {
		out.CoverImage = f.CoverImage
	}
	if f.CustomAuthor != nil && *f.CustomAuthor != d.CustomAuthor {
		out.CustomAuthor = f.CustomAuthor
	}
	return out
}

// Apply writes every supplied field onto the draft.
func (d *Draft) Apply(f Fields) {
	if f.Title != nil {
		d.Title = *f.Title
	}
	if f.Content != nil {
		d.Content = *f.Content
	}
	if f.Description != nil {
		d.Description = *f.Description
	}
	if f.CoverImage != nil {
		d.CoverImage = *f.CoverImage
	}
	if f.CustomAuthor != nil {
		d.CustomAuthor = *f.CustomAuthor
	}
}

func (f Fields) IsEmpty() bool {
	return f.Title == nil && f.Content == nil && f.Description == nil &&
		f.CoverImage == nil && f.CustomAuthor == nil
}

// Equal reports whether both field sets carry the same supplied values.
func (f Fields) Equal(o Fields) bool {
	return eqPtr(f.Title, o.Title) && eqPtr(f.Content, o.Content) &&
		eqPtr(f.Description, o.Description) && eqPtr(f.CoverImage, o.CoverImage) &&
		eqPtr(f.CustomAuthor, o.CustomAuthor)
}

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func StringPtr(s string) *string {
	return &s
}
