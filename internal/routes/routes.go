// Package routes defines the HTTP paths of the draft API.
package routes

import (
	"net/url"

	"github.com/Rani367/Hativon-sub000/internal/model"
)

const (
	Healthz = "/healthz"

	// Drafts is the base of the draft API; the paths below are relative to it.
	Drafts      = "/api/drafts"
	SaveDraft   = "/save"
	DraftParam  = "id"
	Draft       = "/{" + DraftParam + "}"
	DraftEvents = Draft + "/events"

	// Auth routes
	AuthChallenge = "/auth/challenge"
	AuthVerify    = "/auth/verify"
)

func SavePath() string {
	return Drafts + SaveDraft
}

func ListPath() string {
	return Drafts + "/"
}

func DraftPath(id model.DraftID) string {
	return Drafts + "/" + url.PathEscape(string(id))
}

func EventsPath(id model.DraftID) string {
	return DraftPath(id) + "/events"
}
