// Package auth identifies the caller of the draft API and decides whether
// that caller may mutate a draft.
package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/model"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

var ErrNoSession = errors.New("no user ID in context")

type AuthProvider interface {
	// WithHeaderAuthorization attaches the caller's identity to the request
	// context when the request carries valid credentials.
	WithHeaderAuthorization() func(http.Handler) http.Handler

	GetUserIDFromSession(r *http.Request) (model.UserID, error)
}
