package auth

import (
	"github.com/go-chi/chi/v5"

	"github.com/Rani367/Hativon-sub000/internal/routes"
)

// RegisterEd25519AuthRoutes mounts the challenge and verify endpoints. Other
// methods get chi's 405.
func RegisterEd25519AuthRoutes(r chi.Router, provider *Ed25519AuthProvider) {
	r.Get(routes.AuthChallenge, provider.serveChallenge)
	r.Post(routes.AuthChallenge, provider.rotateChallenge)
	r.Post(routes.AuthVerify, provider.verify)
}
