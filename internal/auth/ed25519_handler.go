package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

const sessionCookieTTL = 24 * time.Hour

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

type verifyResponse struct {
	UserID model.UserID `json:"userId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.Header().Set(config.HCacheControl, config.CacheNoStore)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (p *Ed25519AuthProvider) writeChallenge(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, challengeResponse{
		Challenge: base64.StdEncoding.EncodeToString(p.GetChallenge()),
	})
}

// serveChallenge returns the challenge clients must sign.
func (p *Ed25519AuthProvider) serveChallenge(w http.ResponseWriter, r *http.Request) {
	p.writeChallenge(w)
}

// rotateChallenge replaces the challenge, which signs every client out.
func (p *Ed25519AuthProvider) rotateChallenge(w http.ResponseWriter, r *http.Request) {
	if err := p.RefreshChallenge(); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to refresh challenge")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: config.ErrRefreshChallengeFmt})
		return
	}
	zerolog.Ctx(r.Context()).Info().Msg("Challenge rotated")
	p.writeChallenge(w)
}

// verify checks the signature in the auth header and stores it in a cookie
// for browser sessions.
func (p *Ed25519AuthProvider) verify(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	authHeader := strings.TrimSpace(r.Header.Get(p.headerName))
	if authHeader == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: config.ErrAuthHeaderRequired})
		return
	}

	signature, err := base64.StdEncoding.DecodeString(authHeader)
	if err != nil {
		l.Debug().Err(err).Msg("Failed to decode signature")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: config.ErrInvalidSignatureFormat})
		return
	}

	if !p.Verify(signature) {
		l.Warn().Msg("Signature verification failed")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: config.ErrInvalidSignature})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    authHeader,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionCookieTTL / time.Second),
	})
	writeJSON(w, http.StatusOK, verifyResponse{UserID: p.userID})
}
