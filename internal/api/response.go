package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/gateway"
	"github.com/Rani367/Hativon-sub000/internal/repository"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(config.HCType, config.CTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	w.Write(body)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, draft.ErrorResponse{Error: message})
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *draft.ValidationError
		authErr       *draft.AuthorizationError
		conflictErr   *draft.ConflictError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		respondError(w, r, http.StatusRequestEntityTooLarge, config.ErrPayloadTooLarge)
	case errors.As(err, &validationErr):
		respondJSON(w, r, http.StatusBadRequest, draft.ErrorResponse{
			Error:  validationErr.Error(),
			Fields: validationErr.Fields,
		})
	case errors.As(err, &authErr):
		if authErr.Unauthenticated {
			respondError(w, r, http.StatusUnauthorized, config.ErrUnauthorized)
		} else {
			respondError(w, r, http.StatusForbidden, config.ErrForbidden)
		}
	case errors.As(err, &conflictErr):
		respondJSON(w, r, http.StatusConflict, conflictErr.Response())
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, r, http.StatusNotFound, config.ErrDraftNotFound)
	case errors.Is(err, gateway.ErrContention):
		respondError(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Stack().Err(err).Msg("Request failed")
		respondError(w, r, http.StatusInternalServerError, config.ErrInternalServerError)
	}
}
