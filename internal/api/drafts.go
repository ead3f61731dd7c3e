package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/routes"
)

func (s *Server) caller(r *http.Request) model.UserID {
	userID, err := s.provider.GetUserIDFromSession(r)
	if err != nil {
		return ""
	}
	return userID
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	caller := s.caller(r)
	if caller == "" {
		writeError(w, r, &draft.AuthorizationError{Unauthenticated: true})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req draft.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, draft.NewValidationError(errors.New(config.ErrMalformedBody)))
		return
	}

	res, err := s.gateway.Save(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.IsNew {
		status = http.StatusCreated
	}
	respondJSON(w, r, status, draft.SaveResponse{
		Success:   true,
		ID:        res.ID,
		UpdatedAt: res.Version,
		IsNew:     res.IsNew,
	})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.gateway.Get(r.Context(), s.caller(r), model.DraftID(chi.URLParam(r, routes.DraftParam)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, draft.NewDraftResponse(d))
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.gateway.Delete(r.Context(), s.caller(r), model.DraftID(chi.URLParam(r, routes.DraftParam))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.gateway.List(r.Context(), s.caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]draft.SummaryResponse, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, draft.SummaryResponse{
			ID:        d.ID,
			Title:     d.Title,
			Status:    d.Status,
			UpdatedAt: d.Version,
		})
	}
	respondJSON(w, r, http.StatusOK, out)
}
