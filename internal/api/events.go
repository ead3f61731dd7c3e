package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/gateway"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/routes"
	"github.com/Rani367/Hativon-sub000/internal/sse"
)

// EventFrame renders a gateway event as an SSE frame without the trailing blank line.
func EventFrame(e gateway.Event) string {
	if e.Deleted {
		return "event: deleted\ndata: " + string(e.DraftID)
	}
	return "event: version\ndata: " + e.Version.String()
}

// NotifyDraftEvent is the gateway notifier that feeds the SSE subscribers.
func (s *Server) NotifyDraftEvent(e gateway.Event) {
	s.clients.Broadcast(e.DraftID, EventFrame(e))
}

// handleDraftEvents streams version changes of one draft so other tabs can
// notice they are behind before their next save.
func (s *Server) handleDraftEvents(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())
	id := model.DraftID(chi.URLParam(r, routes.DraftParam))

	d, err := s.gateway.Get(r.Context(), s.caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeEventStream)
	w.Header().Set(config.HCacheControl, config.CacheNoCache)
	w.Header().Set(config.HConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	client := sse.NewClient(id)
	s.clients.Add(client)
	defer func() {
		s.clients.Delete(client)
		l.Debug().Str("draft_id", string(id)).Msg("SSE client disconnected")
	}()

	// The current version first, so a subscriber never misses a write made
	// before it connected.
	fmt.Fprintf(w, "%s\n\n", EventFrame(gateway.Event{DraftID: id, Version: d.Version}))
	flusher.Flush()

	l.Debug().Str("draft_id", string(id)).Msg("SSE client connected")

	notify := r.Context().Done()
	for {
		select {
		case msg, ok := <-client.Msg:
			if !ok {
				return
			}
			fmt.Fprintf(w, "%s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}
