// internal/eventstore/handler.go
package eventstore

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	journal *Journal
}

func NewHandler(journal *Journal) *Handler {
	return &Handler{journal: journal}
}

// HandleHistory lists the stored events of the reservation whose ref is in the path.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ref, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		http.Error(w, "invalid reservation ref", http.StatusBadRequest)
		return
	}

	events, err := h.journal.History(r.Context(), ref)
	if err != nil {
		log.Printf("[EVENTSTORE] action=history ref=%s msg=%v", ref, err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
