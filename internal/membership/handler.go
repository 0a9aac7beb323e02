// internal/membership/handler.go
package membership

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// HandleStanding returns violations and suspension state for one member.
func (h *Handler) HandleStanding(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	member, ok := h.repo.Get(studentID)
	if !ok {
		http.Error(w, "member not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member.Standing())
}
