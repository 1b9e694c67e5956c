package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"troop-backend/internal/identity"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		writeError(w, identity.ErrNoSession)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notes, err := h.svc.Notifications.GetNotifications(r.Context(), profile.Email, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		writeError(w, identity.ErrNoSession)
		return
	}
	if err := h.svc.Notifications.MarkAsRead(r.Context(), profile.Email, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
