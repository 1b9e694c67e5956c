package http

import (
	"net/http"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Settings.GetSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, identity.ErrNoSession)
		return
	}
	var st domain.TroopSettings
	if err := decodeJSON(w, r, &st); err != nil {
		writeError(w, err)
		return
	}
	updatedBy := principal.Email
	if updatedBy == "" {
		updatedBy = principal.UID
	}
	saved, err := h.svc.Settings.UpdateSettings(r.Context(), &st, updatedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
