package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"troop-backend/internal/domain"
)

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.Contacts.ListContacts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Contacts.GetContact(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	c.ID = ""
	saved, err := h.svc.Contacts.SaveContact(r.Context(), &c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, err)
		return
	}
	c.ID = mux.Vars(r)["id"]
	saved, err := h.svc.Contacts.SaveContact(r.Context(), &c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Contacts.DeleteContact(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Contacts.ImportContactsFromSheet(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
