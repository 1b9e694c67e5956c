package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
)

type createUserBody struct {
	Email        string              `json:"email"`
	Password     string              `json:"password"`
	DisplayName  string              `json:"displayName"`
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	Roles        []string            `json:"roles"`
	AccessStatus domain.AccessStatus `json:"accessStatus"`
}

type accessBody struct {
	Status domain.AccessStatus `json:"status"`
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		writeError(w, identity.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		writeError(w, identity.ErrNoSession)
		return
	}
	var patch domain.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.Auth.UpdateUserProfile(r.Context(), profile.Key, patch.SelfEditable())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ListUsers falls back to the caller's own profile when the store refuses
// list reads.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	fallback := []domain.UserProfile{}
	if profile, ok := ProfileFromContext(r.Context()); ok {
		fallback = append(fallback, *profile)
	}
	users, err := h.svc.Auth.GetAllUsers(r.Context(), fallback)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.svc.Auth.CreateUserWithRoles(r.Context(), body.Email, body.Password, &domain.UserProfile{
		DisplayName:  body.DisplayName,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		Roles:        body.Roles,
		AccessStatus: body.AccessStatus,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Auth.GetUserProfile(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.Auth.UpdateUserProfile(r.Context(), mux.Vars(r)["key"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) SetAccess(w http.ResponseWriter, r *http.Request) {
	var body accessBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.Auth.SetAccessStatus(r.Context(), mux.Vars(r)["key"], body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.signIn == nil {
		writeError(w, ErrLoginNotAvailable)
		return
	}
	var body loginBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	token, err := h.signIn.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"idToken": token})
}
