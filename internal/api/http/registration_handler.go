package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/service"
)

// approvalResponse reports best-effort side effect failures as warnings; the
// approval itself is committed whenever this is returned.
type approvalResponse struct {
	Request  *domain.RegistrationRequest `json:"request"`
	Profiles []domain.UserProfile        `json:"profiles"`
	Emails   *domain.EmailQueueResult    `json:"emails,omitempty"`
	Warnings []string                    `json:"warnings,omitempty"`
}

type rejectBody struct {
	Reason string `json:"reason"`
}

type rejectionResponse struct {
	Request *domain.RegistrationRequest `json:"request"`
	Emails  *domain.EmailQueueResult    `json:"emails,omitempty"`
}

func (h *Handler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.svc.Auth.SubmitRegistrationRequest(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.Auth.GetPendingRequests(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Auth.GetRegistrationRequest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, identity.ErrNoSession)
		return
	}
	result, err := h.svc.Auth.ApproveRegistrationRequest(r.Context(), mux.Vars(r)["id"], principal)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := approvalResponse{Request: result.Request, Profiles: result.Profiles, Emails: result.Emails}
	if result.EmailErr != nil {
		resp.Warnings = append(resp.Warnings, "approval emails were not queued: "+result.EmailErr.Error())
	}
	if result.CleanupErr != nil {
		resp.Warnings = append(resp.Warnings, "request could not be removed: "+result.CleanupErr.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, identity.ErrNoSession)
		return
	}
	var body rejectBody
	if err := decodeOptionalJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	req, emails, err := h.svc.Auth.RejectRegistrationRequest(r.Context(), mux.Vars(r)["id"], principal, body.Reason)
	if err != nil {
		if errors.Is(err, service.ErrEmailsNotQueued) && req != nil {
			status, code := statusFor(err)
			writeJSON(w, status, struct {
				ErrorResponse
				Request *domain.RegistrationRequest `json:"request"`
			}{ErrorResponse{Error: err.Error(), Code: code}, req})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rejectionResponse{Request: req, Emails: emails})
}
