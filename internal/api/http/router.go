package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"troop-backend/internal/identity"
	"troop-backend/internal/service"
)

// PasswordSignIn is implemented by identity providers that issue their own
// tokens. Firebase deployments sign in on the client and leave it nil.
type PasswordSignIn interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

type Services struct {
	Auth          service.AuthService
	Calendar      service.CalendarService
	Contacts      service.ContactService
	Notifications service.NotificationService
	Settings      service.SettingsService
}

type Handler struct {
	svc    Services
	signIn PasswordSignIn
}

func NewHandler(svc Services, signIn PasswordSignIn) *Handler {
	return &Handler{svc: svc, signIn: signIn}
}

// NewRouter builds the full API router with instrumentation and auth applied.
func NewRouter(svc Services, idp identity.Provider, signIn PasswordSignIn, limiter *RateLimiter) *mux.Router {
	router := mux.NewRouter()
	router.Use(Instrument)
	router.Use(NewAuthMiddleware(idp, svc.Auth).Handler)
	RegisterRoutes(router, NewHandler(svc, signIn), limiter)
	return router
}

// RegisterRoutes registers every API endpoint. The path templates must match
// the keys of config.EndpointSecurityConfig.
func RegisterRoutes(router *mux.Router, h *Handler, limiter *RateLimiter) {
	router.HandleFunc("/healthz", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	submit := h.SubmitRegistration
	if limiter != nil {
		submit = limiter.Wrap(submit)
	}
	api.HandleFunc("/registrations", submit).Methods("POST")
	api.HandleFunc("/registrations", h.ListRegistrations).Methods("GET")
	api.HandleFunc("/registrations/{id}", h.GetRegistration).Methods("GET")
	api.HandleFunc("/registrations/{id}/approve", h.ApproveRegistration).Methods("POST")
	api.HandleFunc("/registrations/{id}/reject", h.RejectRegistration).Methods("POST")

	api.HandleFunc("/auth/login", h.Login).Methods("POST")
	api.HandleFunc("/me", h.GetMe).Methods("GET")
	api.HandleFunc("/me", h.UpdateMe).Methods("PATCH")

	api.HandleFunc("/users", h.ListUsers).Methods("GET")
	api.HandleFunc("/users", h.CreateUser).Methods("POST")
	api.HandleFunc("/users/{key}", h.GetUser).Methods("GET")
	api.HandleFunc("/users/{key}", h.UpdateUser).Methods("PATCH")
	api.HandleFunc("/users/{key}/access", h.SetAccess).Methods("PUT")

	api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods("POST")

	api.HandleFunc("/contacts", h.ListContacts).Methods("GET")
	api.HandleFunc("/contacts", h.CreateContact).Methods("POST")
	api.HandleFunc("/contacts/import", h.ImportContacts).Methods("POST")
	api.HandleFunc("/contacts/{id}", h.GetContact).Methods("GET")
	api.HandleFunc("/contacts/{id}", h.UpdateContact).Methods("PUT")
	api.HandleFunc("/contacts/{id}", h.DeleteContact).Methods("DELETE")

	api.HandleFunc("/calendar/events", h.CalendarEvents).Methods("GET")
	api.HandleFunc("/calendar/month", h.CalendarMonth).Methods("GET")
	api.HandleFunc("/calendar/ics", h.CalendarICS).Methods("GET")
	api.HandleFunc("/calendar/ops", h.CalendarOp).Methods("POST")

	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
