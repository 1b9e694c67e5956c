package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"troop-backend/internal/config"
	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/logger"
	"troop-backend/internal/metrics"
	"troop-backend/internal/service"
)

type AuthMiddleware struct {
	idp  identity.Provider
	auth service.AuthService
}

func NewAuthMiddleware(idp identity.Provider, auth service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{idp: idp, auth: auth}
}

// Handler authenticates and authorizes each request against the route's
// security level. It must run after route matching.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(r.Method, routeTemplate(r))

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			writeError(w, err)
			return
		}

		principal, err := m.idp.VerifyIDToken(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}

		// Also promotes an email-keyed profile to the UID on first sign-in.
		profile, err := m.auth.RequireApprovedProfile(r.Context(), *principal)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := checkSecurityLevel(level, profile); err != nil {
			logger.Info("Request refused for role", "uid", principal.UID, "route", routeTemplate(r))
			writeError(w, err)
			return
		}

		ctx := identity.WithPrincipal(r.Context(), *principal)
		ctx = withProfile(ctx, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, error) {
	token := r.Header.Get("Authorization")
	if token == "" {
		return "", ErrMissingToken
	}
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func checkSecurityLevel(level config.SecurityLevel, p *domain.UserProfile) error {
	switch level {
	case config.SecurityReviewer:
		if !p.CanReview() {
			return ErrInsufficientRole
		}
	case config.SecurityAdmin:
		if !p.IsAdmin() {
			return ErrInsufficientRole
		}
	}
	return nil
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and latency by route template.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		logger.Debug("HTTP request", "method", r.Method, "route", route, "status", rec.status, "duration", elapsed)
	})
}

// maxTrackedClients bounds the limiter table; it is reset when full.
const maxTrackedClients = 10000

// RateLimiter throttles a handler per client address.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	trustProxy bool

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter allows perMinute requests per client with the given burst.
// With trustProxy unset the X-Forwarded-For header is ignored, since any
// client can set it.
func NewRateLimiter(perMinute, burst int, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		limit:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      burst,
		trustProxy: trustProxy,
		clients:    make(map[string]*rate.Limiter),
	}
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.clients = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (l *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientAddr(r, l.trustProxy)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, ErrRateLimited)
			return
		}
		next(w, r)
	}
}

// clientAddr returns the peer host, or the first X-Forwarded-For hop when
// the proxy in front of the server is trusted.
func clientAddr(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
