// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic        SecurityLevel = iota // No authentication
	SecurityAuthenticated                      // Approved profile required
	SecurityReviewer                           // admin or approver role required
	SecurityAdmin                              // admin role required
)

// EndpointSecurityConfig maps "METHOD /path-template" routes to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	"GET /healthz":                SecurityPublic,
	"GET /metrics":                SecurityPublic,
	"POST /api/v1/registrations":  SecurityPublic,
	"POST /api/v1/auth/login":     SecurityPublic,
	"GET /api/v1/calendar/events": SecurityPublic,
	"GET /api/v1/calendar/month":  SecurityPublic,
	"GET /api/v1/calendar/ics":    SecurityPublic,

	// Any approved member
	"GET /api/v1/me":                       SecurityAuthenticated,
	"PATCH /api/v1/me":                     SecurityAuthenticated,
	"GET /api/v1/notifications":            SecurityAuthenticated,
	"POST /api/v1/notifications/{id}/read": SecurityAuthenticated,
	"GET /api/v1/contacts":                 SecurityAuthenticated,
	"GET /api/v1/contacts/{id}":            SecurityAuthenticated,

	// Registration review
	"GET /api/v1/registrations":               SecurityReviewer,
	"GET /api/v1/registrations/{id}":          SecurityReviewer,
	"POST /api/v1/registrations/{id}/approve": SecurityReviewer,
	"POST /api/v1/registrations/{id}/reject":  SecurityReviewer,

	// Administration
	"GET /api/v1/users":              SecurityAdmin,
	"POST /api/v1/users":             SecurityAdmin,
	"GET /api/v1/users/{key}":        SecurityAdmin,
	"PATCH /api/v1/users/{key}":      SecurityAdmin,
	"PUT /api/v1/users/{key}/access": SecurityAdmin,
	"POST /api/v1/contacts":          SecurityAdmin,
	"PUT /api/v1/contacts/{id}":      SecurityAdmin,
	"DELETE /api/v1/contacts/{id}":   SecurityAdmin,
	"POST /api/v1/contacts/import":   SecurityAdmin,
	"POST /api/v1/calendar/ops":      SecurityAdmin,
	"GET /api/v1/settings":           SecurityAdmin,
	"PUT /api/v1/settings":           SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(method, pathTemplate string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method+" "+pathTemplate]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
