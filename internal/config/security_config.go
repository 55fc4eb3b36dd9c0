// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No session needed
	SecurityOptional                     // Session read when present
	SecuritySession                      // Live session required
)

// RouteSecurityConfig maps mux route names to their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	"health": SecurityPublic,

	// Catalogue - Public
	"cars.list":     SecurityPublic,
	"cars.featured": SecurityPublic,
	"cars.cities":   SecurityPublic,
	"cars.detail":   SecurityPublic,

	// Quotes and checkout read the session when there is one. "Book Now"
	// without a session is answered by the eligibility gate with a login
	// redirect, not by a 401.
	"cars.quote":       SecurityOptional,
	"cars.book":        SecurityOptional,
	"checkout.attempt": SecuritySession,

	// Gateway callbacks are keyed by order id and come from the widget handler
	// running in the page that started the checkout.
	"checkout.callback": SecuritySession,
	"checkout.dismiss":  SecuritySession,
	"checkout.failure":  SecuritySession,

	// Auth - Public
	"auth.login":        SecurityPublic,
	"auth.register":     SecurityPublic,
	"auth.verify_email": SecurityPublic,
	"auth.resend_otp":   SecurityPublic,
	"auth.logout":       SecurityOptional,

	// Profile and bookings - Session Protected
	"profile.get":       SecuritySession,
	"profile.update":    SecuritySession,
	"profile.documents": SecuritySession,
	"bookings.mine":     SecuritySession,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecuritySession
}
