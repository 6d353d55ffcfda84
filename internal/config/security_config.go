// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityMember                      // Access token required
	SecurityAdmin                       // Access token with ADMIN role required
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityPublic:
		return "public"
	case SecurityMember:
		return "member"
	case SecurityAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Auth - Public
	"auth.register": SecurityPublic,
	"auth.login":    SecurityPublic,
	"healthz":       SecurityPublic,

	// Photo storage; the token in the path is the credential
	"storage.upload":   SecurityPublic,
	"storage.download": SecurityPublic,
	"uploads.create":   SecurityMember,

	// Catalog
	"items.list":    SecurityMember,
	"items.get":     SecurityMember,
	"items.create":  SecurityAdmin,
	"items.update":  SecurityAdmin,
	"items.restock": SecurityAdmin,
	"items.delete":  SecurityAdmin,

	// Bookings - Member
	"bookings.create":       SecurityMember,
	"bookings.mine":         SecurityMember,
	"bookings.get":          SecurityMember,
	"bookings.pickup_slots": SecurityMember,
	"booking_lines.damage":  SecurityMember,

	// Bookings - Admin
	"bookings.list":           SecurityAdmin,
	"bookings.status":         SecurityAdmin,
	"bookings.modify_approve": SecurityAdmin,
	"bookings.return":         SecurityAdmin,

	// Users - Admin
	"users.list":   SecurityAdmin,
	"users.role":   SecurityAdmin,
	"users.delete": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
