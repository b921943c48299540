package constants

// User roles carried in the JWT "role" claim.
const (
	RoleGuest   = "GUEST"
	RoleCourier = "COURIER"
	RolePIC     = "PIC"
	RoleAdmin   = "ADMIN"

	// RoleAny allows any authenticated user regardless of role.
	RoleAny = "any"
)
