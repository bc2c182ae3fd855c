package auth

// Role is the closed set of account roles. Every authorization checkpoint
// matches against these constants rather than raw strings.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a stored role string onto the enum.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Actor identifies the authenticated caller of a lifecycle operation.
// Handlers build it from the JWT; services never read ambient session state.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
