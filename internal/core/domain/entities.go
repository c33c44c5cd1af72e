package domain

// Role represents user role in the system
type Role string

const (
	RoleMember  Role = "MEMBER"
	RoleOfficer Role = "OFFICER"
	RoleAdmin   Role = "ADMIN"
)

// Actor identifies the authenticated caller of a core operation.
// Populated by the auth middleware from token claims; services use it for
// the access-permission predicate, never for display.
type Actor struct {
	UserID   uint
	MembNo   string
	Username string
	UnitID   uint
	Role     string
	SourceIP string
}

// IsAdmin reports whether the actor holds the global administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == string(RoleAdmin)
}
