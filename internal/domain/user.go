package domain

import "time"

type User struct {
	ID        string
	Name      string
	Role      UserRole
	CreatedAt time.Time
}

// Assignable reports whether tasks may be assigned to the user.
// Only subcontractor identities are eligible.
func (u *User) Assignable() bool {
	return u != nil && u.Role == RoleSubcontract
}
