package domain

import "time"

// Role is the authorization level of a profile. Checked through the single
// role middleware, never via scattered email comparisons.
type Role string

const (
	RoleOwner  Role = "owner"  // regular parent planning parties
	RoleTester Role = "tester" // beta tester with free SMS/image allowances
	RoleAdmin  Role = "admin"  // operational oversight
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleTester, RoleAdmin:
		return true
	}
	return false
}

// Profile is a registered account (party owner, beta tester or admin).
// Guests responding to invitations never have profiles.
type Profile struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role

	// TOTPSecret is set when the profile enrolled a second factor.
	// Required in practice for admin accounts.
	TOTPSecret string

	// Beta-tester allowance counters. Only meaningful for RoleTester.
	FreeSMSUsed    int
	FreeImagesUsed int

	CreatedAt time.Time
	UpdatedAt time.Time
}
