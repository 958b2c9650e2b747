package domain

import (
	"strings"
	"time"
)

// RsvpResponse is one child's answer to an invitation. Siblings answered on
// the same form each get their own row, grouped implicitly by sharing
// (InvitationID, ParentEmail).
type RsvpResponse struct {
	ID           string
	InvitationID string
	ChildName    string
	Attending    bool
	ParentName   string
	ParentEmail  string
	ParentPhone  string // E.164, may be empty
	Message      string

	// EditToken is the bearer capability letting the respondent edit or
	// withdraw the answer later without an account. 32 random bytes, hex.
	EditToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail canonicalizes a parent email for sibling-set grouping and
// duplicate detection.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AnyAttending reports whether at least one response in the set attends.
// Drives the confirmation email copy; each row stays independent.
func AnyAttending(responses []RsvpResponse) bool {
	for _, r := range responses {
		if r.Attending {
			return true
		}
	}
	return false
}

// ChildNames lists the child names of a sibling set in order.
func ChildNames(responses []RsvpResponse) []string {
	names := make([]string, 0, len(responses))
	for _, r := range responses {
		names = append(names, r.ChildName)
	}
	return names
}
