package domain

import "time"

// Invitation identifies one party via an opaque token. The token is the
// only thing guests need to respond; it is printed on cards and sent in
// invitation SMS.
type Invitation struct {
	ID        string
	PartyID   string
	Token     string
	CreatedAt time.Time
}
