package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// EditTokenSize is the entropy for RSVP edit tokens. 32 bytes hex-encoded
	// yields a 64-character bearer capability.
	EditTokenSize = 32
	// InviteTokenSize is the entropy for invitation URL slugs.
	InviteTokenSize = 16
)

// NewEditToken returns a hex-encoded random token used as the self-service
// edit capability for a single RSVP row.
func NewEditToken() (string, error) {
	buf := make([]byte, EditTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate edit token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewInviteToken returns a URL-safe random slug identifying one invitation.
// Invite tokens are shared openly (printed on cards, sent over SMS), so they
// are shorter than edit tokens but still unguessable.
func NewInviteToken() (string, error) {
	buf := make([]byte, InviteTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
