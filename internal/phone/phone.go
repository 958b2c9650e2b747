// Package phone normalizes guest phone numbers for SMS delivery.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidNumber reports a number that cannot be delivered to.
var ErrInvalidNumber = errors.New("phone: invalid phone number")

// Normalize normalizes a phone number to E.164 format. Numbers without a
// country code are assumed to be Swedish: "070-123 45 67" becomes
// "+46701234567". Malformed numbers are rejected.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidNumber
	}

	num, err := phonenumbers.Parse(raw, "SE")
	if err != nil {
		return "", ErrInvalidNumber
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidNumber
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
