package domain

import "time"

// AllergyData is the encrypted allergy/dietary record for one attending
// child. It exists only when the parent gave explicit consent, and must
// never outlive AutoDeleteAt (enforced by the housekeeping worker).
type AllergyData struct {
	ID         string
	ResponseID string

	// Sealed is the AES-256-GCM ciphertext of an AllergyPayload.
	Sealed []byte

	ConsentAt    time.Time
	AutoDeleteAt time.Time
	CreatedAt    time.Time
}

// AllergyPayload is the plaintext shape stored inside AllergyData.Sealed.
type AllergyPayload struct {
	Allergies    []string `json:"allergies"`
	OtherDietary string   `json:"other_dietary,omitempty"`
}

// Empty reports whether the payload carries no information worth storing.
func (p AllergyPayload) Empty() bool {
	return len(p.Allergies) == 0 && p.OtherDietary == ""
}
