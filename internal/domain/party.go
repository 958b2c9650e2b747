package domain

import "time"

// Party is one child's birthday party. All dates are stored in the party's
// local timezone (Swedish market, Europe/Stockholm by default).
type Party struct {
	ID        string
	OwnerID   string
	ChildName string
	ChildAge  int
	Date      time.Time
	StartTime string // "14:00"
	EndTime   string // "16:30"
	Venue     string
	Address   string
	Theme     string

	// RSVPDeadline gates whether new or edited RSVPs are accepted.
	// The gate closes at end of day, not at midnight before.
	RSVPDeadline *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RSVPOpen reports whether the party still accepts new or edited RSVPs at
// the given instant. A nil deadline keeps RSVPs open indefinitely.
func (p Party) RSVPOpen(now time.Time) bool {
	if p.RSVPDeadline == nil {
		return true
	}
	d := *p.RSVPDeadline
	endOfDay := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
	return !now.After(endOfDay)
}

// AllergyRetention is how long allergy data may be kept past the party date.
const AllergyRetention = 7 * 24 * time.Hour

// AllergyDeleteAt returns the auto-delete timestamp for allergy data
// collected for this party.
func (p Party) AllergyDeleteAt() time.Time {
	return p.Date.Add(AllergyRetention)
}
