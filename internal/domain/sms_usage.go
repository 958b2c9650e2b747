package domain

import "time"

// SmsUsage is the per-party-per-month SMS counter. Month uses the "2006-01"
// format so rows roll over naturally at month boundaries.
type SmsUsage struct {
	PartyID   string
	Month     string
	Count     int
	UpdatedAt time.Time
}

// MonthKey formats t as an SmsUsage month key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
