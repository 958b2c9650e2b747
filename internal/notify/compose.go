package notify

import (
	"fmt"
	"time"
)

// MaxSMSLength is the single-segment GSM budget. Invitation SMS must fit in
// one segment to keep per-message cost predictable.
const MaxSMSLength = 160

// InvitationSMSInput is everything an invitation SMS could mention.
type InvitationSMSInput struct {
	ChildName string
	Date      time.Time
	StartTime string
	Venue     string
	Address   string
	Deadline  *time.Time
	InviteURL string
}

// ComposeInvitationSMS builds the invitation text, dropping detail in tiers
// until it fits the single-segment budget: first the street address goes,
// then the RSVP deadline, then everything but the essentials. The final
// fallback always fits.
func ComposeInvitationSMS(in InvitationSMSInput) string {
	date := in.Date.Format("2/1")

	full := fmt.Sprintf("Hej! Du är bjuden på %ss kalas %s kl %s på %s, %s.%s OSA: %s",
		in.ChildName, date, in.StartTime, in.Venue, in.Address, deadlinePart(in.Deadline), in.InviteURL)
	if smsLen(full) <= MaxSMSLength {
		return full
	}

	noAddress := fmt.Sprintf("Hej! Du är bjuden på %ss kalas %s kl %s på %s.%s OSA: %s",
		in.ChildName, date, in.StartTime, in.Venue, deadlinePart(in.Deadline), in.InviteURL)
	if smsLen(noAddress) <= MaxSMSLength {
		return noAddress
	}

	noDeadline := fmt.Sprintf("Hej! Du är bjuden på %ss kalas %s kl %s på %s. OSA: %s",
		in.ChildName, date, in.StartTime, in.Venue, in.InviteURL)
	if smsLen(noDeadline) <= MaxSMSLength {
		return noDeadline
	}

	return minimalInvitationSMS(in.ChildName, date, in.InviteURL)
}

func deadlinePart(deadline *time.Time) string {
	if deadline == nil {
		return ""
	}
	return fmt.Sprintf(" Svara senast %s.", deadline.Format("2/1"))
}

// minimalInvitationSMS guarantees a message within the budget by shrinking
// the child name and, as a last resort, cutting the string hard.
func minimalInvitationSMS(childName, date, inviteURL string) string {
	msg := fmt.Sprintf("%ss kalas %s. OSA: %s", childName, date, inviteURL)
	if smsLen(msg) <= MaxSMSLength {
		return msg
	}

	over := smsLen(msg) - MaxSMSLength
	name := []rune(childName)
	if len(name) > over {
		msg = fmt.Sprintf("%ss kalas %s. OSA: %s", string(name[:len(name)-over]), date, inviteURL)
	}
	if smsLen(msg) > MaxSMSLength {
		msg = string([]rune(msg)[:MaxSMSLength])
	}
	return msg
}

// smsLen counts characters the way the gateway does, per rune rather than
// per byte (Swedish text is full of å/ä/ö).
func smsLen(s string) int {
	return len([]rune(s))
}
