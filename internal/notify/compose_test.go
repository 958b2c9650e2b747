package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComposeInvitationSMS(t *testing.T) {
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	base := InvitationSMSInput{
		ChildName: "Elsa",
		Date:      date,
		StartTime: "14:00",
		Venue:     "Leos Lekland",
		Address:   "Storgatan 12, Uppsala",
		Deadline:  &deadline,
		InviteURL: "https://kalaskoll.se/i/abc123",
	}

	t.Run("full message when it fits", func(t *testing.T) {
		msg := ComposeInvitationSMS(base)

		require.LessOrEqual(t, smsLen(msg), MaxSMSLength)
		require.Contains(t, msg, "Storgatan 12, Uppsala")
		require.Contains(t, msg, "Svara senast 5/9")
		require.Contains(t, msg, base.InviteURL)
	})

	t.Run("drops address before deadline", func(t *testing.T) {
		in := base
		in.Address = strings.Repeat("Långa Gatunamnsvägen ", 4)

		msg := ComposeInvitationSMS(in)

		require.LessOrEqual(t, smsLen(msg), MaxSMSLength)
		require.NotContains(t, msg, "Gatunamnsvägen")
		require.Contains(t, msg, "Svara senast")
	})

	t.Run("drops deadline when still too long", func(t *testing.T) {
		in := base
		in.Address = strings.Repeat("x", 60)
		in.Venue = "Stora Äventyrsbadet och Leklandet vid Gamla Industriområdet"

		msg := ComposeInvitationSMS(in)

		require.LessOrEqual(t, smsLen(msg), MaxSMSLength)
		require.NotContains(t, msg, "Svara senast")
		require.Contains(t, msg, base.InviteURL)
	})

	t.Run("minimal template keeps child name and URL", func(t *testing.T) {
		in := base
		in.Venue = strings.Repeat("v", 200)

		msg := ComposeInvitationSMS(in)

		require.LessOrEqual(t, smsLen(msg), MaxSMSLength)
		require.Contains(t, msg, "Elsas kalas 12/9")
		require.Contains(t, msg, base.InviteURL)
	})

	t.Run("absurd child name still fits in one segment", func(t *testing.T) {
		in := base
		in.ChildName = strings.Repeat("Maximilian-Alexander ", 10)
		in.Venue = strings.Repeat("v", 200)

		msg := ComposeInvitationSMS(in)

		require.LessOrEqual(t, smsLen(msg), MaxSMSLength)
	})

	t.Run("no deadline set omits the deadline sentence", func(t *testing.T) {
		in := base
		in.Deadline = nil

		msg := ComposeInvitationSMS(in)

		require.NotContains(t, msg, "Svara senast")
	})
}
