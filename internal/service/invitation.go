package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/notify"
	"github.com/kalaskoll/kalaskoll/internal/phone"
	"github.com/kalaskoll/kalaskoll/pkg/slogx"
)

var ErrNoRecipients = errors.New("no_recipients")

// SendReport summarizes a batch SMS send. Failures are per-recipient and
// never retried; the caller sees the counts and the failed numbers.
type SendReport struct {
	Sent   int
	Failed []string
}

// InvitationService dispatches invitation SMS and generates AI invitation
// images, both behind quota gates.
type InvitationService struct {
	Parties *PartyService
	Quota   *QuotaService
	SMS     notify.SMSSender
	Images  notify.ImageGenerator

	// BaseURL is the public origin for invitation links.
	BaseURL string
}

// SendSMS composes the invitation message for each recipient and sends one
// SMS at a time, consuming quota per message. Numbers are normalized to
// E.164 first; malformed ones count as failures without touching quota.
// A quota exhaustion mid-batch stops the batch, reporting what was sent.
func (s *InvitationService) SendSMS(ctx context.Context, callerID string, callerRole domain.Role, partyID, invitationID string, recipients []string) (SendReport, error) {
	if len(recipients) == 0 {
		return SendReport{}, ErrNoRecipients
	}

	party, err := s.Parties.GetParty(ctx, callerID, callerRole, partyID)
	if err != nil {
		return SendReport{}, err
	}

	inv, err := s.Parties.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		return SendReport{}, err
	}
	if inv.PartyID != party.ID {
		return SendReport{}, ErrInvitationNotFound
	}

	message := notify.ComposeInvitationSMS(notify.InvitationSMSInput{
		ChildName: party.ChildName,
		Date:      party.Date,
		StartTime: party.StartTime,
		Venue:     party.Venue,
		Address:   party.Address,
		Deadline:  party.RSVPDeadline,
		InviteURL: s.BaseURL + "/i/" + inv.Token,
	})

	l := slogx.FromContext(ctx)
	now := time.Now()

	var report SendReport
	for i, raw := range recipients {
		to, err := phone.Normalize(raw)
		if err != nil {
			report.Failed = append(report.Failed, raw)
			continue
		}

		if err := s.consumeSMSQuota(ctx, callerID, callerRole, partyID, now); err != nil {
			if errors.Is(err, ErrSMSQuotaExceeded) {
				// Report everyone who never got a message.
				report.Failed = append(report.Failed, recipients[i:]...)
				return report, err
			}
			return report, err
		}

		if err := s.SMS.SendSMS(ctx, to, message); err != nil {
			l.Error("invitation sms failed", slog.String("to", to), slog.Any("error", err))
			report.Failed = append(report.Failed, raw)
			continue
		}
		report.Sent++
	}
	return report, nil
}

// consumeSMSQuota charges testers against their free allowance first, then
// falls back to the party's monthly counter.
func (s *InvitationService) consumeSMSQuota(ctx context.Context, callerID string, callerRole domain.Role, partyID string, now time.Time) error {
	if callerRole == domain.RoleTester {
		if err := s.Quota.ConsumeTesterSMS(ctx, callerID); err == nil {
			return nil
		} else if !errors.Is(err, ErrSMSQuotaExceeded) {
			return err
		}
	}
	return s.Quota.ConsumeSMS(ctx, partyID, now)
}

// GenerateImage creates a themed AI invitation image for the party.
// Beta-tester only. The allowance is consumed before calling the provider;
// counters are monotonic, a failed generation still counts.
func (s *InvitationService) GenerateImage(ctx context.Context, callerID string, callerRole domain.Role, partyID, prompt string) (*notify.GeneratedImage, error) {
	party, err := s.Parties.GetParty(ctx, callerID, callerRole, partyID)
	if err != nil {
		return nil, err
	}

	if err := s.Quota.ConsumeImage(ctx, callerID); err != nil {
		return nil, err
	}

	if prompt == "" {
		prompt = party.Theme
	}
	fullPrompt := "Barnkalas-inbjudan för " + party.ChildName + ": " + prompt

	return s.Images.GenerateImage(ctx, fullPrompt)
}
