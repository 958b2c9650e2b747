package service

import (
	"context"
	"errors"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/store"
)

const (
	// MonthlySMSLimit caps invitation SMS per party per calendar month.
	MonthlySMSLimit = 50

	// TesterFreeSMS and TesterFreeImages are the beta-tester allowances,
	// consumed on top of the regular party quota.
	TesterFreeSMS    = 25
	TesterFreeImages = 10
)

var (
	ErrSMSQuotaExceeded   = errors.New("sms_quota_exceeded")
	ErrImageQuotaExceeded = errors.New("image_quota_exceeded")
)

// QuotaService owns the monotonic usage counters gating SMS sends and AI
// image generation. Counters only ever go up; months roll over by keying
// sms_usage rows on "2006-01".
type QuotaService struct {
	Store store.Store
}

// ConsumeSMS reserves one SMS against the party's monthly counter, checking
// and incrementing inside a transaction. Contention is effectively
// single-user (one owner per party) but the transaction keeps the
// read-compare-increment atomic anyway.
func (s *QuotaService) ConsumeSMS(ctx context.Context, partyID string, now time.Time) error {
	month := domain.MonthKey(now)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		count, err := tx.SmsUsage().GetSmsCount(ctx, partyID, month)
		if err != nil {
			return err
		}
		if count >= MonthlySMSLimit {
			return ErrSMSQuotaExceeded
		}
		return tx.SmsUsage().IncrementSmsCount(ctx, partyID, month, 1)
	})
}

// ConsumeTesterSMS reserves one SMS from a beta tester's free allowance.
// Callers fall back to ConsumeSMS for non-tester profiles.
func (s *QuotaService) ConsumeTesterSMS(ctx context.Context, profileID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.Profiles().GetProfileByID(ctx, profileID)
		if err != nil {
			return err
		}
		if p.Role != domain.RoleTester || p.FreeSMSUsed >= TesterFreeSMS {
			return ErrSMSQuotaExceeded
		}
		return tx.Profiles().IncrementFreeSMSUsed(ctx, profileID, 1)
	})
}

// ConsumeImage reserves one AI image generation from a beta tester's free
// allowance. Image generation is a beta feature, so there is no paid path
// to fall back to.
func (s *QuotaService) ConsumeImage(ctx context.Context, profileID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.Profiles().GetProfileByID(ctx, profileID)
		if err != nil {
			return err
		}
		if p.Role != domain.RoleTester || p.FreeImagesUsed >= TesterFreeImages {
			return ErrImageQuotaExceeded
		}
		return tx.Profiles().IncrementFreeImagesUsed(ctx, profileID, 1)
	})
}

// SMSRemaining reports how many SMS the party may still send this month.
func (s *QuotaService) SMSRemaining(ctx context.Context, partyID string, now time.Time) (int, error) {
	count, err := s.Store.SmsUsage().GetSmsCount(ctx, partyID, domain.MonthKey(now))
	if err != nil {
		return 0, err
	}
	remaining := MonthlySMSLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
