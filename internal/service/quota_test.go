package service

import (
	"context"
	"testing"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestQuotaConsumeSMS(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("counts up to the monthly cap", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		svc := &QuotaService{Store: st}

		for i := 0; i < MonthlySMSLimit; i++ {
			require.NoError(t, svc.ConsumeSMS(ctx, party.ID, now))
		}
		require.ErrorIs(t, svc.ConsumeSMS(ctx, party.ID, now), ErrSMSQuotaExceeded)

		remaining, err := svc.SMSRemaining(ctx, party.ID, now)
		require.NoError(t, err)
		require.Zero(t, remaining)
	})

	t.Run("counter rolls over at month boundaries", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		svc := &QuotaService{Store: st}

		require.NoError(t, st.SmsUsage().IncrementSmsCount(ctx, party.ID, domain.MonthKey(now), MonthlySMSLimit))
		require.ErrorIs(t, svc.ConsumeSMS(ctx, party.ID, now), ErrSMSQuotaExceeded)

		nextMonth := now.AddDate(0, 1, 0)
		require.NoError(t, svc.ConsumeSMS(ctx, party.ID, nextMonth))
	})

	t.Run("quotas are per party", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		partyA := seedParty(t, st, owner.ID, nil)
		partyB := seedParty(t, st, owner.ID, nil)
		svc := &QuotaService{Store: st}

		require.NoError(t, st.SmsUsage().IncrementSmsCount(ctx, partyA.ID, domain.MonthKey(now), MonthlySMSLimit))
		require.ErrorIs(t, svc.ConsumeSMS(ctx, partyA.ID, now), ErrSMSQuotaExceeded)
		require.NoError(t, svc.ConsumeSMS(ctx, partyB.ID, now))
	})
}

func TestQuotaTesterAllowances(t *testing.T) {
	ctx := context.Background()

	t.Run("tester sms allowance", func(t *testing.T) {
		st := newTestStore(t)
		tester := seedProfile(t, st, domain.RoleTester)
		svc := &QuotaService{Store: st}

		for i := 0; i < TesterFreeSMS; i++ {
			require.NoError(t, svc.ConsumeTesterSMS(ctx, tester.ID))
		}
		require.ErrorIs(t, svc.ConsumeTesterSMS(ctx, tester.ID), ErrSMSQuotaExceeded)

		p, err := st.Profiles().GetProfileByID(ctx, tester.ID)
		require.NoError(t, err)
		require.Equal(t, TesterFreeSMS, p.FreeSMSUsed)
	})

	t.Run("non-testers have no free sms", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		svc := &QuotaService{Store: st}

		require.ErrorIs(t, svc.ConsumeTesterSMS(ctx, owner.ID), ErrSMSQuotaExceeded)
	})

	t.Run("image generation is tester only", func(t *testing.T) {
		st := newTestStore(t)
		tester := seedProfile(t, st, domain.RoleTester)
		owner := seedProfile(t, st, domain.RoleOwner)
		svc := &QuotaService{Store: st}

		require.ErrorIs(t, svc.ConsumeImage(ctx, owner.ID), ErrImageQuotaExceeded)

		for i := 0; i < TesterFreeImages; i++ {
			require.NoError(t, svc.ConsumeImage(ctx, tester.ID))
		}
		require.ErrorIs(t, svc.ConsumeImage(ctx, tester.ID), ErrImageQuotaExceeded)
	})
}
