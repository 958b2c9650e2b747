package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/kalaskoll/kalaskoll/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweep(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	owner := seedProfile(t, st, domain.RoleOwner)
	party := seedParty(t, st, owner.ID, nil)
	inv := seedInvitation(t, st, party.ID)

	seedResponseWithAllergy := func(t *testing.T, email string, deleteAt time.Time) string {
		t.Helper()
		r := domain.RsvpResponse{
			ID:           idx.New().String(),
			InvitationID: inv.ID,
			ChildName:    "Barn",
			Attending:    true,
			ParentEmail:  email,
			EditToken:    idx.New().String(),
		}
		require.NoError(t, st.Responses().CreateResponse(ctx, r))
		require.NoError(t, st.AllergyData().CreateAllergyData(ctx, domain.AllergyData{
			ID:           idx.New().String(),
			ResponseID:   r.ID,
			Sealed:       []byte("sealed"),
			ConsentAt:    time.Now(),
			AutoDeleteAt: deleteAt,
		}))
		return r.ID
	}

	expired := seedResponseWithAllergy(t, "a@example.com", time.Now().Add(-time.Hour))
	kept := seedResponseWithAllergy(t, "b@example.com", time.Now().Add(24*time.Hour))

	now := time.Now()
	require.NoError(t, st.SmsUsage().IncrementSmsCount(ctx, party.ID, domain.MonthKey(now.AddDate(0, -6, 0)), 5))
	require.NoError(t, st.SmsUsage().IncrementSmsCount(ctx, party.ID, domain.MonthKey(now), 5))

	svc := NewHousekeepingService(st, slog.Default(), time.Hour)
	svc.Sweep(ctx)

	t.Run("expired allergy data is purged", func(t *testing.T) {
		_, err := st.AllergyData().GetAllergyDataByResponse(ctx, expired)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unexpired allergy data survives", func(t *testing.T) {
		_, err := st.AllergyData().GetAllergyDataByResponse(ctx, kept)
		require.NoError(t, err)
	})

	t.Run("stale sms counters are dropped", func(t *testing.T) {
		count, err := st.SmsUsage().GetSmsCount(ctx, party.ID, domain.MonthKey(now.AddDate(0, -6, 0)))
		require.NoError(t, err)
		require.Zero(t, count)

		count, err = st.SmsUsage().GetSmsCount(ctx, party.ID, domain.MonthKey(now))
		require.NoError(t, err)
		require.Equal(t, 5, count)
	})
}

func TestHousekeepingStartStop(t *testing.T) {
	st := newTestStore(t)

	svc := NewHousekeepingService(st, slog.Default(), time.Minute)
	svc.Start()
	svc.Stop()
}
