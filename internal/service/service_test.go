package service

import (
	"context"
	"testing"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/kalaskoll/kalaskoll/internal/store/drivers/sqlite"
	"github.com/kalaskoll/kalaskoll/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedProfile(t *testing.T, st store.Store, role domain.Role) domain.Profile {
	t.Helper()

	now := time.Now()
	p := domain.Profile{
		ID:           idx.New().String(),
		Email:        idx.New().String() + "@example.com",
		Name:         "Anna Andersson",
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Profiles().CreateProfile(context.Background(), p))
	return p
}

func seedParty(t *testing.T, st store.Store, ownerID string, deadline *time.Time) domain.Party {
	t.Helper()

	now := time.Now()
	p := domain.Party{
		ID:           idx.New().String(),
		OwnerID:      ownerID,
		ChildName:    "Elsa",
		ChildAge:     7,
		Date:         now.AddDate(0, 0, 30),
		StartTime:    "14:00",
		EndTime:      "16:30",
		Venue:        "Leos Lekland",
		Address:      "Storgatan 12, Uppsala",
		RSVPDeadline: deadline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Parties().CreateParty(context.Background(), p))
	return p
}

func seedInvitation(t *testing.T, st store.Store, partyID string) domain.Invitation {
	t.Helper()

	inv := domain.Invitation{
		ID:        idx.New().String(),
		PartyID:   partyID,
		Token:     "inv-" + idx.New().String(),
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}
