package service

import (
	"context"
	"testing"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestPartyService(t *testing.T) {
	ctx := context.Background()

	input := func() PartyInput {
		return PartyInput{
			ChildName: "Elsa",
			ChildAge:  7,
			Date:      time.Now().AddDate(0, 1, 0),
			StartTime: "14:00",
			EndTime:   "16:30",
			Venue:     "Leos Lekland",
		}
	}

	t.Run("create and fetch", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		svc := &PartyService{Store: st}

		p, err := svc.CreateParty(ctx, owner.ID, input())
		require.NoError(t, err)
		require.NotEmpty(t, p.ID)

		got, err := svc.GetParty(ctx, owner.ID, owner.Role, p.ID)
		require.NoError(t, err)
		require.Equal(t, "Elsa", got.ChildName)
	})

	t.Run("ownership is enforced", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		other := seedProfile(t, st, domain.RoleOwner)
		admin := seedProfile(t, st, domain.RoleAdmin)
		svc := &PartyService{Store: st}

		p, err := svc.CreateParty(ctx, owner.ID, input())
		require.NoError(t, err)

		_, err = svc.GetParty(ctx, other.ID, other.Role, p.ID)
		require.ErrorIs(t, err, ErrNotPartyOwner)

		// Admins see every party.
		_, err = svc.GetParty(ctx, admin.ID, admin.Role, p.ID)
		require.NoError(t, err)
	})

	t.Run("update", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		svc := &PartyService{Store: st}

		p, err := svc.CreateParty(ctx, owner.ID, input())
		require.NoError(t, err)

		in := input()
		in.Venue = "Hemma"
		deadline := time.Now().AddDate(0, 0, 14)
		in.RSVPDeadline = &deadline

		updated, err := svc.UpdateParty(ctx, owner.ID, owner.Role, p.ID, in)
		require.NoError(t, err)
		require.Equal(t, "Hemma", updated.Venue)
		require.NotNil(t, updated.RSVPDeadline)
	})

	t.Run("delete cascades", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		svc := &PartyService{Store: st}

		p, err := svc.CreateParty(ctx, owner.ID, input())
		require.NoError(t, err)
		inv, err := svc.CreateInvitation(ctx, owner.ID, owner.Role, p.ID)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteParty(ctx, owner.ID, owner.Role, p.ID))

		_, err = svc.GetParty(ctx, owner.ID, owner.Role, p.ID)
		require.ErrorIs(t, err, ErrPartyNotFound)
		_, err = st.Invitations().GetInvitationByID(ctx, inv.ID)
		require.Error(t, err)
	})

	t.Run("missing child name is invalid", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		svc := &PartyService{Store: st}

		in := input()
		in.ChildName = ""
		_, err := svc.CreateParty(ctx, owner.ID, in)
		require.ErrorIs(t, err, ErrInvalidParty)
	})
}

func TestPartyGuestList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	owner := seedProfile(t, st, domain.RoleOwner)
	party := seedParty(t, st, owner.ID, nil)
	inv := seedInvitation(t, st, party.ID)

	rsvp := newRSVPService(st)
	_, err := rsvp.Create(ctx, inv.Token, []ChildEntry{
		{ChildName: "Alice", Attending: true},
		{ChildName: "Bertil", Attending: false},
	}, ParentInfo{Email: "anna@example.com", Name: "Anna"})
	require.NoError(t, err)
	_, err = rsvp.Create(ctx, inv.Token, []ChildEntry{
		{ChildName: "Cecilia", Attending: true},
	}, ParentInfo{Email: "bodil@example.com", Name: "Bodil"})
	require.NoError(t, err)

	svc := &PartyService{Store: st}
	guests, err := svc.GuestList(ctx, owner.ID, owner.Role, party.ID)
	require.NoError(t, err)
	require.Len(t, guests, 2)

	byEmail := map[string][]GuestChild{}
	for _, g := range guests {
		byEmail[g.ParentEmail] = g.Children
	}
	require.Len(t, byEmail["anna@example.com"], 2)
	require.Len(t, byEmail["bodil@example.com"], 1)
	require.True(t, byEmail["bodil@example.com"][0].Attending)
}
