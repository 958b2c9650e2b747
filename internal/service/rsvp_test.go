package service

import (
	"context"
	"testing"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/notify"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/stretchr/testify/require"
)

func newRSVPService(st store.Store) *RSVPService {
	return &RSVPService{Store: st, BaseURL: "https://kalaskoll.example"}
}

func TestRSVPCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates one row per child", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		ids, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true},
			{ChildName: "Bertil", Attending: false},
		}, ParentInfo{Email: "Anna@Example.com", Name: "Anna"})
		require.NoError(t, err)
		require.Len(t, ids, 2)

		siblings, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)
		require.Len(t, siblings, 2)
		require.NotEqual(t, siblings[0].EditToken, siblings[1].EditToken)
		require.Len(t, siblings[0].EditToken, 64)
	})

	t.Run("unknown invitation token", func(t *testing.T) {
		st := newTestStore(t)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, "no-such-token", []ChildEntry{
			{ChildName: "Alice", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.ErrorIs(t, err, ErrInvitationNotFound)
	})

	t.Run("deadline in the past", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		deadline := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		party := seedParty(t, st, owner.ID, &deadline)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.ErrorIs(t, err, ErrDeadlineExpired)
	})

	t.Run("deadline today is still open", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		deadline := time.Now()
		party := seedParty(t, st, owner.ID, &deadline)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)
	})

	t.Run("second submission for the same parent conflicts", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: false},
		}, ParentInfo{Email: "ANNA@example.com"})
		require.ErrorIs(t, err, ErrDuplicateResponse)
	})

	t.Run("allergy data stored only with consent", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		ids, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true, Allergies: []string{"Laktos"}, AllergyConsent: true},
			{ChildName: "Bertil", Attending: true, Allergies: []string{"Gluten"}, AllergyConsent: false},
			{ChildName: "Cecilia", Attending: false, Allergies: []string{"Nötter"}, AllergyConsent: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)
		require.Len(t, ids, 3)

		a, err := st.AllergyData().GetAllergyDataByResponse(ctx, ids[0])
		require.NoError(t, err)
		require.NotEmpty(t, a.Sealed)
		require.WithinDuration(t, party.AllergyDeleteAt(), a.AutoDeleteAt, time.Second)

		// No consent, and not attending, must leave no trace.
		_, err = st.AllergyData().GetAllergyDataByResponse(ctx, ids[1])
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.AllergyData().GetAllergyDataByResponse(ctx, ids[2])
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rejects empty and oversized child lists", func(t *testing.T) {
		st := newTestStore(t)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, "tok", nil, ParentInfo{Email: "anna@example.com"})
		require.ErrorIs(t, err, ErrInvalidChildren)

		six := make([]ChildEntry, 6)
		for i := range six {
			six[i] = ChildEntry{ChildName: "Barn", Attending: true}
		}
		_, err = svc.Create(ctx, "tok", six, ParentInfo{Email: "anna@example.com"})
		require.ErrorIs(t, err, ErrInvalidChildren)
	})

	t.Run("rejects malformed phone numbers", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true},
		}, ParentInfo{Email: "anna@example.com", Phone: "not-a-number"})
		require.ErrorIs(t, err, ErrInvalidPhone)
	})

	t.Run("normalizes phone to E.164", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true},
		}, ParentInfo{Email: "anna@example.com", Phone: "070-123 45 67"})
		require.NoError(t, err)

		siblings, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)
		require.Equal(t, "+46701234567", siblings[0].ParentPhone)
	})
}

func TestRSVPGetByEditToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	owner := seedProfile(t, st, domain.RoleOwner)
	party := seedParty(t, st, owner.ID, nil)
	inv := seedInvitation(t, st, party.ID)
	svc := newRSVPService(st)

	_, err := svc.Create(ctx, inv.Token, []ChildEntry{
		{ChildName: "Alice", Attending: true, Allergies: []string{"Laktos", "Ägg"}, OtherDietary: "vegetarian", AllergyConsent: true},
		{ChildName: "Bertil", Attending: false},
	}, ParentInfo{Email: "anna@example.com", Name: "Anna", Message: "Vi ses!"})
	require.NoError(t, err)

	siblings, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
	require.NoError(t, err)

	t.Run("prefills the whole sibling set with decrypted allergies", func(t *testing.T) {
		group, err := svc.GetByEditToken(ctx, siblings[1].EditToken)
		require.NoError(t, err)

		require.Equal(t, party.ID, group.Party.ID)
		require.Equal(t, "anna@example.com", group.Parent.Email)
		require.Equal(t, "Vi ses!", group.Parent.Message)
		require.Len(t, group.Children, 2)

		require.Equal(t, "Alice", group.Children[0].ChildName)
		require.Equal(t, []string{"Laktos", "Ägg"}, group.Children[0].Allergies)
		require.Equal(t, "vegetarian", group.Children[0].OtherDietary)
		require.True(t, group.Children[0].AllergyConsent)

		require.Equal(t, "Bertil", group.Children[1].ChildName)
		require.Empty(t, group.Children[1].Allergies)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.GetByEditToken(ctx, "deadbeef")
		require.ErrorIs(t, err, ErrResponseNotFound)
	})
}

func TestRSVPEdit(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (store.Store, *RSVPService, domain.Invitation, []domain.RsvpResponse) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true, Allergies: []string{"Laktos"}, AllergyConsent: true},
			{ChildName: "Bertil", Attending: true},
		}, ParentInfo{Email: "anna@example.com", Name: "Anna"})
		require.NoError(t, err)

		siblings, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)
		require.Len(t, siblings, 2)
		return st, svc, inv, siblings
	}

	t.Run("identical resubmission is idempotent", func(t *testing.T) {
		st, svc, inv, siblings := setup(t)

		ids, err := svc.Edit(ctx, siblings[0].EditToken, []ChildEntry{
			{ID: siblings[0].ID, ChildName: "Alice", Attending: true, Allergies: []string{"Laktos"}, AllergyConsent: true},
			{ID: siblings[1].ID, ChildName: "Bertil", Attending: true},
		}, ParentInfo{Email: "anna@example.com", Name: "Anna"})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{siblings[0].ID, siblings[1].ID}, ids)

		after, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)
		require.Len(t, after, 2)
		// Edit tokens never change on update.
		require.Equal(t, siblings[0].EditToken, after[0].EditToken)
		require.Equal(t, siblings[1].EditToken, after[1].EditToken)
	})

	t.Run("omitting a child deletes its row and allergy data", func(t *testing.T) {
		st, svc, inv, siblings := setup(t)

		ids, err := svc.Edit(ctx, siblings[1].EditToken, []ChildEntry{
			{ID: siblings[1].ID, ChildName: "Bertil", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)
		require.Equal(t, []string{siblings[1].ID}, ids)

		after, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)
		require.Len(t, after, 1)
		require.Equal(t, "Bertil", after[0].ChildName)

		_, err = st.AllergyData().GetAllergyDataByResponse(ctx, siblings[0].ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("new child gets a fresh edit token", func(t *testing.T) {
		st, svc, inv, siblings := setup(t)

		ids, err := svc.Edit(ctx, siblings[0].EditToken, []ChildEntry{
			{ID: siblings[0].ID, ChildName: "Alice", Attending: true},
			{ID: siblings[1].ID, ChildName: "Bertil", Attending: true},
			{ChildName: "Cecilia", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)
		require.Len(t, ids, 3)

		after, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)
		require.Len(t, after, 3)

		tokens := map[string]bool{}
		for _, r := range after {
			tokens[r.EditToken] = true
			require.Len(t, r.EditToken, 64)
		}
		require.Len(t, tokens, 3)
	})

	t.Run("allergy data is replaced wholesale", func(t *testing.T) {
		st, svc, _, siblings := setup(t)

		// Withdraw consent on edit: the existing row must disappear.
		_, err := svc.Edit(ctx, siblings[0].EditToken, []ChildEntry{
			{ID: siblings[0].ID, ChildName: "Alice", Attending: true, Allergies: []string{"Laktos"}, AllergyConsent: false},
			{ID: siblings[1].ID, ChildName: "Bertil", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)

		_, err = st.AllergyData().GetAllergyDataByResponse(ctx, siblings[0].ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown id in payload is treated as a new child", func(t *testing.T) {
		st, svc, inv, siblings := setup(t)

		_, err := svc.Edit(ctx, siblings[0].EditToken, []ChildEntry{
			{ID: "01ZZZZZZZZZZZZZZZZZZZZZZZZ", ChildName: "David", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)

		after, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)
		require.Len(t, after, 1)
		require.Equal(t, "David", after[0].ChildName)
		require.NotEqual(t, "01ZZZZZZZZZZZZZZZZZZZZZZZZ", after[0].ID)
	})

	t.Run("deadline gates edits too", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedProfile(t, st, domain.RoleOwner)
		party := seedParty(t, st, owner.ID, nil)
		inv := seedInvitation(t, st, party.ID)
		svc := newRSVPService(st)

		_, err := svc.Create(ctx, inv.Token, []ChildEntry{
			{ChildName: "Alice", Attending: true},
		}, ParentInfo{Email: "anna@example.com"})
		require.NoError(t, err)

		deadline := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		party.RSVPDeadline = &deadline
		require.NoError(t, st.Parties().UpdateParty(ctx, party))

		siblings, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
		require.NoError(t, err)

		_, err = svc.Edit(ctx, siblings[0].EditToken, []ChildEntry{
			{ID: siblings[0].ID, ChildName: "Alice", Attending: false},
		}, ParentInfo{Email: "anna@example.com"})
		require.ErrorIs(t, err, ErrDeadlineExpired)
	})

}

func TestRSVPEmailTokenSelection(t *testing.T) {
	// The confirmation email's edit link points at the first submitted
	// child's token: the existing token when the first entry was retained,
	// a fresh one when it was new.
	ctx := context.Background()
	st := newTestStore(t)
	owner := seedProfile(t, st, domain.RoleOwner)
	party := seedParty(t, st, owner.ID, nil)
	inv := seedInvitation(t, st, party.ID)

	mailer := &captureMailer{ch: make(chan capturedMail, 4)}
	svc := &RSVPService{Store: st, Mailer: mailer, BaseURL: "https://kalaskoll.example"}

	_, err := svc.Create(ctx, inv.Token, []ChildEntry{
		{ChildName: "Alice", Attending: true},
	}, ParentInfo{Email: "anna@example.com"})
	require.NoError(t, err)

	siblings, err := st.Responses().ListSiblingSet(ctx, inv.ID, "anna@example.com")
	require.NoError(t, err)

	msg := mailer.wait(t)
	require.Contains(t, msg.EditURL, siblings[0].EditToken)
	require.False(t, msg.Updated)

	_, err = svc.Edit(ctx, siblings[0].EditToken, []ChildEntry{
		{ID: siblings[0].ID, ChildName: "Alice", Attending: false},
	}, ParentInfo{Email: "anna@example.com"})
	require.NoError(t, err)

	msg = mailer.wait(t)
	require.Contains(t, msg.EditURL, siblings[0].EditToken)
	require.True(t, msg.Updated)
	require.False(t, msg.AnyAttending)
}

type captureMailer struct {
	ch chan capturedMail
}

func (m *captureMailer) SendConfirmation(_ context.Context, msg notify.ConfirmationEmail) error {
	m.ch <- capturedMail{EditURL: msg.EditURL, Updated: msg.Updated, AnyAttending: msg.AnyAttending}
	return nil
}

type capturedMail struct {
	EditURL      string
	Updated      bool
	AnyAttending bool
}

func (m *captureMailer) wait(t *testing.T) capturedMail {
	t.Helper()
	select {
	case msg := <-m.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no confirmation email sent")
		return capturedMail{}
	}
}
