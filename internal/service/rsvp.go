package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/notify"
	"github.com/kalaskoll/kalaskoll/internal/phone"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/kalaskoll/kalaskoll/pkg/cryptox"
	"github.com/kalaskoll/kalaskoll/pkg/idx"
	"github.com/kalaskoll/kalaskoll/pkg/slogx"
)

const (
	// MaxChildrenPerResponse caps how many siblings one form submission
	// may cover.
	MaxChildrenPerResponse = 5
)

var (
	ErrInvitationNotFound = errors.New("invitation_not_found")
	ErrResponseNotFound   = errors.New("response_not_found")
	ErrDeadlineExpired    = errors.New("deadline_expired")
	ErrDuplicateResponse  = errors.New("duplicate_response")
	ErrInvalidChildren    = errors.New("invalid_children")
	ErrMissingParentEmail = errors.New("missing_parent_email")
	ErrInvalidPhone       = errors.New("invalid_phone")
)

// ChildEntry is one child's answer as submitted on the RSVP form. ID is set
// only on edits, for children that already have a response row.
type ChildEntry struct {
	ID             string
	ChildName      string
	Attending      bool
	Allergies      []string
	OtherDietary   string
	AllergyConsent bool
}

// ParentInfo identifies the responding parent. Siblings are grouped by
// (invitation, normalized email), so Email is the one required field.
type ParentInfo struct {
	Email   string
	Name    string
	Phone   string
	Message string
}

// ResponseGroup is the full sibling set behind one edit token, decrypted
// for form prefill.
type ResponseGroup struct {
	Party    domain.Party
	Children []ChildEntry
	Parent   ParentInfo
}

// RSVPService implements the guest-facing submission and edit flows.
type RSVPService struct {
	Store store.Store

	// Mailer may be nil in tests; confirmation emails are fire-and-forget.
	Mailer notify.Mailer

	// BaseURL is the public origin used to build edit links, e.g.
	// "https://kalaskoll.se".
	BaseURL string
}

// Create handles a first-time RSVP submission.
//
// It resolves the invitation token, gates on the party's RSVP deadline,
// rejects duplicate submissions for the same parent, and inserts one
// response row per child inside a single transaction. Allergy details are
// encrypted and stored only for attending children whose parent gave
// explicit consent. A confirmation email with an edit link goes out after
// commit; its failure is logged, never surfaced.
func (s *RSVPService) Create(ctx context.Context, inviteToken string, children []ChildEntry, parent ParentInfo) ([]string, error) {
	if err := validateChildren(children, false); err != nil {
		return nil, err
	}
	parent, err := normalizeParent(parent)
	if err != nil {
		return nil, err
	}

	inv, err := s.Store.Invitations().GetInvitationByToken(ctx, inviteToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	party, err := s.Store.Parties().GetPartyByID(ctx, inv.PartyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !party.RSVPOpen(now) {
		return nil, ErrDeadlineExpired
	}

	var (
		ids       []string
		editToken string
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		count, err := tx.Responses().CountByInvitationParent(ctx, inv.ID, parent.Email)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateResponse
		}

		for i, child := range children {
			token, err := cryptox.NewEditToken()
			if err != nil {
				return fmt.Errorf("mint edit token: %w", err)
			}
			if i == 0 {
				editToken = token
			}

			r := domain.RsvpResponse{
				ID:           idx.New().String(),
				InvitationID: inv.ID,
				ChildName:    child.ChildName,
				Attending:    child.Attending,
				ParentName:   parent.Name,
				ParentEmail:  parent.Email,
				ParentPhone:  parent.Phone,
				Message:      parent.Message,
				EditToken:    token,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Responses().CreateResponse(ctx, r); err != nil {
				return err
			}
			ids = append(ids, r.ID)

			if err := storeAllergyData(ctx, tx, r.ID, child, party, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, party, parent, children, editToken, false)

	return ids, nil
}

// GetByEditToken loads the full sibling set for the edit form, with allergy
// details decrypted.
func (s *RSVPService) GetByEditToken(ctx context.Context, editToken string) (*ResponseGroup, error) {
	anchor, err := s.Store.Responses().GetResponseByEditToken(ctx, editToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}

	siblings, err := s.Store.Responses().ListSiblingSet(ctx, anchor.InvitationID, anchor.ParentEmail)
	if err != nil {
		return nil, err
	}

	inv, err := s.Store.Invitations().GetInvitationByID(ctx, anchor.InvitationID)
	if err != nil {
		return nil, err
	}
	party, err := s.Store.Parties().GetPartyByID(ctx, inv.PartyID)
	if err != nil {
		return nil, err
	}

	group := &ResponseGroup{
		Party: party,
		Parent: ParentInfo{
			Email:   anchor.ParentEmail,
			Name:    anchor.ParentName,
			Phone:   anchor.ParentPhone,
			Message: anchor.Message,
		},
	}

	l := slogx.FromContext(ctx)
	for _, r := range siblings {
		entry := ChildEntry{
			ID:        r.ID,
			ChildName: r.ChildName,
			Attending: r.Attending,
		}

		a, err := s.Store.AllergyData().GetAllergyDataByResponse(ctx, r.ID)
		switch {
		case err == nil:
			var payload domain.AllergyPayload
			plaintext, err := cryptox.Decrypt(a.Sealed)
			if err != nil {
				l.Error("failed to decrypt allergy data", slog.String("response_id", r.ID), slog.Any("error", err))
			} else if err := json.Unmarshal(plaintext, &payload); err != nil {
				l.Error("failed to decode allergy data", slog.String("response_id", r.ID), slog.Any("error", err))
			} else {
				entry.Allergies = payload.Allergies
				entry.OtherDietary = payload.OtherDietary
				entry.AllergyConsent = true
			}
		case errors.Is(err, store.ErrNotFound):
			// no allergy data for this child
		default:
			return nil, err
		}

		group.Children = append(group.Children, entry)
	}

	return group, nil
}

// Edit replaces the sibling set behind an edit token with the submitted
// list.
//
// Reconciliation: entries carrying an id that exists in the current set are
// updated in place with their allergy data replaced wholesale; entries
// without a known id are inserted with fresh edit tokens; current rows whose
// id is absent from the submission are hard-deleted along with their allergy
// data. The whole sequence runs in one transaction so a failure never
// leaves a half-applied edit.
func (s *RSVPService) Edit(ctx context.Context, editToken string, children []ChildEntry, parent ParentInfo) ([]string, error) {
	if err := validateChildren(children, true); err != nil {
		return nil, err
	}
	parent, err := normalizeParent(parent)
	if err != nil {
		return nil, err
	}

	anchor, err := s.Store.Responses().GetResponseByEditToken(ctx, editToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}

	inv, err := s.Store.Invitations().GetInvitationByID(ctx, anchor.InvitationID)
	if err != nil {
		return nil, err
	}
	party, err := s.Store.Parties().GetPartyByID(ctx, inv.PartyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !party.RSVPOpen(now) {
		return nil, ErrDeadlineExpired
	}

	var (
		ids        []string
		emailToken string
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Responses().ListSiblingSet(ctx, anchor.InvitationID, anchor.ParentEmail)
		if err != nil {
			return err
		}

		existingByID := make(map[string]domain.RsvpResponse, len(existing))
		for _, r := range existing {
			existingByID[r.ID] = r
		}

		retained := make(map[string]bool, len(children))
		for i, child := range children {
			prev, ok := existingByID[child.ID]
			if child.ID != "" && ok {
				updated := prev
				updated.ChildName = child.ChildName
				updated.Attending = child.Attending
				updated.ParentName = parent.Name
				updated.ParentEmail = parent.Email
				updated.ParentPhone = parent.Phone
				updated.Message = parent.Message
				updated.UpdatedAt = now
				if err := tx.Responses().UpdateResponse(ctx, updated); err != nil {
					return err
				}
				retained[child.ID] = true
				ids = append(ids, child.ID)
				if i == 0 {
					emailToken = prev.EditToken
				}

				if err := tx.AllergyData().DeleteAllergyDataByResponse(ctx, child.ID); err != nil {
					return err
				}
				if err := storeAllergyData(ctx, tx, child.ID, child, party, now); err != nil {
					return err
				}
				continue
			}

			// Unknown id or no id at all: a new sibling.
			token, err := cryptox.NewEditToken()
			if err != nil {
				return fmt.Errorf("mint edit token: %w", err)
			}
			if i == 0 {
				emailToken = token
			}

			r := domain.RsvpResponse{
				ID:           idx.New().String(),
				InvitationID: anchor.InvitationID,
				ChildName:    child.ChildName,
				Attending:    child.Attending,
				ParentName:   parent.Name,
				ParentEmail:  parent.Email,
				ParentPhone:  parent.Phone,
				Message:      parent.Message,
				EditToken:    token,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Responses().CreateResponse(ctx, r); err != nil {
				return err
			}
			ids = append(ids, r.ID)

			if err := storeAllergyData(ctx, tx, r.ID, child, party, now); err != nil {
				return err
			}
		}

		// The submitted list is authoritative: everything not retained goes.
		for _, r := range existing {
			if retained[r.ID] {
				continue
			}
			if err := tx.AllergyData().DeleteAllergyDataByResponse(ctx, r.ID); err != nil {
				return err
			}
			if err := tx.Responses().DeleteResponse(ctx, r.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, party, parent, children, emailToken, true)

	return ids, nil
}

// storeAllergyData inserts an encrypted allergy row when, and only when,
// the child attends, the parent consented and there is something to store.
// Without consent the details are discarded, never persisted.
func storeAllergyData(ctx context.Context, tx store.Tx, responseID string, child ChildEntry, party domain.Party, now time.Time) error {
	payload := domain.AllergyPayload{
		Allergies:    child.Allergies,
		OtherDietary: child.OtherDietary,
	}
	if !child.Attending || !child.AllergyConsent || payload.Empty() {
		return nil
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode allergy payload: %w", err)
	}
	sealed, err := cryptox.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt allergy payload: %w", err)
	}

	return tx.AllergyData().CreateAllergyData(ctx, domain.AllergyData{
		ID:           idx.New().String(),
		ResponseID:   responseID,
		Sealed:       sealed,
		ConsentAt:    now,
		AutoDeleteAt: party.AllergyDeleteAt(),
		CreatedAt:    now,
	})
}

func (s *RSVPService) sendConfirmation(ctx context.Context, party domain.Party, parent ParentInfo, children []ChildEntry, editToken string, updated bool) {
	if s.Mailer == nil {
		return
	}

	names := make([]string, 0, len(children))
	anyAttending := false
	for _, c := range children {
		names = append(names, c.ChildName)
		if c.Attending {
			anyAttending = true
		}
	}

	msg := notify.ConfirmationEmail{
		To:             parent.Email,
		ParentName:     parent.Name,
		PartyChildName: party.ChildName,
		PartyDate:      party.Date,
		ChildNames:     names,
		AnyAttending:   anyAttending,
		EditURL:        fmt.Sprintf("%s/rsvp/edit?token=%s", s.BaseURL, editToken),
		Updated:        updated,
	}

	l := slogx.FromContext(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Mailer.SendConfirmation(ctx, msg); err != nil {
			l.Error("failed to send confirmation email", slog.Any("error", err))
		}
	}()
}

func validateChildren(children []ChildEntry, allowIDs bool) error {
	if len(children) == 0 || len(children) > MaxChildrenPerResponse {
		return ErrInvalidChildren
	}
	for _, c := range children {
		if c.ChildName == "" {
			return ErrInvalidChildren
		}
		if !allowIDs && c.ID != "" {
			return ErrInvalidChildren
		}
	}
	return nil
}

func normalizeParent(parent ParentInfo) (ParentInfo, error) {
	parent.Email = domain.NormalizeEmail(parent.Email)
	if parent.Email == "" {
		return parent, ErrMissingParentEmail
	}
	if parent.Phone != "" {
		normalized, err := phone.Normalize(parent.Phone)
		if err != nil {
			return parent, ErrInvalidPhone
		}
		parent.Phone = normalized
	}
	return parent, nil
}
