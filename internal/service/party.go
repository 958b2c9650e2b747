package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/kalaskoll/kalaskoll/pkg/cryptox"
	"github.com/kalaskoll/kalaskoll/pkg/idx"
)

var (
	ErrPartyNotFound = errors.New("party_not_found")
	ErrNotPartyOwner = errors.New("not_party_owner")
	ErrInvalidParty  = errors.New("invalid_party")
)

// PartyInput carries the owner-editable fields of a party.
type PartyInput struct {
	ChildName    string
	ChildAge     int
	Date         time.Time
	StartTime    string
	EndTime      string
	Venue        string
	Address      string
	Theme        string
	RSVPDeadline *time.Time
}

// GuestEntry is one family's answer on the owner's guest list. Allergy
// details stay sealed here; the list shows attendance only.
type GuestEntry struct {
	ParentName  string
	ParentEmail string
	ParentPhone string
	Message     string
	Children    []GuestChild
	RespondedAt time.Time
}

type GuestChild struct {
	Name      string
	Attending bool
}

// PartyService implements owner CRUD for parties and invitations plus the
// guest-list overview. Every operation checks ownership unless the caller
// is an admin.
type PartyService struct {
	Store store.Store
}

func (s *PartyService) CreateParty(ctx context.Context, ownerID string, in PartyInput) (domain.Party, error) {
	if in.ChildName == "" || in.Date.IsZero() {
		return domain.Party{}, ErrInvalidParty
	}

	now := time.Now()
	p := domain.Party{
		ID:           idx.New().String(),
		OwnerID:      ownerID,
		ChildName:    in.ChildName,
		ChildAge:     in.ChildAge,
		Date:         in.Date,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Venue:        in.Venue,
		Address:      in.Address,
		Theme:        in.Theme,
		RSVPDeadline: in.RSVPDeadline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Parties().CreateParty(ctx, p); err != nil {
		return domain.Party{}, err
	}
	return p, nil
}

func (s *PartyService) GetParty(ctx context.Context, callerID string, callerRole domain.Role, partyID string) (domain.Party, error) {
	return s.ownedParty(ctx, callerID, callerRole, partyID)
}

func (s *PartyService) ListParties(ctx context.Context, ownerID string) ([]domain.Party, error) {
	return s.Store.Parties().ListPartiesByOwner(ctx, ownerID)
}

// ListAllParties is the admin overview across all owners.
func (s *PartyService) ListAllParties(ctx context.Context) ([]domain.Party, error) {
	return s.Store.Parties().ListAllParties(ctx)
}

func (s *PartyService) UpdateParty(ctx context.Context, callerID string, callerRole domain.Role, partyID string, in PartyInput) (domain.Party, error) {
	p, err := s.ownedParty(ctx, callerID, callerRole, partyID)
	if err != nil {
		return domain.Party{}, err
	}
	if in.ChildName == "" || in.Date.IsZero() {
		return domain.Party{}, ErrInvalidParty
	}

	p.ChildName = in.ChildName
	p.ChildAge = in.ChildAge
	p.Date = in.Date
	p.StartTime = in.StartTime
	p.EndTime = in.EndTime
	p.Venue = in.Venue
	p.Address = in.Address
	p.Theme = in.Theme
	p.RSVPDeadline = in.RSVPDeadline
	p.UpdatedAt = time.Now()

	if err := s.Store.Parties().UpdateParty(ctx, p); err != nil {
		return domain.Party{}, err
	}
	return p, nil
}

// DeleteParty removes the party and, via foreign keys, its invitations,
// responses and allergy data.
func (s *PartyService) DeleteParty(ctx context.Context, callerID string, callerRole domain.Role, partyID string) error {
	if _, err := s.ownedParty(ctx, callerID, callerRole, partyID); err != nil {
		return err
	}
	return s.Store.Parties().DeleteParty(ctx, partyID)
}

// CreateInvitation mints a new shareable invitation token for the party.
func (s *PartyService) CreateInvitation(ctx context.Context, callerID string, callerRole domain.Role, partyID string) (domain.Invitation, error) {
	if _, err := s.ownedParty(ctx, callerID, callerRole, partyID); err != nil {
		return domain.Invitation{}, err
	}

	token, err := cryptox.NewInviteToken()
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("mint invitation token: %w", err)
	}

	inv := domain.Invitation{
		ID:        idx.New().String(),
		PartyID:   partyID,
		Token:     token,
		CreatedAt: time.Now(),
	}
	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		return domain.Invitation{}, err
	}
	return inv, nil
}

func (s *PartyService) ListInvitations(ctx context.Context, callerID string, callerRole domain.Role, partyID string) ([]domain.Invitation, error) {
	if _, err := s.ownedParty(ctx, callerID, callerRole, partyID); err != nil {
		return nil, err
	}
	return s.Store.Invitations().ListInvitationsByParty(ctx, partyID)
}

// GuestList groups the party's responses per family, most recent group
// first.
func (s *PartyService) GuestList(ctx context.Context, callerID string, callerRole domain.Role, partyID string) ([]GuestEntry, error) {
	if _, err := s.ownedParty(ctx, callerID, callerRole, partyID); err != nil {
		return nil, err
	}

	responses, err := s.Store.Responses().ListResponsesByParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string]*GuestEntry)
	var order []string
	for _, r := range responses {
		key := r.InvitationID + "|" + r.ParentEmail
		entry, ok := byParent[key]
		if !ok {
			entry = &GuestEntry{
				ParentName:  r.ParentName,
				ParentEmail: r.ParentEmail,
				ParentPhone: r.ParentPhone,
				Message:     r.Message,
				RespondedAt: r.CreatedAt,
			}
			byParent[key] = entry
			order = append(order, key)
		}
		entry.Children = append(entry.Children, GuestChild{Name: r.ChildName, Attending: r.Attending})
	}

	out := make([]GuestEntry, 0, len(order))
	for _, key := range order {
		out = append(out, *byParent[key])
	}
	return out, nil
}

// ownedParty fetches the party and enforces ownership. Admins see every
// party.
func (s *PartyService) ownedParty(ctx context.Context, callerID string, callerRole domain.Role, partyID string) (domain.Party, error) {
	p, err := s.Store.Parties().GetPartyByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Party{}, ErrPartyNotFound
		}
		return domain.Party{}, err
	}
	if callerRole != domain.RoleAdmin && p.OwnerID != callerID {
		return domain.Party{}, ErrNotPartyOwner
	}
	return p, nil
}
