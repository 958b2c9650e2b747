package store

import (
	"context"
	"errors"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. Sub-repositories keep the per-aggregate concerns tidy and
// let services run multi-step mutations through one Tx-scoped Store.
type Store interface {
	Parties() Parties
	Invitations() Invitations
	Responses() Responses
	AllergyData() AllergyData
	Profiles() Profiles
	SmsUsage() SmsUsage

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Multi-row sequences such as the RSVP
	// sibling reconciliation go through here so a crash mid-sequence never
	// leaves a partially-applied edit.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repositories plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Parties interface {
	// CreateParty inserts a new party (id is provided by the app via ULID).
	CreateParty(ctx context.Context, p domain.Party) error

	GetPartyByID(ctx context.Context, id string) (domain.Party, error)

	// ListPartiesByOwner returns the owner's parties, newest first.
	ListPartiesByOwner(ctx context.Context, ownerID string) ([]domain.Party, error)

	// ListAllParties is the admin overview across owners.
	ListAllParties(ctx context.Context) ([]domain.Party, error)

	UpdateParty(ctx context.Context, p domain.Party) error

	// DeleteParty cascades to invitations, responses and allergy data.
	DeleteParty(ctx context.Context, id string) error
}

type Invitations interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetInvitationByToken resolves the opaque guest-facing token.
	GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error)

	ListInvitationsByParty(ctx context.Context, partyID string) ([]domain.Invitation, error)

	DeleteInvitation(ctx context.Context, id string) error
}

type Responses interface {
	CreateResponse(ctx context.Context, r domain.RsvpResponse) error

	// GetResponseByEditToken anchors an edit; the row's invitation and
	// parent email derive the sibling set.
	GetResponseByEditToken(ctx context.Context, token string) (domain.RsvpResponse, error)

	// ListSiblingSet returns all responses sharing (invitationID,
	// parentEmail), oldest first.
	ListSiblingSet(ctx context.Context, invitationID, parentEmail string) ([]domain.RsvpResponse, error)

	// CountByInvitationParent backs the duplicate guard on first submission.
	CountByInvitationParent(ctx context.Context, invitationID, parentEmail string) (int, error)

	// ListResponsesByParty joins through invitations for the owner's guest list.
	ListResponsesByParty(ctx context.Context, partyID string) ([]domain.RsvpResponse, error)

	// UpdateResponse rewrites child and parent fields, bumps updated_at.
	// The edit token is immutable.
	UpdateResponse(ctx context.Context, r domain.RsvpResponse) error

	DeleteResponse(ctx context.Context, id string) error
}

type AllergyData interface {
	CreateAllergyData(ctx context.Context, a domain.AllergyData) error

	GetAllergyDataByResponse(ctx context.Context, responseID string) (domain.AllergyData, error)

	// DeleteAllergyDataByResponse is a no-op when no row exists; edits
	// always delete-then-maybe-insert.
	DeleteAllergyDataByResponse(ctx context.Context, responseID string) error

	// DeleteExpiredAllergyData removes rows past auto_delete_at and returns
	// how many were purged. Housekeeping.
	DeleteExpiredAllergyData(ctx context.Context, now time.Time) (int64, error)
}

type Profiles interface {
	CreateProfile(ctx context.Context, p domain.Profile) error

	GetProfileByID(ctx context.Context, id string) (domain.Profile, error)

	GetProfileByEmail(ctx context.Context, email string) (domain.Profile, error)

	ListProfiles(ctx context.Context) ([]domain.Profile, error)

	UpdateTOTPSecret(ctx context.Context, profileID, secret string) error

	// UpdateProfileRole is the admin promotion/demotion path.
	UpdateProfileRole(ctx context.Context, profileID string, role domain.Role) error

	// IncrementFreeSMSUsed / IncrementFreeImagesUsed bump the beta-tester
	// allowance counters.
	IncrementFreeSMSUsed(ctx context.Context, profileID string, n int) error
	IncrementFreeImagesUsed(ctx context.Context, profileID string, n int) error
}

type SmsUsage interface {
	// GetSmsCount returns the month's counter for a party, zero when no
	// row exists yet.
	GetSmsCount(ctx context.Context, partyID, month string) (int, error)

	// IncrementSmsCount upserts the (party, month) row and adds n.
	IncrementSmsCount(ctx context.Context, partyID, month string, n int) error

	// DeleteSmsUsageBefore drops counters from months older than the given
	// key. Housekeeping.
	DeleteSmsUsageBefore(ctx context.Context, month string) error
}
