package sqlite

import (
	"context"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
)

type invitationsRepo struct {
	db dbtx
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, party_id, token, created_at)
		VALUES (?, ?, ?, ?)`,
		inv.ID, inv.PartyID, inv.Token, time.Now().UTC(),
	)
	return err
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.QueryRowContext(ctx, `
		SELECT id, party_id, token, created_at FROM invitations WHERE id = ?`, id,
	).Scan(&inv.ID, &inv.PartyID, &inv.Token, &inv.CreatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.QueryRowContext(ctx, `
		SELECT id, party_id, token, created_at FROM invitations WHERE token = ?`, token,
	).Scan(&inv.ID, &inv.PartyID, &inv.Token, &inv.CreatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) ListInvitationsByParty(ctx context.Context, partyID string) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, party_id, token, created_at
		FROM invitations WHERE party_id = ? ORDER BY created_at DESC`, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []domain.Invitation
	for rows.Next() {
		var inv domain.Invitation
		if err := rows.Scan(&inv.ID, &inv.PartyID, &inv.Token, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
