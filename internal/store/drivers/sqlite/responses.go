package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
)

type responsesRepo struct {
	db dbtx
}

const responseColumns = `id, invitation_id, child_name, attending, parent_name, parent_email,
	parent_phone, message, edit_token, created_at, updated_at`

func scanResponse(row interface{ Scan(...any) error }) (domain.RsvpResponse, error) {
	var resp domain.RsvpResponse
	err := row.Scan(
		&resp.ID, &resp.InvitationID, &resp.ChildName, &resp.Attending, &resp.ParentName,
		&resp.ParentEmail, &resp.ParentPhone, &resp.Message, &resp.EditToken,
		&resp.CreatedAt, &resp.UpdatedAt,
	)
	return resp, err
}

func (r *responsesRepo) CreateResponse(ctx context.Context, resp domain.RsvpResponse) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rsvp_responses (id, invitation_id, child_name, attending, parent_name,
			parent_email, parent_phone, message, edit_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.ID, resp.InvitationID, resp.ChildName, resp.Attending, resp.ParentName,
		resp.ParentEmail, resp.ParentPhone, resp.Message, resp.EditToken, now, now,
	)
	return err
}

func (r *responsesRepo) GetResponseByEditToken(ctx context.Context, token string) (domain.RsvpResponse, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+responseColumns+` FROM rsvp_responses WHERE edit_token = ?`, token)
	resp, err := scanResponse(row)
	if err != nil {
		return domain.RsvpResponse{}, mapNotFound(err)
	}
	return resp, nil
}

func (r *responsesRepo) ListSiblingSet(ctx context.Context, invitationID, parentEmail string) ([]domain.RsvpResponse, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+responseColumns+` FROM rsvp_responses
		WHERE invitation_id = ? AND parent_email = ?
		ORDER BY created_at ASC`, invitationID, parentEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResponses(rows)
}

func (r *responsesRepo) CountByInvitationParent(ctx context.Context, invitationID, parentEmail string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM rsvp_responses
		WHERE invitation_id = ? AND parent_email = ?`, invitationID, parentEmail,
	).Scan(&count)
	return count, err
}

func (r *responsesRepo) ListResponsesByParty(ctx context.Context, partyID string) ([]domain.RsvpResponse, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.invitation_id, r.child_name, r.attending, r.parent_name, r.parent_email,
			r.parent_phone, r.message, r.edit_token, r.created_at, r.updated_at
		FROM rsvp_responses r
		JOIN invitations i ON i.id = r.invitation_id
		WHERE i.party_id = ?
		ORDER BY r.parent_email, r.created_at ASC`, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResponses(rows)
}

func collectResponses(rows *sql.Rows) ([]domain.RsvpResponse, error) {
	var responses []domain.RsvpResponse
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func (r *responsesRepo) UpdateResponse(ctx context.Context, resp domain.RsvpResponse) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rsvp_responses
		SET child_name = ?, attending = ?, parent_name = ?, parent_email = ?,
			parent_phone = ?, message = ?, updated_at = ?
		WHERE id = ?`,
		resp.ChildName, resp.Attending, resp.ParentName, resp.ParentEmail,
		resp.ParentPhone, resp.Message, time.Now().UTC(),
		resp.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *responsesRepo) DeleteResponse(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rsvp_responses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
