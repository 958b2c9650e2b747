package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
)

type partiesRepo struct {
	db dbtx
}

const partyColumns = `id, owner_id, child_name, child_age, date, start_time, end_time,
	venue, address, theme, rsvp_deadline, created_at, updated_at`

func scanParty(row interface{ Scan(...any) error }) (domain.Party, error) {
	var p domain.Party
	var deadline sql.NullTime
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.ChildName, &p.ChildAge, &p.Date, &p.StartTime, &p.EndTime,
		&p.Venue, &p.Address, &p.Theme, &deadline, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Party{}, err
	}
	p.RSVPDeadline = mapNullTimePtr(deadline)
	return p, nil
}

func (r *partiesRepo) CreateParty(ctx context.Context, p domain.Party) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO parties (id, owner_id, child_name, child_age, date, start_time, end_time,
			venue, address, theme, rsvp_deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.ChildName, p.ChildAge, p.Date, p.StartTime, p.EndTime,
		p.Venue, p.Address, p.Theme, mapOptionalTime(p.RSVPDeadline), now, now,
	)
	return err
}

func (r *partiesRepo) GetPartyByID(ctx context.Context, id string) (domain.Party, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = ?`, id)
	p, err := scanParty(row)
	if err != nil {
		return domain.Party{}, mapNotFound(err)
	}
	return p, nil
}

func (r *partiesRepo) ListPartiesByOwner(ctx context.Context, ownerID string) ([]domain.Party, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParties(rows)
}

func (r *partiesRepo) ListAllParties(ctx context.Context) ([]domain.Party, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+partyColumns+` FROM parties ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParties(rows)
}

func collectParties(rows *sql.Rows) ([]domain.Party, error) {
	var parties []domain.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

func (r *partiesRepo) UpdateParty(ctx context.Context, p domain.Party) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parties
		SET child_name = ?, child_age = ?, date = ?, start_time = ?, end_time = ?,
			venue = ?, address = ?, theme = ?, rsvp_deadline = ?, updated_at = ?
		WHERE id = ?`,
		p.ChildName, p.ChildAge, p.Date, p.StartTime, p.EndTime,
		p.Venue, p.Address, p.Theme, mapOptionalTime(p.RSVPDeadline), time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *partiesRepo) DeleteParty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM parties WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// requireAffected maps "zero rows touched" to store.ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
