package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type smsUsageRepo struct {
	db dbtx
}

func (r *smsUsageRepo) GetSmsCount(ctx context.Context, partyID, month string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count FROM sms_usage WHERE party_id = ? AND month = ?`, partyID, month,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

func (r *smsUsageRepo) IncrementSmsCount(ctx context.Context, partyID, month string, n int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sms_usage (party_id, month, count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (party_id, month) DO UPDATE SET
			count = count + excluded.count,
			updated_at = excluded.updated_at`,
		partyID, month, n, time.Now().UTC(),
	)
	return err
}

func (r *smsUsageRepo) DeleteSmsUsageBefore(ctx context.Context, month string) error {
	// Month keys are "2006-01", so string comparison matches chronology.
	_, err := r.db.ExecContext(ctx, `DELETE FROM sms_usage WHERE month < ?`, month)
	return err
}
