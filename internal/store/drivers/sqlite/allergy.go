package sqlite

import (
	"context"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
)

type allergyRepo struct {
	db dbtx
}

func (r *allergyRepo) CreateAllergyData(ctx context.Context, a domain.AllergyData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO allergy_data (id, response_id, sealed, consent_at, auto_delete_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ResponseID, a.Sealed, a.ConsentAt, a.AutoDeleteAt, time.Now().UTC(),
	)
	return err
}

func (r *allergyRepo) GetAllergyDataByResponse(ctx context.Context, responseID string) (domain.AllergyData, error) {
	var a domain.AllergyData
	err := r.db.QueryRowContext(ctx, `
		SELECT id, response_id, sealed, consent_at, auto_delete_at, created_at
		FROM allergy_data WHERE response_id = ?`, responseID,
	).Scan(&a.ID, &a.ResponseID, &a.Sealed, &a.ConsentAt, &a.AutoDeleteAt, &a.CreatedAt)
	if err != nil {
		return domain.AllergyData{}, mapNotFound(err)
	}
	return a, nil
}

func (r *allergyRepo) DeleteAllergyDataByResponse(ctx context.Context, responseID string) error {
	// Deliberately tolerant of missing rows: edits always delete-then-insert.
	_, err := r.db.ExecContext(ctx, `DELETE FROM allergy_data WHERE response_id = ?`, responseID)
	return err
}

func (r *allergyRepo) DeleteExpiredAllergyData(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM allergy_data WHERE auto_delete_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
