package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/store"
)

type profilesRepo struct {
	db dbtx
}

const profileColumns = `id, email, name, password_hash, role, totp_secret,
	free_sms_used, free_images_used, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (domain.Profile, error) {
	var p domain.Profile
	var role string
	err := row.Scan(
		&p.ID, &p.Email, &p.Name, &p.PasswordHash, &role, &p.TOTPSecret,
		&p.FreeSMSUsed, &p.FreeImagesUsed, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Role = domain.Role(role)
	return p, err
}

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, name, password_hash, role, totp_secret,
			free_sms_used, free_images_used, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.Name, p.PasswordHash, string(p.Role), p.TOTPSecret,
		p.FreeSMSUsed, p.FreeImagesUsed, now, now,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *profilesRepo) GetProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *profilesRepo) GetProfileByEmail(ctx context.Context, email string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = ?`, email)
	p, err := scanProfile(row)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *profilesRepo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profilesRepo) UpdateTOTPSecret(ctx context.Context, profileID, secret string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET totp_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), profileID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *profilesRepo) UpdateProfileRole(ctx context.Context, profileID string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC(), profileID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *profilesRepo) IncrementFreeSMSUsed(ctx context.Context, profileID string, n int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET free_sms_used = free_sms_used + ?, updated_at = ? WHERE id = ?`,
		n, time.Now().UTC(), profileID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *profilesRepo) IncrementFreeImagesUsed(ctx context.Context, profileID string, n int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET free_images_used = free_images_used + ?, updated_at = ? WHERE id = ?`,
		n, time.Now().UTC(), profileID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
