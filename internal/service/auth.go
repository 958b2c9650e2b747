package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/kalaskoll/kalaskoll/pkg/cryptox"
	"github.com/kalaskoll/kalaskoll/pkg/idx"
	"github.com/kalaskoll/kalaskoll/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrWeakPassword       = errors.New("weak_password")
	ErrTOTPRequired       = errors.New("totp_required")
	ErrInvalidTOTPCode    = errors.New("invalid_totp_code")
	ErrInvalidRole        = errors.New("invalid_role")
)

const minPasswordLength = 8

// AuthService owns profile registration, login and the optional TOTP
// second factor. Sessions are stateless HS256 JWTs carrying the role claim.
type AuthService struct {
	Store  store.Store
	Signer *jwtx.Signer
	Issuer string
}

// Register creates a new owner profile. Testers and admins are promoted
// afterwards through the admin API, never self-service.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (domain.Profile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Profile{}, ErrInvalidCredentials
	}
	if len(password) < minPasswordLength {
		return domain.Profile{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Profile{}, err
	}

	now := time.Now()
	p := domain.Profile{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         domain.RoleOwner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Profiles().CreateProfile(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Profile{}, ErrEmailTaken
		}
		return domain.Profile{}, err
	}
	return p, nil
}

// Login verifies credentials and issues a session token. Profiles enrolled
// in TOTP must supply a current code; the first attempt without one gets
// ErrTOTPRequired so the client can prompt.
func (s *AuthService) Login(ctx context.Context, email, password, totpCode string) (string, domain.Profile, error) {
	email = domain.NormalizeEmail(email)

	p, err := s.Store.Profiles().GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same time as a real verification so lookups don't
			// reveal which emails exist.
			cryptox.VerifyPassword(password, fakePasswordHash)
			return "", domain.Profile{}, ErrInvalidCredentials
		}
		return "", domain.Profile{}, err
	}

	if err := cryptox.VerifyPassword(password, p.PasswordHash); err != nil {
		return "", domain.Profile{}, ErrInvalidCredentials
	}

	if p.TOTPSecret != "" {
		if totpCode == "" {
			return "", domain.Profile{}, ErrTOTPRequired
		}
		if !totp.Validate(totpCode, p.TOTPSecret) {
			return "", domain.Profile{}, ErrInvalidTOTPCode
		}
	}

	token, err := s.Signer.Sign(p.ID, p.Email, string(p.Role), time.Now())
	if err != nil {
		return "", domain.Profile{}, err
	}
	return token, p, nil
}

// EnrollTOTP generates a new TOTP key for the profile. The secret is not
// persisted yet; the client must prove possession via ConfirmTOTP.
func (s *AuthService) EnrollTOTP(ctx context.Context, profileID string) (*otp.Key, error) {
	p, err := s.Store.Profiles().GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	return totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: p.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

// ConfirmTOTP activates the second factor once the client proves it can
// produce codes for the pending secret.
func (s *AuthService) ConfirmTOTP(ctx context.Context, profileID, secret, code string) error {
	if !totp.Validate(code, secret) {
		return ErrInvalidTOTPCode
	}
	return s.Store.Profiles().UpdateTOTPSecret(ctx, profileID, secret)
}

// SetRole is the admin promotion path (owner -> tester, tester -> owner,
// admin grants).
func (s *AuthService) SetRole(ctx context.Context, profileID string, role domain.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return s.Store.Profiles().UpdateProfileRole(ctx, profileID, role)
}

// ListProfiles is the admin account overview.
func (s *AuthService) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	return s.Store.Profiles().ListProfiles(ctx)
}

// fakePasswordHash is a valid argon2id hash of a random throwaway value,
// used to keep login timing uniform when the email is unknown.
const fakePasswordHash = "$argon2id$v=19$m=65536,t=2,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
