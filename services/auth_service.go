package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/repositories"
	"github.com/Astonie/schoolyathu/session"
)

// TokenIssuer signs credentials for authenticated users
type TokenIssuer interface {
	Issue(subject session.Subject) (string, *session.Claims, error)
}

// SessionRevoker ends a session before its credential expires
type SessionRevoker interface {
	Revoke(ctx context.Context, id rbac.Identity) error
}

// LoginInput is the sign-in request
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is a freshly issued credential
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthService verifies passwords and issues credentials
type AuthService struct {
	users     repositories.UserRepository
	issuer    TokenIssuer
	revoker   SessionRevoker
	logger    *zap.Logger
	dummyHash []byte
}

// NewAuthService creates a new AuthService
func NewAuthService(users repositories.UserRepository, issuer TokenIssuer, revoker SessionRevoker, logger *zap.Logger) *AuthService {
	// Compared against when the email is unknown so both paths cost one bcrypt check.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("schoolyathu-unknown-user"), bcrypt.DefaultCost)
	return &AuthService{
		users:     users,
		issuer:    issuer,
		revoker:   revoker,
		logger:    logger,
		dummyHash: dummy,
	}
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", WrapInternal("failed to hash password", err)
	}
	return string(hash), nil
}

// Login checks the password against the stored bcrypt hash and issues a
// credential. Unknown emails, inactive accounts and wrong passwords all
// return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(input.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
			s.logger.Info("login failed", zap.String("reason", "unknown_email"))
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.Info("login failed",
			zap.String("user_id", user.ID.String()),
			zap.String("reason", "password_mismatch"))
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		s.logger.Info("login failed",
			zap.String("user_id", user.ID.String()),
			zap.String("reason", "inactive"))
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.issuer.Issue(session.Subject{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		SchoolID: user.SchoolID,
	})
	if err != nil {
		return nil, WrapInternal("failed to issue credential", err)
	}

	s.logger.Info("login succeeded",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()))

	result := &LoginResult{Token: token, User: user}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

// Logout revokes the caller's session until its credential expires
func (s *AuthService) Logout(ctx context.Context, id rbac.Identity) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, id); err != nil {
		return WrapInternal("failed to revoke session", err)
	}
	s.logger.Info("session revoked", zap.String("user_id", id.UserID.String()))
	return nil
}
