package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Astonie/schoolyathu/rbac"
)

// Subject is what the issuer needs to know about a user to sign a credential.
type Subject struct {
	UserID   uuid.UUID
	Email    string
	Role     rbac.Role
	SchoolID uuid.NullUUID
}

// HMACConfig configures HS256 credentials issued by this service.
type HMACConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration
	// Now overrides the clock in tests
	Now func() time.Time
}

// HMACTokens issues and verifies HS256 credentials.
type HMACTokens struct {
	cfg HMACConfig
}

// NewHMACTokens creates an issuer/verifier pair sharing one secret.
func NewHMACTokens(cfg HMACConfig) (*HMACTokens, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hmac secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HMACTokens{cfg: cfg}, nil
}

// TTL returns how long issued credentials stay valid.
func (h *HMACTokens) TTL() time.Duration {
	return h.cfg.TTL
}

// Issue signs a new credential for subject.
func (h *HMACTokens) Issue(subject Subject) (string, *Claims, error) {
	if !subject.Role.Valid() {
		return "", nil, rbac.ErrInvalidRole
	}

	now := h.cfg.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject.UserID.String(),
			Issuer:    h.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.TTL)),
		},
		Email: subject.Email,
		Role:  subject.Role.String(),
	}
	if h.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{h.cfg.Audience}
	}
	if subject.SchoolID.Valid {
		claims.SchoolID = subject.SchoolID.UUID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.cfg.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry.
func (h *HMACTokens) Verify(_ context.Context, raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(h.cfg.Leeway),
		jwt.WithTimeFunc(h.cfg.Now),
	}
	if h.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.cfg.Issuer))
	}
	if h.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(h.cfg.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return h.cfg.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
