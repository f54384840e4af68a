package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Astonie/schoolyathu/rbac"
)

func newTestTokens(t *testing.T, now time.Time) *HMACTokens {
	tokens, err := NewHMACTokens(HMACConfig{
		Secret:   []byte("test-secret-that-is-long-enough-32b"),
		Issuer:   "schoolyathu",
		Audience: "schoolyathu-api",
		TTL:      time.Hour,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return tokens
}

func TestNewHMACTokens(t *testing.T) {
	_, err := NewHMACTokens(HMACConfig{})
	assert.Error(t, err)

	tokens, err := NewHMACTokens(HMACConfig{Secret: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, tokens.TTL())
}

func TestHMACTokens_IssueAndVerify(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, now)
	school := uuid.New()
	userID := uuid.New()

	raw, issued, err := tokens.Issue(Subject{
		UserID:   userID,
		Email:    "teacher@example.com",
		Role:     rbac.RoleStaff,
		SchoolID: uuid.NullUUID{UUID: school, Valid: true},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := tokens.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "TEACHER", claims.Role)
	assert.Equal(t, school.String(), claims.SchoolID)

	id, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleStaff, id.Role)
	tenant, ok := id.Tenant()
	require.True(t, ok)
	assert.Equal(t, school, tenant)
	assert.Equal(t, issued.ID, id.SessionID)
	assert.Equal(t, "teacher@example.com", id.Email)
}

func TestHMACTokens_IssueWithoutSchool(t *testing.T) {
	tokens := newTestTokens(t, time.Now())
	raw, _, err := tokens.Issue(Subject{UserID: uuid.New(), Role: rbac.RoleGlobalAdmin})
	require.NoError(t, err)

	claims, err := tokens.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, claims.SchoolID)

	id, err := claims.Identity()
	require.NoError(t, err)
	_, ok := id.Tenant()
	assert.False(t, ok)
}

func TestHMACTokens_IssueRejectsUnknownRole(t *testing.T) {
	tokens := newTestTokens(t, time.Now())
	_, _, err := tokens.Issue(Subject{UserID: uuid.New()})
	assert.ErrorIs(t, err, rbac.ErrInvalidRole)
}

func TestHMACTokens_Verify(t *testing.T) {
	now := time.Now()
	tokens := newTestTokens(t, now)

	t.Run("expired", func(t *testing.T) {
		past := newTestTokens(t, now.Add(-2*time.Hour))
		raw, _, err := past.Issue(Subject{UserID: uuid.New(), Role: rbac.RoleStaff})
		require.NoError(t, err)

		_, err = tokens.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewHMACTokens(HMACConfig{
			Secret:   []byte("another-secret"),
			Issuer:   "schoolyathu",
			Audience: "schoolyathu-api",
		})
		require.NoError(t, err)
		raw, _, err := other.Issue(Subject{UserID: uuid.New(), Role: rbac.RoleStaff})
		require.NoError(t, err)

		_, err = tokens.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewHMACTokens(HMACConfig{
			Secret:   []byte("test-secret-that-is-long-enough-32b"),
			Issuer:   "someone-else",
			Audience: "schoolyathu-api",
		})
		require.NoError(t, err)
		raw, _, err := other.Issue(Subject{UserID: uuid.New(), Role: rbac.RoleStaff})
		require.NoError(t, err)

		_, err = tokens.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "schoolyathu",
				Audience:  jwt.ClaimStrings{"schoolyathu-api"},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Role: "SUPER_ADMIN",
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry is rejected", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:  uuid.NewString(),
				Issuer:   "schoolyathu",
				Audience: jwt.ClaimStrings{"schoolyathu-api"},
			},
			Role: "TEACHER",
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-that-is-long-enough-32b"))
		require.NoError(t, err)

		_, err = tokens.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Verify(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaimsIdentity(t *testing.T) {
	t.Run("unknown role", func(t *testing.T) {
		c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}, Role: "JANITOR"}
		_, err := c.Identity()
		assert.ErrorIs(t, err, rbac.ErrInvalidRole)
	})

	t.Run("missing subject", func(t *testing.T) {
		c := &Claims{Role: "TEACHER"}
		_, err := c.Identity()
		assert.ErrorIs(t, err, ErrMissingClaim)
	})

	t.Run("malformed school id", func(t *testing.T) {
		c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}, Role: "TEACHER", SchoolID: "school-1"}
		_, err := c.Identity()
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
