package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/rbac"
)

// DefaultVerifyTimeout bounds credential verification when none is configured.
const DefaultVerifyTimeout = 3 * time.Second

// Verifier checks a raw credential and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// Resolver turns a raw credential into an identity. It reads the role and
// school from the credential only and never consults the user store.
type Resolver struct {
	verifier  Verifier
	blocklist Blocklist
	timeout   time.Duration
	logger    *zap.Logger
}

// NewResolver creates a resolver. blocklist may be nil when revocation is
// not configured.
func NewResolver(verifier Verifier, blocklist Blocklist, timeout time.Duration, logger *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &Resolver{
		verifier:  verifier,
		blocklist: blocklist,
		timeout:   timeout,
		logger:    logger,
	}
}

type verifyResult struct {
	claims *Claims
	err    error
}

// Resolve verifies raw and returns the caller's identity.
//
// Every failure other than an unknown role is reported as
// rbac.ErrCredentialInvalid, including verification that does not finish
// within the resolver's timeout.
func (r *Resolver) Resolve(ctx context.Context, raw string) (rbac.Identity, error) {
	if raw == "" {
		return rbac.Identity{}, rbac.ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan verifyResult, 1)
	go func() {
		claims, err := r.verifier.Verify(ctx, raw)
		done <- verifyResult{claims: claims, err: err}
	}()

	var res verifyResult
	select {
	case <-ctx.Done():
		r.logger.Warn("credential verification timed out", zap.Duration("timeout", r.timeout))
		return rbac.Identity{}, fmt.Errorf("%w: %v", rbac.ErrCredentialInvalid, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return rbac.Identity{}, fmt.Errorf("%w: %v", rbac.ErrCredentialInvalid, res.err)
	}

	id, err := res.claims.Identity()
	if err != nil {
		if errors.Is(err, rbac.ErrInvalidRole) {
			return rbac.Identity{}, err
		}
		return rbac.Identity{}, fmt.Errorf("%w: %v", rbac.ErrCredentialInvalid, err)
	}

	if r.blocklist != nil && id.SessionID != "" {
		blocked, err := r.blocklist.IsBlocked(ctx, id.SessionID)
		if err != nil {
			r.logger.Error("blocklist unavailable", zap.Error(err))
			return rbac.Identity{}, fmt.Errorf("%w: %v", rbac.ErrCredentialInvalid, err)
		}
		if blocked {
			return rbac.Identity{}, fmt.Errorf("%w: %v", rbac.ErrCredentialInvalid, ErrTokenRevoked)
		}
	}

	return id, nil
}

// Revoke signs out the session behind id until its credential expires.
// Credentials without a session id cannot be revoked and are left to
// expire.
func (r *Resolver) Revoke(ctx context.Context, id rbac.Identity) error {
	if r.blocklist == nil {
		return nil
	}
	if id.SessionID == "" {
		r.logger.Debug("credential has no session id, nothing to revoke",
			zap.String("user_id", id.UserID.String()))
		return nil
	}
	return r.blocklist.Block(ctx, id.SessionID, id.ExpiresAt)
}
