package session

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AlgorithmVerifier routes each credential to the verifier registered for
// the signing algorithm in its header. Credentials naming any other
// algorithm are rejected before a key is looked up.
type AlgorithmVerifier struct {
	verifiers map[string]Verifier
	parser    *jwt.Parser
}

// NewAlgorithmVerifier returns a verifier with no algorithms registered
func NewAlgorithmVerifier() *AlgorithmVerifier {
	return &AlgorithmVerifier{
		verifiers: make(map[string]Verifier),
		parser:    jwt.NewParser(),
	}
}

// Register routes credentials signed with alg to verifier
func (a *AlgorithmVerifier) Register(alg string, verifier Verifier) *AlgorithmVerifier {
	a.verifiers[alg] = verifier
	return a
}

// Len returns the number of registered algorithms
func (a *AlgorithmVerifier) Len() int {
	return len(a.verifiers)
}

// Verify reads the unverified header to pick a verifier, which then checks
// the credential in full.
func (a *AlgorithmVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, _, err := a.parser.ParseUnverified(raw, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	alg := token.Method.Alg()
	verifier, ok := a.verifiers[alg]
	if !ok {
		return nil, fmt.Errorf("%w: signing method %s is not accepted", ErrInvalidToken, alg)
	}
	return verifier.Verify(ctx, raw)
}
