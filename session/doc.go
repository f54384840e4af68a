// Package session verifies credentials and resolves them into identities.
//
// Credentials are JWTs carrying the user id, role and school. Tokens issued
// by this service are HS256; tokens from an external identity provider are
// RS256 and verified against its JWKS document. Signed-out sessions are kept
// in a Redis blocklist until the credential would have expired.
package session
