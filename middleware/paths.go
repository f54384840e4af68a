package middleware

import "strings"

const (
	// SignInPath is where unauthenticated page requests are sent
	SignInPath = "/auth/signin"
	// ErrorPath shows a denial reason to page requests
	ErrorPath = "/auth/error"
)

var publicExact = map[string]struct{}{
	"/":            {},
	"/healthz":     {},
	"/readyz":      {},
	"/favicon.ico": {},
	"/auth":        {},
	"/api/auth":    {},
}

var publicPrefixes = []string{
	"/auth/",
	"/api/auth/",
	"/static/",
}

// identityHeaders must never be trusted from clients; identity travels in
// the request context only.
var identityHeaders = []string{
	"X-User-Id",
	"X-User-Role",
	"X-School-Id",
}

// IsPublicPath reports whether path bypasses authentication.
func IsPublicPath(path string) bool {
	if _, ok := publicExact[path]; ok {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// IsAPIPath reports whether path is served as JSON rather than pages.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
