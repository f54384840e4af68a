package rbac

import "context"

// Context key type to avoid collisions
type contextKey string

const (
	identityKey     contextKey = "rbac_identity"
	tenantFilterKey contextKey = "rbac_tenant_filter"
)

// WithIdentity attaches a verified identity to the context
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by the request middleware
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithTenantFilter attaches the identity's data filter to the context
func WithTenantFilter(ctx context.Context, f TenantFilter) context.Context {
	return context.WithValue(ctx, tenantFilterKey, f)
}

// TenantFilterFromContext returns the data filter for the request. A missing
// filter yields the invalid zero value.
func TenantFilterFromContext(ctx context.Context) (TenantFilter, bool) {
	f, ok := ctx.Value(tenantFilterKey).(TenantFilter)
	return f, ok && f.Valid()
}
