package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/utils"
)

// Caller is the authenticated identity behind a service call together
// with the data filter derived from it.
type Caller struct {
	Identity rbac.Identity
	Filter   rbac.TenantFilter
}

// CallerFromContext reads the caller the request middleware attached.
func CallerFromContext(ctx context.Context) (Caller, error) {
	id, err := rbac.RequireAuthenticated(ctx)
	if err != nil {
		return Caller{}, Denied(err)
	}
	filter, ok := rbac.TenantFilterFromContext(ctx)
	if !ok {
		// The middleware always attaches both; derive it rather than run unscoped.
		filter, err = rbac.ScopeFilter(id)
		if err != nil {
			return Caller{}, Denied(err)
		}
	}
	return Caller{Identity: id, Filter: filter}, nil
}

// NewCaller builds a caller for id, failing when no filter can be derived
func NewCaller(id rbac.Identity) (Caller, error) {
	filter, err := rbac.ScopeFilter(id)
	if err != nil {
		return Caller{}, Denied(err)
	}
	return Caller{Identity: id, Filter: filter}, nil
}

// targetSchool picks the school a write applies to: the explicit one if
// given, else the caller's own. Explicit schools are checked before use.
func (c Caller) targetSchool(explicit *uuid.UUID) (uuid.UUID, error) {
	if explicit == nil {
		if own, ok := c.Identity.Tenant(); ok {
			return own, nil
		}
		return uuid.Nil, NewDomainError(ErrorTypeValidation, "school_id is required", nil).
			WithDetail("fields", map[string]string{"school_id": "school_id is required"})
	}
	if _, err := rbac.RequireTenantAccess(c.Identity, *explicit); err != nil {
		return uuid.Nil, Denied(err)
	}
	return *explicit, nil
}

// validate runs struct validation and converts failures to a domain error
func validate(input interface{}) error {
	if err := utils.ValidateStruct(input); err != nil {
		de := NewDomainError(ErrorTypeValidation, ErrInvalidInput.Message, err)
		if fields := utils.GetValidationFields(err); fields != nil {
			de.WithDetail("fields", fields)
		}
		return de
	}
	return nil
}
