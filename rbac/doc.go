// Package rbac holds the role and capability model for schools.
//
// It provides:
//   - the closed set of roles and capabilities
//   - the static role to capability table
//   - tenant scoping of data access per identity
//   - guards that return typed denials
//
// Nothing in this package performs I/O. Identities are produced by the
// session package and attached to requests by the middleware package.
package rbac
