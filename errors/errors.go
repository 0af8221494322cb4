// Package errors defines the typed failures shared by the services, the
// session registry and the HTTP layer. The router is the only place that
// translates them into status codes.
package errors

import "fmt"

var (
	ErrValidation         = fmt.Errorf("invalid input")
	ErrConflict           = fmt.Errorf("conflicting unique field")
	ErrNotFound           = fmt.Errorf("not found")
	ErrPermission         = fmt.Errorf("permission denied")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Bearer-token failures, in the order the middleware checks them.
	ErrAuthMissing = fmt.Errorf("missing bearer token")
	ErrAuthInvalid = fmt.Errorf("invalid bearer token")
	ErrAuthExpired = fmt.Errorf("expired bearer token")

	// ErrDuplicateKey signals an identifier collision inside the store.
	// Allocation makes this unreachable in practice; if it surfaces, the
	// allocator is broken and callers must not treat it as success.
	ErrDuplicateKey = fmt.Errorf("duplicate identifier")

	// ErrPersistence marks an unreadable snapshot artifact. Fatal at startup.
	ErrPersistence = fmt.Errorf("snapshot unreadable")
)
