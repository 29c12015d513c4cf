// Package repository implements persistence for accounts and subscriptions
// on top of database/sql.  Sentinel errors defined here let handlers map
// failure modes to HTTP statuses without inspecting driver errors.
package repository

import "errors"

// ErrUserExists is returned when an insert or update collides with the
// unique username or email index.  Handlers translate this into an
// HTTP 400 response.
var ErrUserExists = errors.New("username or email already exists")
