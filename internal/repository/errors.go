// Package repository holds the MySQL-backed account store and the Redis
// profile cache. The sentinel values below let higher layers tell failure
// scenarios apart without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned by Create when the normalized email is already
// registered. The unique index on users.email is the enforcement point, so
// concurrent registrations for one address cannot both succeed.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no account matches the lookup key.
var ErrUserNotFound = errors.New("user not found")

// ErrPendingWhileVerified guards the invariant that a verified account carries
// no outstanding verification code.
var ErrPendingWhileVerified = errors.New("verified user cannot hold a pending code")
