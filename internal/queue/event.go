// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// UserRegisteredEvent is published after a successful registration.  It
// carries enough identity for downstream consumers (audit log, welcome
// mail, analytics) without a read back to the primary database.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	RegisteredAt string `json:"registered_at"`
}
