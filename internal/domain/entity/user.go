// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. It is created once at registration and never
// mutated or deleted by the authentication flow.
type User struct {
	ID           uuid.UUID // UUIDv7 assigned at registration, never reused.
	Username     string    // Display handle, unique across users.
	Email        string    // Login identifier, unique and compared exactly as stored.
	PasswordHash string    // Salted one-way hash of the password. Never the plaintext.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
