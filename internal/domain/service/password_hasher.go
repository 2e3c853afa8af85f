// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// PasswordHasher turns plaintext passwords into salted one-way hashes and
// verifies candidates against them.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password. Two calls with the
	// same input produce different hashes.
	Hash(ctx context.Context, password string) (string, error)

	// Check reports whether password produced hash. A malformed hash is an error,
	// a mismatch is (false, nil).
	Check(ctx context.Context, password, hash string) (bool, error)
}
