// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/semaphore"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
)

type algorithm interface {
	hash(password string) (string, error)
	verify(password, encoded string) (bool, error)
}

// passwordHasher writes new hashes with the configured algorithm and verifies
// any stored hash whose format it recognises.
type passwordHasher struct {
	primary algorithm
	argon2  *argon2Hasher
	bcrypt  *bcryptHasher

	// slots bounds concurrent hash computations; argon2id allocates its full
	// memory parameter per call.
	slots *semaphore.Weighted
}

// NewPasswordHasher is the constructor for the password hasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewPasswordHasher(cfg *config.Config) (service.PasswordHasher, error) {
	hc := cfg.Hasher

	h := &passwordHasher{
		argon2: newArgon2Hasher(hc.Argon2),
		bcrypt: newBcryptHasher(hc.BcryptCost),
	}

	switch hc.Algorithm {
	case config.HashAlgorithmArgon2id, "":
		if hc.Argon2.Iterations == 0 || hc.Argon2.Parallelism == 0 || hc.Argon2.KeyLength == 0 || hc.Argon2.SaltLength == 0 {
			return nil, errors.New("argon2 parameters must be positive")
		}
		h.primary = h.argon2
	case config.HashAlgorithmBcrypt:
		h.primary = h.bcrypt
	default:
		return nil, errors.Errorf("unsupported hash algorithm %q", hc.Algorithm)
	}

	maxConcurrent := hc.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	h.slots = semaphore.NewWeighted(int64(maxConcurrent))

	return h, nil
}

// Hash generates a salted hash from a plaintext password.
func (h *passwordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "wait for hashing slot")
	}
	defer h.slots.Release(1)

	return h.primary.hash(password)
}

// Check compares a plaintext password with a stored hash.
func (h *passwordHasher) Check(ctx context.Context, password, encoded string) (bool, error) {
	var alg algorithm
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		alg = h.argon2
	case isBcryptHash(encoded):
		alg = h.bcrypt
	default:
		return false, ErrInvalidHash
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, errors.Wrap(err, "wait for hashing slot")
	}
	defer h.slots.Release(1)

	return alg.verify(password, encoded)
}
