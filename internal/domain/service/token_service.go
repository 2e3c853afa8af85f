package service

import (
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnknownTokenKind is returned by Mint for a kind outside access/refresh.
var ErrUnknownTokenKind = errors.New("unknown token kind")

// Claims is the signed payload of every token.
type Claims struct {
	Type entity.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies signed, expiring tokens.
type TokenService interface {
	// Mint signs a token of the given kind for subject.
	Mint(kind entity.TokenKind, subject string) (string, error)

	// Verify checks signature, expiry and kind, and returns the subject.
	// Every failure is reported as domainerrors.ErrInvalidToken.
	Verify(token string, kind entity.TokenKind) (string, error)

	// Refresh verifies a refresh token and mints an access token for its subject.
	Refresh(refreshToken string) (string, error)
}
