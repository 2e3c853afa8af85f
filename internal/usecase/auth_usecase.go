// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatekeeper/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the refresh token presented by the client.
type RefreshInput struct {
	RefreshToken string
}

// --- Output DTOs ---

// RegisterOutput returns the new user and its first token pair.
type RegisterOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// RefreshOutput returns a freshly minted access token.
type RefreshOutput struct {
	AccessToken string
}

// AuthUsecase is the registration, login and token lifecycle.
// This is the contract that the delivery layer depends on.
type AuthUsecase interface {
	// Register creates a user and returns it with a token pair.
	// Errors: ErrDuplicateUser for a known email, ErrUsernameConflict for a
	// taken username, and the store conflict errors for lost races.
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)

	// Authenticate checks credentials and returns the user with a token pair.
	// Unknown email and wrong password both yield ErrInvalidCredentials.
	Authenticate(ctx context.Context, input LoginInput) (*LoginOutput, error)

	// IssueTokenPair mints an access and a refresh token for user.
	IssueTokenPair(user *entity.User) (*entity.TokenPair, error)

	// RefreshAccessToken exchanges a valid refresh token for a new access token.
	RefreshAccessToken(ctx context.Context, input RefreshInput) (*RefreshOutput, error)

	// ResolveCurrentUser maps an access token to its user. Token and
	// unknown-subject failures match ErrUnauthenticated; token defects also
	// match ErrInvalidToken.
	ResolveCurrentUser(ctx context.Context, accessToken string) (*entity.User, error)
}
