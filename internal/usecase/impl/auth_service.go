// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/fx"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user and issues its first token pair.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	// Reject known emails before paying for a hash.
	if err := srv.ensureEmailAvailable(ctx, srv.userRepo, input.Email); err != nil {
		return nil, err
	}

	hashedPassword, err := srv.hasher.Hash(ctx, input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Join(domainerrors.ErrPasswordHashFailed, errors.Wrap(err, "failed to hash password during registration"))
	}

	userID, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate user id")
	}

	newUser := &entity.User{
		ID:           userID,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}

	// Racing registrations that pass these checks are settled by the store's
	// unique indexes.
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		if err := srv.ensureEmailAvailable(ctx, userRepo, input.Email); err != nil {
			return err
		}
		if err := srv.ensureUsernameAvailable(ctx, userRepo, input.Username); err != nil {
			return err
		}

		return userRepo.Create(ctx, newUser)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateUser) || domainerrors.IsConflict(err) {
			srv.log(ctx).Warn("Registration rejected, email or username taken", slog.String("email", input.Email))

			return nil, err
		}
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	pair, err := srv.IssueTokenPair(newUser)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User registered", slog.String("userID", newUser.ID.String()))

	return &usecase.RegisterOutput{
		User:         newUser,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (srv *authService) ensureEmailAvailable(ctx context.Context, userRepo repository.UserRepository, email string) error {
	_, err := userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return errors.Wrap(domainerrors.ErrDuplicateUser, "email already registered")
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		return errors.Wrap(err, "failed to look up email")
	}
}

func (srv *authService) ensureUsernameAvailable(ctx context.Context, userRepo repository.UserRepository, username string) error {
	_, err := userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return errors.Wrap(domainerrors.ErrUsernameConflict, "username already registered")
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		return errors.Wrap(err, "failed to look up username")
	}
}

// Authenticate verifies credentials and issues a token pair.
func (srv *authService) Authenticate(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(err, "failed to find user by email")
		}

		// Same hashing cost as the wrong-password path.
		srv.burnDummyCheck(ctx, input.Password)
		srv.log(ctx).Warn("Login failed: unknown email")

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "unknown email")
	}

	ok, err := srv.hasher.Check(ctx, input.Password, user.PasswordHash)
	if err != nil {
		srv.log(ctx).Error("Stored password hash is unusable", slog.String("userID", user.ID.String()), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to verify password")
	}
	if !ok {
		srv.log(ctx).Warn("Login failed: wrong password", slog.String("userID", user.ID.String()))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "password mismatch")
	}

	pair, err := srv.IssueTokenPair(user)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User logged in", slog.String("userID", user.ID.String()))

	return &usecase.LoginOutput{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (srv *authService) burnDummyCheck(ctx context.Context, password string) {
	srv.dummyOnce.Do(func() {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)

		hash, err := srv.hasher.Hash(context.Background(), hex.EncodeToString(buf))
		if err != nil {
			srv.log(ctx).Warn("Failed to prepare dummy hash", slog.Any("error", err))

			return
		}
		srv.dummyHash = hash
	})

	if srv.dummyHash != "" {
		_, _ = srv.hasher.Check(ctx, password, srv.dummyHash)
	}
}

// IssueTokenPair mints an access and a refresh token for the same subject.
func (srv *authService) IssueTokenPair(user *entity.User) (*entity.TokenPair, error) {
	subject := user.ID.String()

	access, err := srv.tokenService.Mint(entity.TokenKindAccess, subject)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint access token")
	}

	refresh, err := srv.tokenService.Mint(entity.TokenKindRefresh, subject)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint refresh token")
	}

	return &entity.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
// The subject is not looked up in the store.
func (srv *authService) RefreshAccessToken(ctx context.Context, input usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	access, err := srv.tokenService.Refresh(input.RefreshToken)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidToken) {
			srv.log(ctx).Warn("Refresh rejected", slog.Any("error", err))

			return nil, errors.Join(domainerrors.ErrRefreshTokenInvalid, err)
		}

		return nil, errors.Wrap(err, "failed to refresh access token")
	}

	return &usecase.RefreshOutput{AccessToken: access}, nil
}

// ResolveCurrentUser verifies an access token and loads its user. Token and
// unknown-subject failures match ErrUnauthenticated.
func (srv *authService) ResolveCurrentUser(ctx context.Context, accessToken string) (*entity.User, error) {
	subject, err := srv.tokenService.Verify(accessToken, entity.TokenKindAccess)
	if err != nil {
		// Matches both ErrUnauthenticated and the ErrInvalidToken cause.
		return nil, errors.Join(domainerrors.ErrUnauthenticated, err)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, errors.Join(domainerrors.ErrUnauthenticated, errors.Wrap(domainerrors.ErrInvalidToken, "subject is not a user id"))
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Token subject no longer exists", slog.String("userID", subject))

			return nil, errors.Wrap(domainerrors.ErrUnauthenticated, "user not found")
		}

		return nil, errors.Wrap(err, "failed to load current user")
	}

	return user, nil
}
