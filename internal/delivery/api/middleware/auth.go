package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"
)

const bearerScheme = "bearer"

// AuthMiddleware resolves the bearer access token to a user.
type AuthMiddleware struct {
	uc usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(uc usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{uc: uc}
}

// Authenticate rejects requests without a valid access token and stores the
// resolved user for handlers (see deliverycontext.GetCurrentUser).
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return err
		}

		user, err := m.uc.ResolveCurrentUser(c.Request().Context(), token)
		if err != nil {
			return err
		}

		deliverycontext.SetCurrentUser(c, user)

		return next(c)
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.Wrap(domainerrors.ErrUnauthenticated, "authorization header is missing")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", errors.Wrap(domainerrors.ErrUnauthenticated, "authorization scheme must be Bearer")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.Wrap(domainerrors.ErrUnauthenticated, "bearer token is empty")
	}

	return token, nil
}
