package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatekeeper/config"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
)

// Clock returns the current time. Tokens are stamped and checked against it.
type Clock func() time.Time

// jwtService is a concrete implementation of the TokenService interface using HMAC-signed JWTs.
type jwtService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        Clock
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	return NewJWTServiceWithClock(cfg, time.Now)
}

// NewJWTServiceWithClock builds the token service with an explicit clock.
func NewJWTServiceWithClock(cfg *config.Config, now Clock) (service.TokenService, error) {
	tc := cfg.Token
	if tc.Secret == "" {
		return nil, errors.New("token secret must be provided")
	}
	if tc.AccessTTL < 0 || tc.RefreshTTL < 0 {
		return nil, errors.New("token lifetimes must not be negative")
	}

	var method *jwt.SigningMethodHMAC
	switch tc.Algorithm {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.Errorf("unsupported signing algorithm %q", tc.Algorithm)
	}

	return &jwtService{
		secret:     []byte(tc.Secret),
		method:     method,
		accessTTL:  tc.AccessTTL,
		refreshTTL: tc.RefreshTTL,
		now:        func() time.Time { return now().UTC() },
	}, nil
}

// Mint signs a token of the given kind for subject.
func (s *jwtService) Mint(kind entity.TokenKind, subject string) (string, error) {
	if !kind.Valid() {
		return "", errors.Wrapf(service.ErrUnknownTokenKind, "mint %q", kind)
	}

	ttl := s.accessTTL
	if kind == entity.TokenKindRefresh {
		ttl = s.refreshTTL
	}

	now := s.now()
	claims := service.Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return signed, nil
}

// Verify checks signature, algorithm, expiry and kind, and returns the subject.
func (s *jwtService) Verify(token string, kind entity.TokenKind) (string, error) {
	claims := &service.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", errors.Join(domainerrors.ErrInvalidToken, errors.Wrap(err, "parse token"))
	}
	if !parsed.Valid {
		return "", errors.Wrap(domainerrors.ErrInvalidToken, "token not valid")
	}

	// Valid strictly before expiry, invalid at the instant itself.
	if !s.now().Before(claims.ExpiresAt.Time) {
		return "", errors.Wrap(domainerrors.ErrInvalidToken, "token expired")
	}
	if claims.Subject == "" {
		return "", errors.Wrap(domainerrors.ErrInvalidToken, "token has no subject")
	}
	if claims.Type != kind {
		return "", errors.Wrapf(domainerrors.ErrInvalidToken, "expected %s token, got %q", kind, claims.Type)
	}

	return claims.Subject, nil
}

// Refresh verifies a refresh token and mints an access token for the same subject.
func (s *jwtService) Refresh(refreshToken string) (string, error) {
	subject, err := s.Verify(refreshToken, entity.TokenKindRefresh)
	if err != nil {
		return "", err
	}

	return s.Mint(entity.TokenKindAccess, subject)
}

func (s *jwtService) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrSignatureInvalid
	}

	return s.secret, nil
}
