package entity

// TokenKind distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Valid reports whether k is one of the known kinds.
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// TokenPair is the result of a successful registration or login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
