package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "witchmart/pkg/domain-errors"
)

const tokenIssuer = "witchmart"

// TokenClaims binds a session id to an expiry. The token only proves the id
// was minted here; it carries no session state.
type TokenClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies session tokens with HS256.
type Tokens struct {
	signingKey []byte
	now        func() time.Time
}

// NewTokens builds a token service for the given signing key.
func NewTokens(signingKey string) *Tokens {
	return &Tokens{signingKey: []byte(signingKey), now: time.Now}
}

// Issue signs a token for the session, valid until the session expires.
func (t *Tokens) Issue(s *Session) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// Parse verifies a token and returns the session id it names.
func (t *Tokens) Parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "empty session token")
	}
	claims := new(TokenClaims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		return t.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "session token expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	if !token.Valid || claims.SessionID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return claims.SessionID, nil
}
