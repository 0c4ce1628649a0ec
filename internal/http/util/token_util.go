package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingSecret = errors.New("access token secret is not configured")
)

// AccessClaims is the payload of an access token minted by the account
// service: the user id under "id" plus the standard expiry.
type AccessClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// AccessTokens verifies HS256 access tokens shared with the account service.
// Issue exists for tooling and tests.
type AccessTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAccessTokens returns a verifier for secret; issued tokens live for ttl.
func NewAccessTokens(secret []byte, ttl time.Duration) *AccessTokens {
	return &AccessTokens{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token for userID.
func (a *AccessTokens) Issue(userID string) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrMissingSecret
	}
	if userID == "" {
		return "", errors.New("access token: empty user id")
	}

	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(a.now().Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate checks signature and expiry and returns the user id.
func (a *AccessTokens) Authenticate(token string) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrMissingSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)

	var claims AccessClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
