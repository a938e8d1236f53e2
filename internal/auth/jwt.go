// Package auth verifies bearer tokens minted by the external identity
// provider.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrIdentityMismatch = errors.New("token identity does not match request")

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID is the identity provider's subject.
func (c *Claims) UserID() string {
	return c.Subject
}

func NewToken(secret, issuer string, ttl time.Duration, userID, email string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates an HS256 token. issuer is only enforced when set.
func ParseToken(secret, issuer, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Matches reports whether the token speaks for userID and email. An empty
// userID only checks the email.
func (c *Claims) Matches(userID, email string) error {
	if userID != "" && c.Subject != userID {
		return ErrIdentityMismatch
	}
	if c.Email != email {
		return ErrIdentityMismatch
	}
	return nil
}
