// Package auth signs and verifies the JWTs handed out to clients.
package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind tells access tokens apart from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the payload carried by every token: the registered claims
// (sub, exp, iat) plus the token kind.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// NewClaims returns claims of the given kind whose subject is userID.
func NewClaims(userID int64, kind TokenKind) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10)},
		Kind:             kind,
	}
}

// UserID parses the subject as a user id. ok is false when the subject is
// missing or not a decimal integer.
func (c *Claims) UserID() (id int64, ok bool) {
	if c.Subject == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
