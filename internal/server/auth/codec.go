package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Codec mints and verifies HMAC-signed tokens with one secret and algorithm.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a codec for HS256, HS384 or HS512.
func NewCodec(secret []byte, algorithm string, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}

	c := &Codec{secret: secret, method: method, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Encode signs claims with exp = now + ttl and iat = now.
func (c *Codec) Encode(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	s, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies signature, algorithm and expiry and returns the claims.
// It returns common.ErrTokenExpired for expired tokens and
// common.ErrInvalidToken for any other failure.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
