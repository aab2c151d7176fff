package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T, secret, alg string, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec([]byte(secret), alg, opts...)
	require.NoError(t, err)
	return c
}

func TestNewCodec_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(nil, "HS256")
	assert.Error(t, err)

	for _, alg := range []string{"", "none", "RS256", "hs256"} {
		_, err := NewCodec([]byte("k"), alg)
		assert.Error(t, err, alg)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			c := newCodec(t, "super-secret", alg)

			tok, err := c.Encode(NewClaims(42, KindAccess), time.Minute)
			require.NoError(t, err)

			claims, err := c.Decode(tok)
			require.NoError(t, err)

			id, ok := claims.UserID()
			assert.True(t, ok)
			assert.Equal(t, int64(42), id)
			assert.Equal(t, KindAccess, claims.Kind)
			require.NotNil(t, claims.ExpiresAt)
			require.NotNil(t, claims.IssuedAt)
			assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
		})
	}
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newCodec(t, "secret", "HS256", WithClock(clock))

	tok, err := c.Encode(NewClaims(1, KindAccess), time.Second)
	require.NoError(t, err)

	_, err = c.Decode(tok)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = c.Decode(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestDecode_ZeroTTL(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "secret", "HS256")

	tok, err := c.Encode(NewClaims(1, KindAccess), 0)
	require.NoError(t, err)

	_, err = c.Decode(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newCodec(t, "right", "HS256").Encode(NewClaims(1, KindAccess), time.Hour)
	require.NoError(t, err)

	_, err = newCodec(t, "wrong", "HS256").Decode(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_WrongAlgorithm(t *testing.T) {
	t.Parallel()

	tok, err := newCodec(t, "k", "HS512").Encode(NewClaims(1, KindAccess), time.Hour)
	require.NoError(t, err)

	_, err = newCodec(t, "k", "HS256").Decode(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_NoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := NewClaims(1, KindAccess)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newCodec(t, "k", "HS256").Decode(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_MissingExpiry(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, NewClaims(1, KindAccess)).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = newCodec(t, "k", "HS256").Decode(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", "HS256")
	for _, s := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := c.Decode(s)
		assert.ErrorIs(t, err, common.ErrInvalidToken, s)
	}
}

func TestDecode_TamperedPayload(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", "HS256")
	tok, err := c.Encode(NewClaims(1, KindAccess), time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"2","kind":"access","exp":9999999999}`))
	forged := parts[0] + "." + payload + "." + parts[2]

	_, err = c.Decode(forged)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClaims_UserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sub    string
		wantID int64
		wantOK bool
	}{
		{"7", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
	}
	for _, tt := range tests {
		c := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: tt.sub}}
		id, ok := c.UserID()
		assert.Equal(t, tt.wantOK, ok, tt.sub)
		assert.Equal(t, tt.wantID, id, tt.sub)
	}
}
