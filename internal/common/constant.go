// Package common contains shared constants and sentinel errors used across
// nestdevhive components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer access token.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only authorization scheme accepted by the server.
const BearerScheme = "Bearer"

// TokenTypeBearer is reported to clients in token responses.
const TokenTypeBearer = "bearer"
