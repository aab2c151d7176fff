// Package client contains the CLI's building blocks for talking to the
// nestdevhive server.
//
// It provides the Client contract, its gRPC implementation GRPCClient (which
// injects the bearer token, refreshes it once when the server reports
// "token expired" and maps status codes to the sentinel errors below), and
// InitDatabase, which opens the local SQLite session store and applies its
// embedded goose migrations.
//
// Errors: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrAlreadyExists,
// ErrInvalidInput; match them with errors.Is.
package client
