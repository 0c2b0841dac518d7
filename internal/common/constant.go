// Package common contains shared constants and sentinel errors used across
// filevault components.
package common

const (
	// TokenHeaderName is the HTTP header carrying the session token.
	TokenHeaderName = "X-Token"

	// SessionKeyPrefix prefixes every session entry in the session store.
	SessionKeyPrefix = "auth_"

	// SessionTokenBytes is the amount of randomness behind a session token (128 bits).
	SessionTokenBytes = 16
)
