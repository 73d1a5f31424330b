// Package common defines shared sentinel errors used across the clipsync
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Sync precondition errors. ErrNotSignedIn is returned by operations that
	// require a resolvable identity; ErrNoNetwork is returned before any
	// remote call is attempted when the reachability probe fails, so callers
	// can show an "offline" message instead of a generic failure.
	ErrNotSignedIn = errors.New("not signed in")
	ErrNoNetwork   = errors.New("no network connection")

	// Identity errors (malformed or expired ID token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
