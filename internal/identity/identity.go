// Package identity exposes the current user identity and sign-in/out
// signals consumed by the sync service and the CLI shell.
package identity

// User is the resolved identity of the signed-in account.
type User struct {
	UID   string
	Email string
}

// Provider reports the current identity and notifies subscribers about
// auth-state transitions. Current must be cheap and safe to call at any
// time; it returns false while no user is signed in (guest mode).
type Provider interface {
	Current() (User, bool)

	// OnChange registers a callback invoked on every sign-in (with the new
	// user and true) and sign-out (zero user, false). The returned function
	// unsubscribes.
	OnChange(fn func(User, bool)) (unsubscribe func())
}
