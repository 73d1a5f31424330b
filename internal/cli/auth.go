package cli

import (
	"context"
	"fmt"
)

// login accepts a Firebase ID token (as an argument or pasted without echo),
// resolves the identity from it and reconciles: local guest data is pushed
// up, then the remote snapshot is pulled down.
func (a *App) login(ctx context.Context, args []string) {
	if a.isSignedIn() {
		fmt.Fprintln(a.out, "Already signed in, logout first")
		return
	}

	var token string
	var err error
	if len(args) > 0 {
		token = args[0]
	} else {
		token, err = GetSecret("Paste ID token", a.out)
		if err != nil {
			a.log.Error(ctx, "input error", "error", err)
			return
		}
	}

	user, err := a.ident.SignIn(token)
	if err != nil {
		fmt.Fprintln(a.out, "Login failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Signed in as", user.Email)

	if err := a.svc.Reconcile(ctx); err != nil {
		fmt.Fprintln(a.out, "Sync failed:", err)
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// logout wipes the local mirror before dropping the identity so account data
// never remains readable on a signed-out device. Remote data is untouched.
func (a *App) logout(ctx context.Context) {
	if !a.isSignedIn() {
		fmt.Fprintln(a.out, "Not signed in")
		return
	}

	a.repo.ClearAll()
	a.ident.SignOut()
	a.setMode(ctx, ModeGuest)
	fmt.Fprintln(a.out, "Signed out, local data cleared")
}

// wipe deletes every remote item and the remote category list, then clears
// local state and signs out.
func (a *App) wipe(ctx context.Context) {
	if !a.isSignedIn() {
		fmt.Fprintln(a.out, "Not signed in")
		return
	}

	confirm, err := GetSimpleText(a.reader, "Delete ALL account data? Type 'yes' to confirm", a.out)
	if err != nil || confirm != "yes" {
		fmt.Fprintln(a.out, "Aborted")
		return
	}

	if err := a.svc.DeleteAllUserData(ctx); err != nil {
		fmt.Fprintln(a.out, "Failed to delete account data:", err)
		return
	}

	a.repo.ClearAll()
	a.ident.SignOut()
	a.setMode(ctx, ModeGuest)
	fmt.Fprintln(a.out, "All account data deleted")
}
