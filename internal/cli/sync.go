package cli

import (
	"context"
	"fmt"
)

// syncNow runs a full reconciliation on demand: push everything local, then
// pull the remote snapshot.
func (a *App) syncNow(ctx context.Context) {
	if !a.isSignedIn() {
		fmt.Fprintln(a.out, "Not signed in")
		return
	}

	if err := a.svc.Reconcile(ctx); err != nil {
		fmt.Fprintln(a.out, "Sync failed:", err)
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
	fmt.Fprintln(a.out, "Sync complete")
}
