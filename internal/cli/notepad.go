package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/clipsync/internal/store"
)

// notepad is a local-only scratchpad. It never syncs and survives sign-out:
// it belongs to the device, not the account.
func (a *App) notepad(ctx context.Context, args []string) {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "show":
		text := a.store.Get(store.KeyNotepadContent)
		if len(text) == 0 {
			fmt.Fprintln(a.out, "Notepad is empty")
			return
		}
		fmt.Fprintln(a.out, string(text))

	case "edit":
		text, err := GetMultiline(a.reader, "Enter notepad text", a.out)
		if err != nil {
			a.log.Error(ctx, "input error", "error", err)
			return
		}
		a.store.Set(store.KeyNotepadContent, []byte(text))
		fmt.Fprintln(a.out, "Notepad saved")

	case "clear":
		a.store.Remove(store.KeyNotepadContent)
		fmt.Fprintln(a.out, "Notepad cleared")

	default:
		fmt.Fprintln(a.out, "Usage: notepad [show|edit|clear]")
	}
}
