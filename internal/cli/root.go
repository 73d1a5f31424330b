package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if user, ok := a.ident.Current(); ok {
		s = user.Email + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) help() {
	if a.isSignedIn() {
		fmt.Fprintln(a.out, "Available commands: (l)ist, show, add, addtemplate, delete, search, fav, favs, categories, addcat, delcat, notepad, sync, wipe, logout, exit")
	} else {
		fmt.Fprintln(a.out, "Available commands: (l)ist, show, add, addtemplate, delete, search, fav, favs, categories, addcat, delcat, notepad, login, exit")
	}
}

// Root runs the interactive loop. It reads a line, parses the first token as
// the command and dispatches to methods on a. The loop exits on EOF or when
// the user types "exit" or "quit".
func (a *App) Root(ctx context.Context) {

	fmt.Fprintln(a.out, "Welcome to clipsync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	for {
		fmt.Fprintf(a.out, "clip %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		a.dispatch(ctx, cmd, args)
		if cmd == "exit" || cmd == "quit" {
			return
		}
	}
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		a.help()
	case "login":
		a.login(ctx, args)
	case "logout":
		a.logout(ctx)
	case "l", "list":
		a.list(ctx)
	case "show":
		a.show(ctx, args)
	case "add":
		a.add(ctx, false)
	case "addtemplate":
		a.add(ctx, true)
	case "delete":
		a.deleteItem(ctx, args)
	case "search":
		a.search(ctx, args)
	case "fav":
		a.toggleFavorite(ctx, args)
	case "favs":
		a.favorites(ctx)
	case "categories":
		a.categories(ctx)
	case "addcat":
		a.addCategory(ctx, args)
	case "delcat":
		a.deleteCategory(ctx, args)
	case "notepad":
		a.notepad(ctx, args)
	case "sync":
		a.syncNow(ctx)
	case "wipe":
		a.wipe(ctx)
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
}
