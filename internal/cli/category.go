package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/clipsync/internal/models"
)

func (a *App) categories(ctx context.Context) {
	custom := a.repo.CustomCategories()
	isCustom := make(map[string]bool, len(custom))
	for _, c := range custom {
		isCustom[c] = true
	}

	all := a.repo.AllCategories()
	if len(all) == 0 {
		fmt.Fprintln(a.out, "No categories")
		return
	}
	for _, c := range all {
		suffix := ""
		if isCustom[c] {
			suffix = " (custom)"
		}
		count := len(a.repo.FilterByCategory(c))
		fmt.Fprintf(a.out, "%s%s — %d item(s)\n", c, suffix, count)
	}
}

func (a *App) addCategory(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: addcat <name>")
		return
	}
	name := strings.Join(args, " ")
	if len(name) > models.MaxCategoryLength {
		fmt.Fprintf(a.out, "Category name too long (max %d)\n", models.MaxCategoryLength)
		return
	}

	a.repo.AddCustomCategory(name)
	if a.isSignedIn() {
		if err := a.svc.PushCustomCategories(ctx, []string{name}); err != nil {
			fmt.Fprintln(a.out, "Saved locally, but push failed:", err)
			return
		}
	}
	fmt.Fprintln(a.out, "Category added:", name)
}

// deleteCategory refuses to remove a category that still has items assigned
// to it: reassign or delete those items first. The check runs before any
// remote call so a refused delete has no side effects.
func (a *App) deleteCategory(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: delcat <name>")
		return
	}
	name := strings.Join(args, " ")

	if n := len(a.repo.FilterByCategory(name)); n > 0 {
		fmt.Fprintf(a.out, "Category %q is used by %d item(s), reassign them first\n", name, n)
		return
	}

	if a.isSignedIn() {
		if err := a.svc.DeleteCustomCategory(ctx, name); err != nil {
			fmt.Fprintln(a.out, "Failed to delete category:", err)
			return
		}
	} else {
		a.repo.RemoveCustomCategory(name)
	}
	fmt.Fprintln(a.out, "Category deleted:", name)
}
