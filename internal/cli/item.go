package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/clipsync/internal/models"
)

// findItem resolves an id argument to a locally known item. Exact match
// first, then a unique id prefix so users can paste the short form shown by
// list.
func (a *App) findItem(id string) *models.Item {
	if item := a.repo.GetByID(id); item != nil {
		return item
	}

	var match *models.Item
	for _, item := range a.repo.GetAll() {
		if strings.HasPrefix(item.ID, id) {
			if match != nil {
				return nil // ambiguous prefix
			}
			found := item
			match = &found
		}
	}
	return match
}

func (a *App) printItems(items []models.Item) {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items")
		return
	}
	for _, item := range items {
		marker := " "
		if item.Favorite {
			marker = "*"
		}
		kind := ""
		if item.IsTemplate {
			kind = " [template]"
		}
		category := ""
		if item.Category != "" {
			category = " (" + item.Category + ")"
		}
		fmt.Fprintf(a.out, "%s %.8s  %s%s%s\n", marker, item.ID, item.Title, category, kind)
	}
}

func (a *App) list(ctx context.Context) {
	a.printItems(a.repo.GetAll())
}

func (a *App) show(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: show <id>")
		return
	}
	item := a.findItem(args[0])
	if item == nil {
		fmt.Fprintln(a.out, "Item not found:", args[0])
		return
	}

	fmt.Fprintf(a.out, "ID:       %s\n", item.ID)
	fmt.Fprintf(a.out, "Title:    %s\n", item.Title)
	fmt.Fprintf(a.out, "Category: %s\n", item.Category)
	fmt.Fprintf(a.out, "Favorite: %v\n", item.Favorite)
	fmt.Fprintf(a.out, "Template: %v\n", item.IsTemplate)
	fmt.Fprintf(a.out, "Created:  %s\n", item.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Updated:  %s\n", item.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(a.out, "---")
	fmt.Fprintln(a.out, item.Content)
}

func (a *App) add(ctx context.Context, isTemplate bool) {
	title, err := GetSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		a.log.Error(ctx, "input error", "error", err)
		return
	}
	content, err := GetMultiline(a.reader, "Enter content", a.out)
	if err != nil {
		a.log.Error(ctx, "input error", "error", err)
		return
	}
	category, err := GetSimpleText(a.reader, "Enter category (optional)", a.out)
	if err != nil {
		a.log.Error(ctx, "input error", "error", err)
		return
	}

	item := models.Item{Title: title, Content: content, Category: category, IsTemplate: isTemplate}
	if err := item.Validate(); err != nil {
		fmt.Fprintln(a.out, "Invalid item:", err)
		return
	}

	var saved models.Item
	if a.isSignedIn() {
		saved, err = a.svc.CreateItem(ctx, item)
		if err != nil {
			fmt.Fprintln(a.out, "Failed to save item:", err)
			return
		}
	} else {
		saved = a.repo.Create(item)
	}
	fmt.Fprintf(a.out, "Saved %.8s\n", saved.ID)
}

func (a *App) deleteItem(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return
	}
	item := a.findItem(args[0])
	if item == nil {
		fmt.Fprintln(a.out, "Item not found:", args[0])
		return
	}

	if a.isSignedIn() {
		if _, err := a.svc.DeleteItem(ctx, item.ID); err != nil {
			fmt.Fprintln(a.out, "Failed to delete item:", err)
			return
		}
	} else {
		a.repo.Delete(item.ID)
	}
	fmt.Fprintf(a.out, "Deleted %.8s\n", item.ID)
}

func (a *App) search(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: search <query>")
		return
	}
	a.printItems(a.repo.Search(strings.Join(args, " ")))
}

func (a *App) favorites(ctx context.Context) {
	a.printItems(a.repo.Favorites())
}

func (a *App) toggleFavorite(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: fav <id>")
		return
	}
	item := a.findItem(args[0])
	if item == nil {
		fmt.Fprintln(a.out, "Item not found:", args[0])
		return
	}

	if a.isSignedIn() {
		patch := models.ItemPatch{Favorite: models.BoolPtr(!item.Favorite)}
		updated, err := a.svc.UpdateItem(ctx, item.ID, patch)
		if err != nil {
			fmt.Fprintln(a.out, "Failed to update item:", err)
			return
		}
		fmt.Fprintf(a.out, "Favorite for %.8s is now %v\n", updated.ID, updated.Favorite)
		return
	}

	updated := a.repo.ToggleFavorite(item.ID)
	if updated != nil {
		fmt.Fprintf(a.out, "Favorite for %.8s is now %v\n", updated.ID, updated.Favorite)
	}
}
