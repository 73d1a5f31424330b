// Package repository holds the single in-process source of truth for the
// local view of items and custom categories, backed by the encrypted local
// store. All mutating methods re-persist the full collection; callers must
// treat returned slices as snapshots, not live views.
package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/models"
	"github.com/dmitrijs2005/clipsync/internal/store"
	"github.com/dmitrijs2005/clipsync/internal/telemetry"
)

// collection is the loaded state. The repository holds *collection: nil means
// the store has not been read yet, non-nil always carries a valid slice, so
// "loaded but nil items" cannot be represented.
type collection struct {
	items []models.Item
}

type Repository struct {
	mu    sync.Mutex
	state *collection

	store store.Store
	log   logging.Logger
	tel   telemetry.Sink
}

func New(st store.Store, log logging.Logger, tel telemetry.Sink) *Repository {
	return &Repository{store: st, log: log.With("component", "repository"), tel: tel}
}

// ensureLoaded reads the collection from the store on first access. A store
// read or decode failure degrades to an empty collection.
func (r *Repository) ensureLoaded() *collection {
	if r.state != nil {
		return r.state
	}

	c := &collection{}
	if b := r.store.Get(store.KeyClipboardItems); b != nil {
		if err := json.Unmarshal(b, &c.items); err != nil {
			r.log.Error(context.Background(), "failed to decode stored items", "error", err)
			r.tel.RecordError(context.Background(), err, "LocalStorageLoadError")
			c.items = nil
		}
	}
	r.state = c
	return c
}

func (r *Repository) persist(c *collection) {
	b, err := json.Marshal(c.items)
	if err != nil {
		r.tel.RecordError(context.Background(), err, "LocalStorageSaveError")
		return
	}
	r.store.Set(store.KeyClipboardItems, b)
}

// GetAll returns a snapshot copy of the collection.
func (r *Repository) GetAll() []models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.ensureLoaded()
	out := make([]models.Item, len(c.items))
	copy(out, c.items)
	return out
}

// GetByID returns a copy of the item, or nil when absent.
func (r *Repository) GetByID(id string) *models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.ensureLoaded()
	for _, item := range c.items {
		if item.ID == id {
			found := item
			return &found
		}
	}
	return nil
}

// Create assigns a fresh id and both timestamps, appends and persists.
// Any id or timestamps on the argument are ignored.
func (r *Repository) Create(item models.Item) models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now

	c := r.ensureLoaded()
	c.items = append(c.items, item)
	r.persist(c)
	return item
}

// Update merges the present patch fields into the existing record and
// rewrites UpdatedAt. Returns nil when the id is unknown.
func (r *Repository) Update(id string, patch models.ItemPatch) *models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.ensureLoaded()
	for i, item := range c.items {
		if item.ID != id {
			continue
		}
		updated := patch.Apply(item)
		updated.UpdatedAt = time.Now().UTC()
		c.items[i] = updated
		r.persist(c)
		result := updated
		return &result
	}
	return nil
}

// Delete removes the item by id and reports whether a record was removed.
func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.ensureLoaded()
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			r.persist(c)
			return true
		}
	}
	return false
}

// Search matches the query case-insensitively against title, content and
// category.
func (r *Repository) Search(query string) []models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := strings.ToLower(query)
	var out []models.Item
	for _, item := range r.ensureLoaded().items {
		if strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.Content), q) ||
			strings.Contains(strings.ToLower(item.Category), q) {
			out = append(out, item)
		}
	}
	return out
}

// FilterByCategory matches the category exactly.
func (r *Repository) FilterByCategory(category string) []models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Item
	for _, item := range r.ensureLoaded().items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// Categories returns the distinct categories referenced by items.
// Order is not guaranteed.
func (r *Repository) Categories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	var out []string
	for _, item := range r.ensureLoaded().items {
		if item.Category == "" {
			continue
		}
		if _, ok := seen[item.Category]; !ok {
			seen[item.Category] = struct{}{}
			out = append(out, item.Category)
		}
	}
	return out
}

// Favorites returns the items flagged as favorite.
func (r *Repository) Favorites() []models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Item
	for _, item := range r.ensureLoaded().items {
		if item.Favorite {
			out = append(out, item)
		}
	}
	return out
}

// ToggleFavorite flips the favorite flag, delegating to Update.
func (r *Repository) ToggleFavorite(id string) *models.Item {
	item := r.GetByID(id)
	if item == nil {
		return nil
	}
	return r.Update(id, models.ItemPatch{Favorite: models.BoolPtr(!item.Favorite)})
}

// CustomCategories returns the persisted custom category list in insertion
// order. The list lives under its own storage key and is not cached.
func (r *Repository) CustomCategories() []string {
	b := r.store.Get(store.KeyCustomCategories)
	if b == nil {
		return nil
	}
	var cats []string
	if err := json.Unmarshal(b, &cats); err != nil {
		r.tel.RecordError(context.Background(), err, "GetCustomCategoriesError")
		return nil
	}
	return cats
}

// AddCustomCategory appends the trimmed category unless it is already
// present case-insensitively.
func (r *Repository) AddCustomCategory(category string) {
	category = strings.TrimSpace(category)
	if category == "" {
		return
	}

	cats := r.CustomCategories()
	for _, c := range cats {
		if strings.EqualFold(c, category) {
			return
		}
	}
	r.saveCustomCategories(append(cats, category))
}

// RemoveCustomCategory filters the list case-insensitively.
func (r *Repository) RemoveCustomCategory(category string) {
	category = strings.TrimSpace(category)

	cats := r.CustomCategories()
	filtered := cats[:0]
	for _, c := range cats {
		if !strings.EqualFold(c, category) {
			filtered = append(filtered, c)
		}
	}
	r.saveCustomCategories(filtered)
}

// ReplaceCustomCategories overwrites the whole list with the remote copy.
func (r *Repository) ReplaceCustomCategories(categories []string) {
	if categories == nil {
		categories = []string{}
	}
	r.saveCustomCategories(categories)
}

func (r *Repository) saveCustomCategories(categories []string) {
	b, err := json.Marshal(categories)
	if err != nil {
		r.tel.RecordError(context.Background(), err, "SaveCustomCategoriesError")
		return
	}
	r.store.Set(store.KeyCustomCategories, b)
}

// AllCategories returns the sorted union of categories referenced by items
// and the custom category list.
func (r *Repository) AllCategories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range append(r.Categories(), r.CustomCategories()...) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// ReplaceWithRemote unconditionally replaces the local collection with the
// remote snapshot. Only the sync service calls this, after a successful
// pull: the remote store wins.
func (r *Repository) ReplaceWithRemote(items []models.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &collection{items: make([]models.Item, len(items))}
	copy(c.items, items)
	r.state = c
	r.persist(c)
}

// SaveItem upserts by id without touching ids or timestamps. Used by the
// sync service to mirror an item locally after a confirmed remote write.
func (r *Repository) SaveItem(item models.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.ensureLoaded()
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i] = item
			r.persist(c)
			return
		}
	}
	c.items = append(c.items, item)
	r.persist(c)
}

// ClearAll empties the collection and the category list and removes both
// storage keys. Used on sign-out.
func (r *Repository) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = &collection{}
	r.store.RemoveAll(store.KeyClipboardItems, store.KeyCustomCategories)
}
