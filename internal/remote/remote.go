// Package remote abstracts the per-user remote document store the sync
// service pushes to and pulls from. The production implementation is
// Firestore; tests substitute an in-memory fake.
package remote

import (
	"context"
	"time"
)

// Document is the remote representation of an item. Title and Content hold
// field-level ciphertext; timestamps are provider-native and normalized by
// the caller.
type Document struct {
	ID         string
	Title      string
	Content    string
	Category   string
	Favorite   bool
	IsTemplate bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store is the remote document store, keyed by the authenticated user's id.
// All item writes are full-document sets, never incremental patches; category
// mutations use set semantics so a push can never drop another device's
// entries.
type Store interface {
	// Items fetches every item document under the user's namespace.
	Items(ctx context.Context, uid string) ([]Document, error)

	// SetItem writes the document keyed by its id, replacing any previous
	// version wholesale.
	SetItem(ctx context.Context, uid string, doc Document) error

	// DeleteItem removes the document. Deleting an absent document is not
	// an error.
	DeleteItem(ctx context.Context, uid string, id string) error

	// DeleteAllItems removes every item document under the user's namespace.
	DeleteAllItems(ctx context.Context, uid string) error

	// CustomCategories returns the user's category list; nil when the user
	// document does not exist.
	CustomCategories(ctx context.Context, uid string) ([]string, error)

	// AddCustomCategories unions the given categories into the remote list
	// without removing existing entries.
	AddCustomCategories(ctx context.Context, uid string, categories []string) error

	// RemoveCustomCategory removes exactly one category. Safe when the user
	// document or the category does not exist.
	RemoveCustomCategory(ctx context.Context, uid string, category string) error

	// ClearCustomCategories empties the remote list without deleting the
	// user document.
	ClearCustomCategories(ctx context.Context, uid string) error
}
