// Package models defines the client-side data model shared by the local
// repository and the sync service.
package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Limits enforced before an item is accepted, mirroring the remote store's
// document constraints.
const (
	MaxTitleLength    = 100
	MaxContentLength  = 10000
	MaxCategoryLength = 30
)

// Item is a clipboard entry or a template record, discriminated by
// IsTemplate for its entire lifetime. Title and Content are stored encrypted
// in the remote store; locally they are plaintext (the local store encrypts
// whole values at the engine level).
type Item struct {
	// ID is generated locally and stays stable for the item's lifetime.
	ID string `json:"id"`

	Title   string `json:"title"`
	Content string `json:"content"`

	// Category is an optional free-text label, deduplicated
	// case-insensitively against the custom category list.
	Category string `json:"category,omitempty"`

	Favorite   bool `json:"favorite"`
	IsTemplate bool `json:"isTemplate"`

	// CreatedAt is immutable after creation; UpdatedAt is rewritten on every
	// mutation. UpdatedAt >= CreatedAt always holds.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the field length limits.
func (i Item) Validate() error {
	if utf8.RuneCountInString(i.Title) > MaxTitleLength {
		return fmt.Errorf("title exceeds limit of %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(i.Content) > MaxContentLength {
		return fmt.Errorf("content exceeds limit of %d characters", MaxContentLength)
	}
	if utf8.RuneCountInString(i.Category) > MaxCategoryLength {
		return fmt.Errorf("category exceeds limit of %d characters", MaxCategoryLength)
	}
	return nil
}

// ItemPatch carries the fields of a partial update. Only fields explicitly
// set are merged; ID and CreatedAt can never be patched.
type ItemPatch struct {
	Title      *string
	Content    *string
	Category   *string
	Favorite   *bool
	IsTemplate *bool
}

// Apply merges the present fields of the patch into item and returns the
// result. UpdatedAt is left to the caller, which decides the new timestamp.
func (p ItemPatch) Apply(item Item) Item {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Content != nil {
		item.Content = *p.Content
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Favorite != nil {
		item.Favorite = *p.Favorite
	}
	if p.IsTemplate != nil {
		item.IsTemplate = *p.IsTemplate
	}
	return item
}

// String helpers for constructing patches inline.
func StringPtr(s string) *string { return &s }
func BoolPtr(b bool) *bool       { return &b }
