// Package store implements the encrypted local key/value store backing the
// item repository. Values are opaque serialized blobs; callers decide the
// serialization. No operation surfaces an error: failures are logged,
// recorded to telemetry, and degrade to nil/no-op, trading strict
// correctness for resilience against a corrupted store.
package store

// Flat key namespace used by the application. The repository owns the first
// two; the rest are app-level flags kept here so the namespace has a single
// authority.
const (
	KeyClipboardItems   = "clipboard_items"
	KeyCustomCategories = "clipboard_custom_categories"
	KeyNotepadContent   = "local_notepad_content"
	KeyTemplateHintSeen = "template_info_dismissed"
	KeyNotepadHintSeen  = "notepad_info_dismissed"
)

// Store is the persistence primitive. Get returns nil when the key is absent
// or the stored value cannot be recovered; Contains reports raw presence
// regardless of whether the value decodes.
type Store interface {
	Set(key string, value []byte)
	Get(key string) []byte
	Remove(key string)
	Contains(key string) bool

	// RemoveAll deletes several keys atomically. Used by sign-out clearing
	// so the item collection and category list disappear together.
	RemoveAll(keys ...string)
}
