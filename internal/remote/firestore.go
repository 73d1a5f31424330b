package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection     = "users"
	clipboardCollection = "clipboard"
	categoriesField     = "customCategories"
)

// itemDoc mirrors the Firestore document layout. Missing fields stay at
// their zero values on read.
type itemDoc struct {
	ID         string    `firestore:"id"`
	Title      string    `firestore:"title"`
	Content    string    `firestore:"content"`
	Category   string    `firestore:"category"`
	Favorite   bool      `firestore:"favorite"`
	IsTemplate bool      `firestore:"isTemplate"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

// Firestore implements Store over users/{uid}/clipboard/{itemId} documents
// and the customCategories array on users/{uid}.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore bootstraps a Firebase app from the given service account
// credentials file and opens its Firestore client.
func NewFirestore(ctx context.Context, credentialsFile string) (*Firestore, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}

	return &Firestore{client: client}, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) userDoc(uid string) *firestore.DocumentRef {
	return f.client.Collection(usersCollection).Doc(uid)
}

func (f *Firestore) itemsRef(uid string) *firestore.CollectionRef {
	return f.userDoc(uid).Collection(clipboardCollection)
}

func (f *Firestore) Items(ctx context.Context, uid string) ([]Document, error) {
	iter := f.itemsRef(uid).Documents(ctx)
	defer iter.Stop()

	var out []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate items: %w", err)
		}

		var d itemDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode item %s: %w", snap.Ref.ID, err)
		}
		if d.ID == "" {
			d.ID = snap.Ref.ID
		}
		out = append(out, Document(d))
	}
	return out, nil
}

func (f *Firestore) SetItem(ctx context.Context, uid string, doc Document) error {
	// Optional fields are included only when present; the document layout
	// never carries empty optionals.
	data := map[string]any{
		"id":         doc.ID,
		"title":      doc.Title,
		"content":    doc.Content,
		"favorite":   doc.Favorite,
		"isTemplate": doc.IsTemplate,
		"createdAt":  doc.CreatedAt,
		"updatedAt":  doc.UpdatedAt,
	}
	if doc.Category != "" {
		data["category"] = doc.Category
	}

	if _, err := f.itemsRef(uid).Doc(doc.ID).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set item %s: %w", doc.ID, err)
	}
	return nil
}

func (f *Firestore) DeleteItem(ctx context.Context, uid string, id string) error {
	if _, err := f.itemsRef(uid).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

func (f *Firestore) DeleteAllItems(ctx context.Context, uid string) error {
	iter := f.itemsRef(uid).Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate items: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete item %s: %w", snap.Ref.ID, err)
		}
	}
	return nil
}

func (f *Firestore) CustomCategories(ctx context.Context, uid string) ([]string, error) {
	snap, err := f.userDoc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user document: %w", err)
	}

	raw, ok := snap.Data()[categoriesField].([]any)
	if !ok {
		return nil, nil
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *Firestore) AddCustomCategories(ctx context.Context, uid string, categories []string) error {
	if len(categories) == 0 {
		return nil
	}

	values := make([]any, len(categories))
	for i, c := range categories {
		values[i] = c
	}

	// ArrayUnion merges with whatever other devices already pushed; a
	// smaller local list never clobbers the remote one.
	_, err := f.userDoc(uid).Set(ctx, map[string]any{
		categoriesField: firestore.ArrayUnion(values...),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to push categories: %w", err)
	}
	return nil
}

func (f *Firestore) RemoveCustomCategory(ctx context.Context, uid string, category string) error {
	// ArrayRemove is safe when the document or the category does not exist.
	_, err := f.userDoc(uid).Set(ctx, map[string]any{
		categoriesField: firestore.ArrayRemove(category),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to remove category: %w", err)
	}
	return nil
}

func (f *Firestore) ClearCustomCategories(ctx context.Context, uid string) error {
	snap, err := f.userDoc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		// nothing to clear, and we must not create the document
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user document: %w", err)
	}

	_, err = snap.Ref.Set(ctx, map[string]any{
		categoriesField: []string{},
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	return nil
}
