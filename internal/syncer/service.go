// Package syncer coordinates reads and writes against the user's remote
// document namespace. Once a user is signed in the remote store is the
// durable source of truth: every push writes remote first and mirrors
// locally only after the remote write is confirmed, and every pull replaces
// the local collection wholesale.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/clipsync/internal/common"
	"github.com/dmitrijs2005/clipsync/internal/cryptox"
	"github.com/dmitrijs2005/clipsync/internal/identity"
	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/models"
	"github.com/dmitrijs2005/clipsync/internal/netx"
	"github.com/dmitrijs2005/clipsync/internal/remote"
	"github.com/dmitrijs2005/clipsync/internal/repository"
	"github.com/dmitrijs2005/clipsync/internal/telemetry"
)

type Service struct {
	repo    *repository.Repository
	remote  remote.Store
	ident   identity.Provider
	net     netx.Checker
	appSalt string
	log     logging.Logger
	tel     telemetry.Sink

	// pulling guards Pull against overlapping invocations: auth-state
	// change and network regain can fire close together.
	pulling atomic.Bool
}

func New(repo *repository.Repository, rs remote.Store, ident identity.Provider, net netx.Checker, appSalt string, log logging.Logger, tel telemetry.Sink) *Service {
	return &Service{
		repo:    repo,
		remote:  rs,
		ident:   ident,
		net:     net,
		appSalt: appSalt,
		log:     log.With("component", "syncer"),
		tel:     tel,
	}
}

// requireOnline resolves the signed-in identity and probes the network, in
// that order.
func (s *Service) requireOnline(ctx context.Context) (identity.User, error) {
	user, ok := s.ident.Current()
	if !ok {
		return identity.User{}, common.ErrNotSignedIn
	}
	if !s.net.Available(ctx) {
		return identity.User{}, common.ErrNoNetwork
	}
	return user, nil
}

// Pull fetches every remote item document, decrypts the sensitive fields and
// replaces the local collection, then overwrites the local custom category
// list with the remote one. Remote wins: local items absent remotely are
// discarded.
//
// A Pull arriving while another is in flight is a silent no-op, as is a Pull
// without a signed-in identity (opportunistic triggers call Pull blindly).
// Any error while fetching items aborts the whole pull with no partial
// replace.
func (s *Service) Pull(ctx context.Context) error {
	if !s.pulling.CompareAndSwap(false, true) {
		s.log.Debug(ctx, "pull already in progress, skipping")
		return nil
	}
	defer s.pulling.Store(false)

	user, ok := s.ident.Current()
	if !ok {
		s.log.Debug(ctx, "no user signed in, skipping pull")
		return nil
	}
	if !s.net.Available(ctx) {
		return common.ErrNoNetwork
	}

	s.tel.Log(ctx, "starting pull")
	docs, err := s.remote.Items(ctx, user.UID)
	if err != nil {
		s.tel.RecordError(ctx, err, "PullError")
		return fmt.Errorf("pull failed: %w", err)
	}

	key := cryptox.DeriveKey(user.UID, user.Email, s.appSalt)
	now := time.Now().UTC()

	items := make([]models.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, models.Item{
			ID:         doc.ID,
			Title:      s.decryptField(ctx, doc.ID, doc.Title, key),
			Content:    s.decryptField(ctx, doc.ID, doc.Content, key),
			Category:   doc.Category,
			Favorite:   doc.Favorite,
			IsTemplate: doc.IsTemplate,
			CreatedAt:  normalizeTime(doc.CreatedAt, now),
			UpdatedAt:  normalizeTime(doc.UpdatedAt, now),
		})
	}

	s.repo.ReplaceWithRemote(items)
	s.log.Info(ctx, "pull finished", "items", len(items))

	s.pullCustomCategories(ctx, user.UID)
	return nil
}

// decryptField decrypts one sensitive field. On failure the error is
// recorded and the ciphertext is kept so a single bad field never aborts the
// surrounding item.
func (s *Service) decryptField(ctx context.Context, id, encrypted string, key []byte) string {
	plain, err := cryptox.DecryptField(encrypted, key)
	if err != nil {
		s.log.Warn(ctx, "failed to decrypt field, keeping ciphertext", "item", id, "error", err)
		s.tel.RecordError(ctx, err, "DecryptError")
		return encrypted
	}
	return plain
}

// pullCustomCategories overwrites the local list with the remote copy. A
// failure here is recorded but does not fail the surrounding pull; a missing
// user document leaves the local list untouched.
func (s *Service) pullCustomCategories(ctx context.Context, uid string) {
	cats, err := s.remote.CustomCategories(ctx, uid)
	if err != nil {
		s.tel.RecordError(ctx, err, "PullCategoriesError")
		return
	}
	if cats == nil {
		return
	}
	s.repo.ReplaceCustomCategories(cats)
	s.log.Debug(ctx, "pulled custom categories", "count", len(cats))
}

// Push writes the item remotely (encrypted, full-document set) and mirrors
// the plaintext item into the repository only after the remote write
// succeeds. The remote write and the local mirror are sequential, not
// transactional: if we die in between, the next pull repairs the local copy.
func (s *Service) Push(ctx context.Context, item models.Item) (models.Item, error) {
	user, err := s.requireOnline(ctx)
	if err != nil {
		return models.Item{}, err
	}

	now := time.Now().UTC()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	key := cryptox.DeriveKey(user.UID, user.Email, s.appSalt)
	encTitle, err := cryptox.EncryptField(item.Title, key)
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to encrypt title: %w", err)
	}
	encContent, err := cryptox.EncryptField(item.Content, key)
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to encrypt content: %w", err)
	}

	doc := remote.Document{
		ID:         item.ID,
		Title:      encTitle,
		Content:    encContent,
		Category:   item.Category,
		Favorite:   item.Favorite,
		IsTemplate: item.IsTemplate,
		CreatedAt:  createdAt,
		UpdatedAt:  now,
	}

	if err := s.remote.SetItem(ctx, user.UID, doc); err != nil {
		s.tel.RecordError(ctx, err, "PushError")
		return models.Item{}, fmt.Errorf("push failed: %w", err)
	}

	saved := item
	saved.CreatedAt = createdAt
	saved.UpdatedAt = now
	s.repo.SaveItem(saved)
	s.log.Debug(ctx, "pushed item", "id", saved.ID)
	return saved, nil
}

// CreateItem assigns a fresh id and timestamps and pushes the new item.
func (s *Service) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	now := time.Now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	return s.Push(ctx, item)
}

// UpdateItem merges the patch into the locally known item and pushes the
// full result: the remote document is replaced wholesale, last push wins.
func (s *Service) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.Item, error) {
	existing := s.repo.GetByID(id)
	if existing == nil {
		return models.Item{}, fmt.Errorf("%w: item %s", common.ErrNotFound, id)
	}
	return s.Push(ctx, patch.Apply(*existing))
}

// DeleteItem deletes the remote document first and removes the local record
// only on success.
func (s *Service) DeleteItem(ctx context.Context, id string) (bool, error) {
	user, err := s.requireOnline(ctx)
	if err != nil {
		return false, err
	}

	if err := s.remote.DeleteItem(ctx, user.UID, id); err != nil {
		s.tel.RecordError(ctx, err, "DeleteError")
		return false, fmt.Errorf("delete failed: %w", err)
	}

	s.repo.Delete(id)
	s.log.Debug(ctx, "deleted item", "id", id)
	return true, nil
}

// PushCustomCategories adds the given categories to the remote list with
// set-union semantics: pushing a smaller local list never removes entries
// other devices contributed.
func (s *Service) PushCustomCategories(ctx context.Context, categories []string) error {
	user, err := s.requireOnline(ctx)
	if err != nil {
		return err
	}

	if err := s.remote.AddCustomCategories(ctx, user.UID, categories); err != nil {
		s.tel.RecordError(ctx, err, "PushCategoriesError")
		return fmt.Errorf("push categories failed: %w", err)
	}
	return nil
}

// DeleteCustomCategory removes one category remotely, then mirrors the
// removal locally. Safe when the remote document or the category is absent.
func (s *Service) DeleteCustomCategory(ctx context.Context, category string) error {
	user, err := s.requireOnline(ctx)
	if err != nil {
		return err
	}

	if err := s.remote.RemoveCustomCategory(ctx, user.UID, category); err != nil {
		s.tel.RecordError(ctx, err, "DeleteCategoryError")
		return fmt.Errorf("delete category failed: %w", err)
	}

	s.repo.RemoveCustomCategory(category)
	return nil
}

// DeleteAllUserData removes every remote item document and empties the
// remote category list. The user document itself is kept. Clearing local
// state and signing out are the caller's responsibility.
func (s *Service) DeleteAllUserData(ctx context.Context) error {
	user, err := s.requireOnline(ctx)
	if err != nil {
		return err
	}

	if err := s.remote.DeleteAllItems(ctx, user.UID); err != nil {
		s.tel.RecordError(ctx, err, "DeleteUserDataError")
		return fmt.Errorf("delete user data failed: %w", err)
	}
	if err := s.remote.ClearCustomCategories(ctx, user.UID); err != nil {
		s.tel.RecordError(ctx, err, "DeleteUserDataError")
		return fmt.Errorf("delete user data failed: %w", err)
	}

	s.log.Info(ctx, "deleted all remote user data")
	return nil
}

// Reconcile runs the sign-in protocol: push the guest-accumulated local
// items and category list first (each push caught independently so one
// failure blocks nothing else), then pull the remote snapshot. Guest content
// survives a login as long as at least one push or the pull succeeds; a pull
// failure after partial pushes leaves local data stale but intact.
func (s *Service) Reconcile(ctx context.Context) error {
	localItems := s.repo.GetAll()
	localCats := s.repo.CustomCategories()

	if len(localItems) > 0 || len(localCats) > 0 {
		s.log.Info(ctx, "found local data, pushing before pull",
			"items", len(localItems), "categories", len(localCats))

		var wg sync.WaitGroup
		if len(localCats) > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.PushCustomCategories(ctx, localCats); err != nil {
					s.tel.RecordError(ctx, err, "PushCategoriesError")
				}
			}()
		}
		for _, item := range localItems {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Push(ctx, item); err != nil {
					s.tel.RecordError(ctx, err, "PushItemError")
				}
			}()
		}
		wg.Wait()
	}

	return s.Pull(ctx)
}

// normalizeTime substitutes a fallback for documents written before
// timestamps existed.
func normalizeTime(t time.Time, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t.UTC()
}
