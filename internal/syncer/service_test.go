package syncer

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/clipsync/internal/common"
	"github.com/dmitrijs2005/clipsync/internal/cryptox"
	"github.com/dmitrijs2005/clipsync/internal/identity"
	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/models"
	"github.com/dmitrijs2005/clipsync/internal/netx"
	"github.com/dmitrijs2005/clipsync/internal/remote"
	"github.com/dmitrijs2005/clipsync/internal/repository"
	"github.com/dmitrijs2005/clipsync/internal/store"
	"github.com/dmitrijs2005/clipsync/internal/telemetry"

	_ "modernc.org/sqlite"
)

const testSalt = "test-app-salt"

// fakeRemote is an in-memory remote.Store with injectable failures.
type fakeRemote struct {
	mu   sync.Mutex
	docs map[string]map[string]remote.Document
	cats map[string][]string // nil slice with key absent = no user doc

	itemsErr     error
	setErr       error
	deleteErr    error
	catsErr      error
	addCatsErr   error
	removeCatErr error

	itemsCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		docs: map[string]map[string]remote.Document{},
		cats: map[string][]string{},
	}
}

func (f *fakeRemote) Items(ctx context.Context, uid string) ([]remote.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemsCalls++
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	var out []remote.Document
	for _, d := range f.docs[uid] {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRemote) SetItem(ctx context.Context, uid string, doc remote.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if f.docs[uid] == nil {
		f.docs[uid] = map[string]remote.Document{}
	}
	f.docs[uid][doc.ID] = doc
	return nil
}

func (f *fakeRemote) DeleteItem(ctx context.Context, uid string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.docs[uid], id)
	return nil
}

func (f *fakeRemote) DeleteAllItems(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, uid)
	return nil
}

func (f *fakeRemote) CustomCategories(ctx context.Context, uid string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catsErr != nil {
		return nil, f.catsErr
	}
	return f.cats[uid], nil
}

func (f *fakeRemote) AddCustomCategories(ctx context.Context, uid string, categories []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addCatsErr != nil {
		return f.addCatsErr
	}
	existing := f.cats[uid]
	for _, c := range categories {
		found := false
		for _, e := range existing {
			if e == c {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, c)
		}
	}
	if existing == nil {
		existing = []string{}
	}
	f.cats[uid] = existing
	return nil
}

func (f *fakeRemote) RemoveCustomCategory(ctx context.Context, uid string, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeCatErr != nil {
		return f.removeCatErr
	}
	existing, ok := f.cats[uid]
	if !ok {
		return nil
	}
	out := existing[:0]
	for _, e := range existing {
		if e != category {
			out = append(out, e)
		}
	}
	f.cats[uid] = out
	return nil
}

func (f *fakeRemote) ClearCustomCategories(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cats[uid]; ok {
		f.cats[uid] = []string{}
	}
	return nil
}

func (f *fakeRemote) doc(uid, id string) (remote.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[uid][id]
	return d, ok
}

var testUser = identity.User{UID: "uid-1", Email: "u@example.com"}

func setupService(t *testing.T, fr *fakeRemote) (*Service, *repository.Repository) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.RunMigrations(context.Background(), db))

	st, err := store.NewSQLite(db, []byte("test-secret"), logging.NewDefault(), telemetry.Noop{})
	require.NoError(t, err)
	repo := repository.New(st, logging.NewDefault(), telemetry.Noop{})

	ident := &identity.Static{User: testUser, SignedIn: true}
	svc := New(repo, fr, ident, netx.StaticChecker(true), testSalt, logging.NewDefault(), telemetry.Noop{})
	return svc, repo
}

func encrypt(t *testing.T, plaintext string) string {
	t.Helper()
	key := cryptox.DeriveKey(testUser.UID, testUser.Email, testSalt)
	enc, err := cryptox.EncryptField(plaintext, key)
	require.NoError(t, err)
	return enc
}

func remoteDoc(t *testing.T, id, title, content string) remote.Document {
	t.Helper()
	now := time.Now().UTC()
	return remote.Document{
		ID:        id,
		Title:     encrypt(t, title),
		Content:   encrypt(t, content),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPush_EncryptsAndMirrorsLocally(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	saved, err := svc.CreateItem(context.Background(), models.Item{Title: "secret", Content: "body", Category: "Work"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	doc, ok := fr.doc(testUser.UID, saved.ID)
	require.True(t, ok)
	assert.NotEqual(t, "secret", doc.Title)
	assert.NotEqual(t, "body", doc.Content)
	assert.Equal(t, "Work", doc.Category)

	key := cryptox.DeriveKey(testUser.UID, testUser.Email, testSalt)
	title, err := cryptox.DecryptField(doc.Title, key)
	require.NoError(t, err)
	assert.Equal(t, "secret", title)

	local := repo.GetByID(saved.ID)
	require.NotNil(t, local)
	assert.Equal(t, "secret", local.Title)
	assert.Equal(t, "body", local.Content)
}

func TestPush_RemoteFailureLeavesLocalUntouched(t *testing.T) {
	fr := newFakeRemote()
	fr.setErr = errors.New("unavailable")
	svc, repo := setupService(t, fr)

	_, err := svc.CreateItem(context.Background(), models.Item{Title: "a", Content: "b"})
	require.Error(t, err)
	assert.Empty(t, repo.GetAll())
}

func TestPush_PreservesCreatedAtBumpsUpdatedAt(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	saved, err := svc.Push(context.Background(), models.Item{
		ID: "id-1", Title: "t", Content: "c", CreatedAt: created, UpdatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, created, saved.CreatedAt)
	assert.True(t, saved.UpdatedAt.After(created))
}

func TestPush_RequiresIdentityAndNetwork(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)

	svc.ident = &identity.Static{}
	_, err := svc.Push(context.Background(), models.Item{ID: "x"})
	assert.ErrorIs(t, err, common.ErrNotSignedIn)

	svc.ident = &identity.Static{User: testUser, SignedIn: true}
	svc.net = netx.StaticChecker(false)
	_, err = svc.Push(context.Background(), models.Item{ID: "x"})
	assert.ErrorIs(t, err, common.ErrNoNetwork)
}

func TestUpdateItem_MergesPatch(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	saved, err := svc.CreateItem(context.Background(), models.Item{Title: "old", Content: "keep", Favorite: false})
	require.NoError(t, err)

	updated, err := svc.UpdateItem(context.Background(), saved.ID,
		models.ItemPatch{Title: models.StringPtr("new"), Favorite: models.BoolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "keep", updated.Content)
	assert.True(t, updated.Favorite)

	local := repo.GetByID(saved.ID)
	require.NotNil(t, local)
	assert.Equal(t, "new", local.Title)
}

func TestUpdateItem_UnknownID(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)

	_, err := svc.UpdateItem(context.Background(), "nope", models.ItemPatch{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteItem_RemoteFirst(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	saved, err := svc.CreateItem(context.Background(), models.Item{Title: "t", Content: "c"})
	require.NoError(t, err)

	ok, err := svc.DeleteItem(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, repo.GetByID(saved.ID))
	_, exists := fr.doc(testUser.UID, saved.ID)
	assert.False(t, exists)
}

func TestDeleteItem_KeepsLocalOnRemoteFailure(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	saved, err := svc.CreateItem(context.Background(), models.Item{Title: "t", Content: "c"})
	require.NoError(t, err)

	fr.deleteErr = errors.New("unavailable")
	ok, err := svc.DeleteItem(context.Background(), saved.ID)
	require.Error(t, err)
	assert.False(t, ok)
	assert.NotNil(t, repo.GetByID(saved.ID))
}

func TestPull_ReplacesLocalWithRemote(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	// Local-only item should be discarded by the pull.
	repo.Create(models.Item{Title: "local-only", Content: "x"})

	require.NoError(t, fr.SetItem(context.Background(), testUser.UID, remoteDoc(t, "r1", "remote title", "remote body")))

	require.NoError(t, svc.Pull(context.Background()))

	all := repo.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "r1", all[0].ID)
	assert.Equal(t, "remote title", all[0].Title)
	assert.Equal(t, "remote body", all[0].Content)
}

func TestPull_FetchErrorAbortsWithoutReplace(t *testing.T) {
	fr := newFakeRemote()
	fr.itemsErr = errors.New("unavailable")
	svc, repo := setupService(t, fr)

	repo.Create(models.Item{Title: "keep", Content: "x"})

	err := svc.Pull(context.Background())
	require.Error(t, err)
	require.Len(t, repo.GetAll(), 1)
	assert.Equal(t, "keep", repo.GetAll()[0].Title)
}

func TestPull_UndecryptableFieldKeepsCiphertext(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	doc := remoteDoc(t, "r1", "good", "good")
	doc.Title = "deadbeef:not-base64!!!"
	require.NoError(t, fr.SetItem(context.Background(), testUser.UID, doc))

	require.NoError(t, svc.Pull(context.Background()))

	all := repo.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "deadbeef:not-base64!!!", all[0].Title)
	assert.Equal(t, "good", all[0].Content)
}

func TestPull_CategoriesOverwriteLocal(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	repo.AddCustomCategory("LocalOnly")
	require.NoError(t, fr.AddCustomCategories(context.Background(), testUser.UID, []string{"Remote1", "Remote2"}))

	require.NoError(t, svc.Pull(context.Background()))
	assert.ElementsMatch(t, []string{"Remote1", "Remote2"}, repo.CustomCategories())
}

func TestPull_CategoryFailureDoesNotFailPull(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	repo.AddCustomCategory("LocalOnly")
	fr.catsErr = errors.New("unavailable")

	require.NoError(t, svc.Pull(context.Background()))
	assert.Equal(t, []string{"LocalOnly"}, repo.CustomCategories())
}

func TestPull_MissingUserDocKeepsLocalCategories(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	repo.AddCustomCategory("LocalOnly")

	require.NoError(t, svc.Pull(context.Background()))
	assert.Equal(t, []string{"LocalOnly"}, repo.CustomCategories())
}

func TestPull_NoIdentityIsSilentNoop(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)
	svc.ident = &identity.Static{}

	require.NoError(t, svc.Pull(context.Background()))
	assert.Equal(t, 0, fr.itemsCalls)
}

func TestPull_OfflineReturnsErrNoNetwork(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)
	svc.net = netx.StaticChecker(false)

	assert.ErrorIs(t, svc.Pull(context.Background()), common.ErrNoNetwork)
}

// slowRemote blocks the first Items call until released so a second Pull can
// be attempted while the first is in flight.
type slowRemote struct {
	*fakeRemote
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowRemote) Items(ctx context.Context, uid string) ([]remote.Document, error) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.fakeRemote.Items(ctx, uid)
}

func TestPull_ConcurrentInvocationIsNoop(t *testing.T) {
	sr := &slowRemote{
		fakeRemote: newFakeRemote(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc, _ := setupService(t, sr.fakeRemote)
	svc.remote = sr

	done := make(chan error, 1)
	go func() { done <- svc.Pull(context.Background()) }()
	<-sr.entered

	// Second pull overlaps the first and must bail out without fetching.
	require.NoError(t, svc.Pull(context.Background()))

	close(sr.release)
	require.NoError(t, <-done)

	sr.mu.Lock()
	defer sr.mu.Unlock()
	assert.Equal(t, 1, sr.itemsCalls)
}

func TestPushCustomCategories_UnionSemantics(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)

	require.NoError(t, fr.AddCustomCategories(context.Background(), testUser.UID, []string{"Existing"}))
	require.NoError(t, svc.PushCustomCategories(context.Background(), []string{"New", "Existing"}))

	cats, err := fr.CustomCategories(context.Background(), testUser.UID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Existing", "New"}, cats)
}

func TestDeleteCustomCategory_RemoteThenLocal(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	repo.AddCustomCategory("Work")
	require.NoError(t, fr.AddCustomCategories(context.Background(), testUser.UID, []string{"Work"}))

	require.NoError(t, svc.DeleteCustomCategory(context.Background(), "Work"))
	assert.Empty(t, repo.CustomCategories())
	cats, err := fr.CustomCategories(context.Background(), testUser.UID)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestDeleteCustomCategory_KeepsLocalOnRemoteFailure(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	repo.AddCustomCategory("Work")
	fr.removeCatErr = errors.New("unavailable")

	require.Error(t, svc.DeleteCustomCategory(context.Background(), "Work"))
	assert.Equal(t, []string{"Work"}, repo.CustomCategories())
}

func TestDeleteAllUserData(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)

	_, err := svc.CreateItem(context.Background(), models.Item{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NoError(t, svc.PushCustomCategories(context.Background(), []string{"Work"}))

	require.NoError(t, svc.DeleteAllUserData(context.Background()))

	docs, err := fr.Items(context.Background(), testUser.UID)
	require.NoError(t, err)
	assert.Empty(t, docs)
	cats, err := fr.CustomCategories(context.Background(), testUser.UID)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestReconcile_PushesGuestDataThenPulls(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	// Guest-accumulated state.
	guest := repo.Create(models.Item{Title: "guest note", Content: "body"})
	repo.AddCustomCategory("GuestCat")

	// Pre-existing remote state from another device.
	require.NoError(t, fr.SetItem(context.Background(), testUser.UID, remoteDoc(t, "r1", "other device", "x")))
	require.NoError(t, fr.AddCustomCategories(context.Background(), testUser.UID, []string{"RemoteCat"}))

	require.NoError(t, svc.Reconcile(context.Background()))

	all := repo.GetAll()
	require.Len(t, all, 2)
	titles := []string{all[0].Title, all[1].Title}
	assert.Contains(t, titles, "guest note")
	assert.Contains(t, titles, "other device")

	_, pushed := fr.doc(testUser.UID, guest.ID)
	assert.True(t, pushed)
	assert.ElementsMatch(t, []string{"GuestCat", "RemoteCat"}, repo.CustomCategories())
}

func TestReconcile_PushFailureStillPulls(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	repo.Create(models.Item{Title: "guest", Content: "x"})
	require.NoError(t, fr.SetItem(context.Background(), testUser.UID, remoteDoc(t, "r1", "remote", "x")))

	fr.setErr = errors.New("unavailable")
	require.NoError(t, svc.Reconcile(context.Background()))

	// Remote wins: the failed push means the guest item is gone after the
	// pull, but the remote snapshot landed.
	all := repo.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "remote", all[0].Title)
}

func TestReconcile_EmptyLocalSkipsPushes(t *testing.T) {
	fr := newFakeRemote()
	svc, _ := setupService(t, fr)

	require.NoError(t, svc.Reconcile(context.Background()))
	assert.Equal(t, 1, fr.itemsCalls)
}

func TestEndToEnd_GuestSignInReconcileSignOut(t *testing.T) {
	fr := newFakeRemote()
	svc, repo := setupService(t, fr)

	// Stage 1: guest mode, identity absent.
	ident := &identity.Static{}
	svc.ident = ident
	note := repo.Create(models.Item{Title: "offline note", Content: "draft"})
	repo.AddCustomCategory("Drafts")
	_, err := svc.Push(context.Background(), note)
	assert.ErrorIs(t, err, common.ErrNotSignedIn)

	// Stage 2: sign-in triggers reconciliation.
	ident.User = testUser
	ident.SignedIn = true
	require.NoError(t, svc.Reconcile(context.Background()))

	doc, ok := fr.doc(testUser.UID, note.ID)
	require.True(t, ok)
	assert.False(t, strings.Contains(doc.Title, "offline note"))

	// Stage 3: sign-out clears all local state.
	repo.ClearAll()
	ident.SignedIn = false
	assert.Empty(t, repo.GetAll())
	assert.Empty(t, repo.CustomCategories())

	// Remote copy survives for the next sign-in.
	docs, err := fr.Items(context.Background(), testUser.UID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}
