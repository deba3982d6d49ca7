package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
	"github.com/caseflow-app/caseflow/internal/shared"
)

// memoryCatalog is an in-memory Repository with real commit/rollback
// semantics: a transaction mutates a snapshot that only replaces the
// committed state when the callback succeeds.
type memoryCatalog struct {
	mu         sync.Mutex
	nextPageID int64
	nextPermID int64
	pages      map[int64]Page
	perms      map[int64]Permission

	failInsertPageKey string
	failInsertPermKey string
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		pages: make(map[int64]Page),
		perms: make(map[int64]Permission),
	}
}

type memoryCatalogTx struct {
	repo       *memoryCatalog
	nextPageID int64
	nextPermID int64
	pages      map[int64]Page
	perms      map[int64]Permission
}

func (m *memoryCatalog) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryCatalogTx{
		repo:       m,
		nextPageID: m.nextPageID,
		nextPermID: m.nextPermID,
		pages:      clonePages(m.pages),
		perms:      clonePerms(m.perms),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.nextPageID = tx.nextPageID
	m.nextPermID = tx.nextPermID
	m.pages = tx.pages
	m.perms = tx.perms
	return nil
}

func clonePages(src map[int64]Page) map[int64]Page {
	dst := make(map[int64]Page, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func clonePerms(src map[int64]Permission) map[int64]Permission {
	dst := make(map[int64]Permission, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memoryCatalog) ListPages(ctx context.Context) ([]Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pages []Page
	for _, p := range m.pages {
		pages = append(pages, p)
	}
	return pages, nil
}

func (m *memoryCatalog) ListActivePages(ctx context.Context) ([]Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pages []Page
	for _, p := range m.pages {
		if p.IsActive {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func (m *memoryCatalog) GetPage(ctx context.Context, id int64) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		return Page{}, shared.ErrNotFound
	}
	return page, nil
}

func (m *memoryCatalog) ListPermissions(ctx context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var perms []Permission
	for _, p := range m.perms {
		perms = append(perms, p)
	}
	return perms, nil
}

func (t *memoryCatalogTx) FindPageByKeyOrRoute(ctx context.Context, pageKey, routePath string) (Page, bool, error) {
	for _, p := range t.pages {
		if p.PageKey == pageKey || p.RoutePath == routePath {
			return p, true, nil
		}
	}
	return Page{}, false, nil
}

func (t *memoryCatalogTx) InsertPage(ctx context.Context, input PageInput) (Page, error) {
	if t.repo.failInsertPageKey != "" && input.PageKey == t.repo.failInsertPageKey {
		return Page{}, errors.New("store unavailable")
	}
	t.nextPageID++
	page := Page{
		ID:         t.nextPageID,
		PageKey:    input.PageKey,
		PageName:   input.PageName,
		RoutePath:  input.RoutePath,
		SectionKey: input.SectionKey,
		SortOrder:  input.SortOrder,
		IsActive:   true,
	}
	t.pages[page.ID] = page
	return page, nil
}

func (t *memoryCatalogTx) UpdatePage(ctx context.Context, id int64, input PageInput) error {
	page, ok := t.pages[id]
	if !ok {
		return shared.ErrNotFound
	}
	page.PageName = input.PageName
	page.RoutePath = input.RoutePath
	page.SectionKey = input.SectionKey
	page.SortOrder = input.SortOrder
	page.IsActive = true
	t.pages[id] = page
	return nil
}

func (t *memoryCatalogTx) DeactivatePage(ctx context.Context, id int64) error {
	page, ok := t.pages[id]
	if !ok {
		return shared.ErrNotFound
	}
	page.IsActive = false
	t.pages[id] = page
	return nil
}

func (t *memoryCatalogTx) DeletePage(ctx context.Context, id int64) error {
	if _, ok := t.pages[id]; !ok {
		return shared.ErrNotFound
	}
	delete(t.pages, id)
	return nil
}

func (t *memoryCatalogTx) CountPermissionsForPage(ctx context.Context, pageID int64) (int, error) {
	count := 0
	for _, p := range t.perms {
		if p.PageID == pageID {
			count++
		}
	}
	return count, nil
}

func (t *memoryCatalogTx) ListActivePages(ctx context.Context) ([]Page, error) {
	var pages []Page
	for _, p := range t.pages {
		if p.IsActive {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func (t *memoryCatalogTx) InsertPermission(ctx context.Context, pageID int64, actionKey, permKey string) (bool, error) {
	if t.repo.failInsertPermKey != "" && permKey == t.repo.failInsertPermKey {
		return false, errors.New("store unavailable")
	}
	for _, p := range t.perms {
		if p.PermKey == permKey {
			return false, nil
		}
	}
	t.nextPermID++
	t.perms[t.nextPermID] = Permission{
		ID:        t.nextPermID,
		PermKey:   permKey,
		ActionKey: actionKey,
		PageID:    pageID,
		IsActive:  true,
	}
	return true, nil
}

func (t *memoryCatalogTx) ExistingPermKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{}, len(t.perms))
	for _, p := range t.perms {
		keys[p.PermKey] = struct{}{}
	}
	return keys, nil
}

func (t *memoryCatalogTx) DeactivatePermission(ctx context.Context, id int64) error {
	perm, ok := t.perms[id]
	if !ok {
		return shared.ErrNotFound
	}
	perm.IsActive = false
	t.perms[id] = perm
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func routeInputs() []PageInput {
	return []PageInput{
		{PageKey: "dashboard", PageName: "Dashboard", RoutePath: "/dashboard", SectionKey: "main", SortOrder: 1},
		{PageKey: "families", PageName: "Families", RoutePath: "/families", SectionKey: "records", SortOrder: 2},
		{PageKey: "interventions", PageName: "Interventions", RoutePath: "/interventions", SectionKey: "records", SortOrder: 3},
	}
}

func TestSyncPagesInsertsThenUpdates(t *testing.T) {
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())

	first, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)
	require.Equal(t, 3, first.Inserted)
	require.Equal(t, 0, first.Updated)

	second, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)
	require.Equal(t, 0, second.Inserted)
	require.Equal(t, 3, second.Updated)

	pages, err := repo.ListPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)
}

func TestSyncPagesSkipsIncompleteInputs(t *testing.T) {
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())

	inputs := append(routeInputs(), PageInput{PageKey: "orphan", RoutePath: "/orphan"})
	report, err := reg.SyncPages(context.Background(), inputs)
	require.NoError(t, err)
	require.Equal(t, 3, report.Inserted)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, "page_name is required", report.Items[3].Reason)
}

func TestSyncPagesMatchesByRoutePathAlone(t *testing.T) {
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())

	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)

	// Renamed key, same route: must update the existing row, not insert.
	report, err := reg.SyncPages(context.Background(), []PageInput{
		{PageKey: "dash", PageName: "Dashboard v2", RoutePath: "/dashboard"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Updated)

	pages, err := repo.ListPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)
}

func TestSyncPagesReactivatesDeactivatedPage(t *testing.T) {
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())
	svc := NewService(repo)

	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)
	require.NoError(t, svc.DeactivatePage(context.Background(), 1))

	_, err = reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)

	page, err := repo.GetPage(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, page.IsActive)
}

func TestSyncPagesRollsBackOnStoreError(t *testing.T) {
	repo := newMemoryCatalog()
	repo.failInsertPageKey = "interventions"
	reg := NewRegistrar(repo, discardLogger())

	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.Error(t, err)

	pages, err := repo.ListPages(context.Background())
	require.NoError(t, err)
	require.Empty(t, pages, "failed batch must not leave partial rows")
}

func TestSyncPagesRejectsEmptyBatch(t *testing.T) {
	reg := NewRegistrar(newMemoryCatalog(), discardLogger())
	_, err := reg.SyncPages(context.Background(), nil)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGeneratePermissionsIsIdempotent(t *testing.T) {
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())

	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)

	actions := []string{"view", "add", "edit", "delete"}
	first, err := reg.GeneratePermissions(context.Background(), actions)
	require.NoError(t, err)
	require.Equal(t, 12, first.Generated)
	require.Equal(t, 0, first.Skipped)

	second, err := reg.GeneratePermissions(context.Background(), actions)
	require.NoError(t, err)
	require.Equal(t, 0, second.Generated)
	require.Equal(t, 12, second.Skipped)

	perms, err := repo.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Len(t, perms, 12)
}

func TestGeneratePermissionsSkipsInactivePages(t *testing.T) {
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())
	svc := NewService(repo)

	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)
	require.NoError(t, svc.DeactivatePage(context.Background(), 1))

	report, err := reg.GeneratePermissions(context.Background(), []string{"view"})
	require.NoError(t, err)
	require.Equal(t, 2, report.Generated)
}

func TestGeneratePermissionsRejectsEmptyActionSet(t *testing.T) {
	reg := NewRegistrar(newMemoryCatalog(), discardLogger())
	_, err := reg.GeneratePermissions(context.Background(), []string{" ", ""})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGeneratePermissionsRollsBackOnStoreError(t *testing.T) {
	repo := newMemoryCatalog()
	repo.failInsertPermKey = PermKey("families", "edit")
	reg := NewRegistrar(repo, discardLogger())

	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)

	_, err = reg.GeneratePermissions(context.Background(), []string{"view", "edit"})
	require.Error(t, err)

	perms, err := repo.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestGeneratePermissionsConcurrentCallsNeverDuplicate(t *testing.T) {
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())

	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)

	var group errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		group.Go(func() error {
			actions := []string{"view", "edit"}
			if i%2 == 0 {
				actions = []string{"edit", "delete"}
			}
			_, err := reg.GeneratePermissions(context.Background(), actions)
			return err
		})
	}
	require.NoError(t, group.Wait())

	perms, err := repo.ListPermissions(context.Background())
	require.NoError(t, err)
	seen := make(map[string]int)
	for _, p := range perms {
		seen[p.PermKey]++
	}
	for key, count := range seen {
		require.Equalf(t, 1, count, "perm key %s duplicated", key)
	}
	// 3 pages x {view, edit, delete}
	require.Len(t, perms, 9)
}

func TestPermKeyComposition(t *testing.T) {
	require.Equal(t, "families:edit", PermKey("families", "edit"))
	require.Equal(t, fmt.Sprintf("%s:%s", "dashboard", "view"), PermKey("dashboard", "view"))
}
