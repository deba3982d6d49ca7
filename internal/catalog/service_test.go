package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
)

func seedCatalog(t *testing.T) (*memoryCatalog, *Service) {
	t.Helper()
	repo := newMemoryCatalog()
	reg := NewRegistrar(repo, discardLogger())
	_, err := reg.SyncPages(context.Background(), routeInputs())
	require.NoError(t, err)
	return repo, NewService(repo)
}

func TestCreatePageRejectsDuplicateKeyOrRoute(t *testing.T) {
	_, svc := seedCatalog(t)

	_, err := svc.CreatePage(context.Background(), PageInput{
		PageKey: "dashboard2", PageName: "Other", RoutePath: "/dashboard",
	})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.CreatePage(context.Background(), PageInput{
		PageKey: "dashboard", PageName: "Other", RoutePath: "/elsewhere",
	})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestDeletePageGuardedByPermissionReferences(t *testing.T) {
	repo, svc := seedCatalog(t)
	reg := NewRegistrar(repo, discardLogger())

	_, err := reg.GeneratePermissions(context.Background(), []string{"view"})
	require.NoError(t, err)

	err = svc.DeletePage(context.Background(), 1)
	require.ErrorIs(t, err, httpx.ErrConflict)

	pages, err := repo.ListPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)
}

func TestDeletePageWithoutReferencesSucceeds(t *testing.T) {
	repo, svc := seedCatalog(t)

	require.NoError(t, svc.DeletePage(context.Background(), 2))

	pages, err := repo.ListPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)
}

func TestCreatePermissionDerivesKey(t *testing.T) {
	_, svc := seedCatalog(t)

	key, err := svc.CreatePermission(context.Background(), 2, "Approve")
	require.NoError(t, err)
	require.Equal(t, "families:approve", key)

	_, err = svc.CreatePermission(context.Background(), 2, "approve")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreatePermissionValidatesInput(t *testing.T) {
	_, svc := seedCatalog(t)

	_, err := svc.CreatePermission(context.Background(), 0, "view")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreatePermission(context.Background(), 2, "  ")
	require.ErrorIs(t, err, httpx.ErrValidation)
}
