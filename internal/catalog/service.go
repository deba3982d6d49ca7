package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
)

// Service handles catalog CRUD outside the registrar's batch operations.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListPages returns all pages, active or not.
func (s *Service) ListPages(ctx context.Context) ([]Page, error) {
	return s.repo.ListPages(ctx)
}

// GetPage fetches a page by id.
func (s *Service) GetPage(ctx context.Context, id int64) (Page, error) {
	return s.repo.GetPage(ctx, id)
}

// CreatePage inserts a single page.
func (s *Service) CreatePage(ctx context.Context, input PageInput) (Page, error) {
	input.PageKey = strings.TrimSpace(input.PageKey)
	input.PageName = strings.TrimSpace(input.PageName)
	input.RoutePath = strings.TrimSpace(input.RoutePath)
	if reason := missingPageField(input); reason != "" {
		return Page{}, fmt.Errorf("%w: %s", httpx.ErrValidation, reason)
	}

	var page Page
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, found, err := tx.FindPageByKeyOrRoute(ctx, input.PageKey, input.RoutePath); err != nil {
			return fmt.Errorf("catalog: find page: %w", err)
		} else if found {
			return fmt.Errorf("%w: page key or route already registered", httpx.ErrDuplicate)
		}
		created, err := tx.InsertPage(ctx, input)
		if err != nil {
			return fmt.Errorf("catalog: insert page: %w", err)
		}
		page = created
		return nil
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

// UpdatePage updates display and routing fields of an existing page.
func (s *Service) UpdatePage(ctx context.Context, id int64, input PageInput) error {
	if id <= 0 {
		return fmt.Errorf("%w: page id must be positive", httpx.ErrValidation)
	}
	input.PageName = strings.TrimSpace(input.PageName)
	input.RoutePath = strings.TrimSpace(input.RoutePath)
	if input.PageName == "" || input.RoutePath == "" {
		return fmt.Errorf("%w: page_name and route_path are required", httpx.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePage(ctx, id, input)
	})
}

// DeactivatePage soft-deletes a page. Deactivated pages never match a route
// during authorization.
func (s *Service) DeactivatePage(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: page id must be positive", httpx.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeactivatePage(ctx, id)
	})
}

// DeletePage hard-deletes a page. Rejected while any permission references
// the page; the reference check and the delete share one transaction.
func (s *Service) DeletePage(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: page id must be positive", httpx.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		count, err := tx.CountPermissionsForPage(ctx, id)
		if err != nil {
			return fmt.Errorf("catalog: count permissions: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: page has %d permissions, deactivate instead", httpx.ErrConflict, count)
		}
		return tx.DeletePage(ctx, id)
	})
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission registers a single action on a page. The perm key is
// derived, never caller-supplied.
func (s *Service) CreatePermission(ctx context.Context, pageID int64, actionKey string) (string, error) {
	actionKey = strings.TrimSpace(strings.ToLower(actionKey))
	if pageID <= 0 || actionKey == "" {
		return "", fmt.Errorf("%w: page id and action key are required", httpx.ErrValidation)
	}

	var key string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		page, err := s.repo.GetPage(ctx, pageID)
		if err != nil {
			return err
		}
		key = PermKey(page.PageKey, actionKey)
		inserted, err := tx.InsertPermission(ctx, page.ID, actionKey, key)
		if err != nil {
			return fmt.Errorf("catalog: insert permission %q: %w", key, err)
		}
		if !inserted {
			return fmt.Errorf("%w: permission %q already exists", httpx.ErrDuplicate, key)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// DeactivatePermission soft-deletes a permission.
func (s *Service) DeactivatePermission(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: permission id must be positive", httpx.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeactivatePermission(ctx, id)
	})
}
