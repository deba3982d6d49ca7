package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
)

// Service handles role business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}

	var role Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := tx.InsertRole(ctx, name, strings.TrimSpace(description))
		if err != nil {
			return err
		}
		role = created
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	if id <= 0 {
		return Role{}, fmt.Errorf("%w: role id must be positive", httpx.ErrValidation)
	}

	var role Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		updated, err := tx.UpdateRole(ctx, id, name, strings.TrimSpace(description))
		if err != nil {
			return err
		}
		role = updated
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role. A role still held by any user cannot be
// deleted; its permission links are removed first, then the role itself.
// The membership check and the delete share one transaction.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: role id must be positive", httpx.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		count, err := tx.CountUserRoles(ctx, id)
		if err != nil {
			return fmt.Errorf("roles: count members: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: role assigned to %d users", httpx.ErrConflict, count)
		}
		if err := tx.DeleteRolePermissions(ctx, id); err != nil {
			return fmt.Errorf("roles: delete permission links: %w", err)
		}
		return tx.DeleteRole(ctx, id)
	})
}
