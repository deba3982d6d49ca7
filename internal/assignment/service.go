package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
)

// Service handles bulk role/permission assignment. Each operation runs in one
// transaction: invalid individual entries are skipped and logged, while an
// invalid top-level target or a store error fails the whole call.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetRolePermissions upserts the given grant/deny entries for a role.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, updates []PermissionUpdate) (Report, error) {
	if roleID <= 0 {
		return Report{}, fmt.Errorf("%w: role id must be positive", httpx.ErrValidation)
	}

	var report Report
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.RoleExists(ctx, roleID)
		if err != nil {
			return fmt.Errorf("assignment: check role %d: %w", roleID, err)
		}
		if !exists {
			return fmt.Errorf("%w: role %d", httpx.ErrNotFound, roleID)
		}
		for _, update := range updates {
			if update.PermissionID <= 0 {
				report.Skipped++
				s.logger.Warn("set role permissions: invalid permission id",
					slog.Int64("role_id", roleID),
					slog.Int64("permission_id", update.PermissionID))
				continue
			}
			if err := tx.UpsertRolePermission(ctx, roleID, update.PermissionID, update.IsAllowed); err != nil {
				return fmt.Errorf("assignment: upsert role permission (%d,%d): %w", roleID, update.PermissionID, err)
			}
			report.Applied++
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	s.logger.Info("role permissions updated",
		slog.Int64("role_id", roleID),
		slog.Int("applied", report.Applied),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

// SetUserPermissions upserts per-user overrides. The upsert is a single
// atomic statement per pair, so concurrent callers touching the same
// (user, permission) cannot interleave a check with a write.
func (s *Service) SetUserPermissions(ctx context.Context, userID int64, updates []PermissionUpdate) (Report, error) {
	if userID <= 0 {
		return Report{}, fmt.Errorf("%w: user id must be positive", httpx.ErrValidation)
	}

	var report Report
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return fmt.Errorf("assignment: check user %d: %w", userID, err)
		}
		if !exists {
			return fmt.Errorf("%w: user %d", httpx.ErrNotFound, userID)
		}
		for _, update := range updates {
			if update.PermissionID <= 0 {
				report.Skipped++
				s.logger.Warn("set user permissions: invalid permission id",
					slog.Int64("user_id", userID),
					slog.Int64("permission_id", update.PermissionID))
				continue
			}
			if err := tx.UpsertUserPermission(ctx, userID, update.PermissionID, update.IsAllowed); err != nil {
				return fmt.Errorf("assignment: upsert user permission (%d,%d): %w", userID, update.PermissionID, err)
			}
			report.Applied++
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	s.logger.Info("user permissions updated",
		slog.Int64("user_id", userID),
		slog.Int("applied", report.Applied),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

// SetUserRoles replaces the user's role set wholesale: callers pass the
// complete desired set every time, and omitting a held role revokes it.
func (s *Service) SetUserRoles(ctx context.Context, userID int64, roleIDs []int64) (Report, error) {
	if userID <= 0 {
		return Report{}, fmt.Errorf("%w: user id must be positive", httpx.ErrValidation)
	}

	var report Report
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return fmt.Errorf("assignment: check user %d: %w", userID, err)
		}
		if !exists {
			return fmt.Errorf("%w: user %d", httpx.ErrNotFound, userID)
		}
		if err := tx.DeleteUserRoles(ctx, userID); err != nil {
			return fmt.Errorf("assignment: clear user roles %d: %w", userID, err)
		}
		seen := make(map[int64]struct{}, len(roleIDs))
		for _, roleID := range roleIDs {
			if roleID <= 0 {
				report.Skipped++
				s.logger.Warn("set user roles: invalid role id",
					slog.Int64("user_id", userID),
					slog.Int64("role_id", roleID))
				continue
			}
			if _, ok := seen[roleID]; ok {
				continue
			}
			seen[roleID] = struct{}{}
			if err := tx.InsertUserRole(ctx, userID, roleID); err != nil {
				return fmt.Errorf("assignment: insert user role (%d,%d): %w", userID, roleID, err)
			}
			report.Applied++
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	s.logger.Info("user roles replaced",
		slog.Int64("user_id", userID),
		slog.Int("applied", report.Applied),
		slog.Int("skipped", report.Skipped))
	return report, nil
}
