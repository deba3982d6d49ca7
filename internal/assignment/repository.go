package assignment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseflow-app/caseflow/internal/platform/db"
)

// Repository defines assignment data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	ListRolePermissions(ctx context.Context, roleID int64) ([]RolePermission, error)
	ListUserPermissions(ctx context.Context, userID int64) ([]UserPermission, error)
	ListUserRoles(ctx context.Context, userID int64) ([]UserRole, error)
}

// TxRepository defines assignment operations within a transaction.
type TxRepository interface {
	RoleExists(ctx context.Context, roleID int64) (bool, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	UpsertRolePermission(ctx context.Context, roleID, permissionID int64, isAllowed bool) error
	UpsertUserPermission(ctx context.Context, userID, permissionID int64, isAllowed bool) error
	DeleteUserRoles(ctx context.Context, userID int64) error
	InsertUserRole(ctx context.Context, userID, roleID int64) error
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

func (r *pgRepository) ListRolePermissions(ctx context.Context, roleID int64) ([]RolePermission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role_id, permission_id, is_allowed, granted_at FROM role_permissions WHERE role_id = $1 ORDER BY permission_id`,
		roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []RolePermission
	for rows.Next() {
		var link RolePermission
		if err := rows.Scan(&link.RoleID, &link.PermissionID, &link.IsAllowed, &link.GrantedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *pgRepository) ListUserPermissions(ctx context.Context, userID int64) ([]UserPermission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, permission_id, is_allowed, granted_at FROM user_permissions WHERE user_id = $1 ORDER BY permission_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []UserPermission
	for rows.Next() {
		var link UserPermission
		if err := rows.Scan(&link.UserID, &link.PermissionID, &link.IsAllowed, &link.GrantedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *pgRepository) ListUserRoles(ctx context.Context, userID int64) ([]UserRole, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, role_id, assigned_at FROM user_roles WHERE user_id = $1 ORDER BY role_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []UserRole
	for rows.Next() {
		var link UserRole
		if err := rows.Scan(&link.UserID, &link.RoleID, &link.AssignedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&exists)
	return exists, err
}

func (r *pgTxRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}

func (r *pgTxRepository) UpsertRolePermission(ctx context.Context, roleID, permissionID int64, isAllowed bool) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, is_allowed, granted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (role_id, permission_id) DO UPDATE SET is_allowed = EXCLUDED.is_allowed`,
		roleID, permissionID, isAllowed)
	return err
}

func (r *pgTxRepository) UpsertUserPermission(ctx context.Context, userID, permissionID int64, isAllowed bool) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO user_permissions (user_id, permission_id, is_allowed, granted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, permission_id) DO UPDATE SET is_allowed = EXCLUDED.is_allowed`,
		userID, permissionID, isAllowed)
	return err
}

func (r *pgTxRepository) DeleteUserRoles(ctx context.Context, userID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	return err
}

func (r *pgTxRepository) InsertUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, assigned_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID, roleID)
	return err
}
