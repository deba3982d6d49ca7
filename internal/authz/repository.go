package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Store = (*pgStore)(nil)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs the PostgreSQL backed read view for the engine. Every
// call reads current committed state; there is no cache in between.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) ActiveRoutes(ctx context.Context) ([]PageRoute, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, route_path FROM pages WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var routes []PageRoute
	for rows.Next() {
		var route PageRoute
		if err := rows.Scan(&route.PageID, &route.RoutePath); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func (s *pgStore) FindPermission(ctx context.Context, pageID int64, actionKey string) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM permissions WHERE page_id = $1 AND action_key = $2 AND is_active`,
		pageID, actionKey).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (s *pgStore) UserOverride(ctx context.Context, userID, permissionID int64) (bool, bool, error) {
	var allowed bool
	err := s.pool.QueryRow(ctx,
		`SELECT is_allowed FROM user_permissions WHERE user_id = $1 AND permission_id = $2`,
		userID, permissionID).Scan(&allowed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, err
	}
	return allowed, true, nil
}

func (s *pgStore) AnyRoleAllows(ctx context.Context, userID, permissionID int64) (bool, error) {
	var allowed bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			WHERE ur.user_id = $1 AND rp.permission_id = $2 AND rp.is_allowed
		)`,
		userID, permissionID).Scan(&allowed)
	if err != nil {
		return false, err
	}
	return allowed, nil
}
