package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseflow-app/caseflow/internal/platform/db"
	"github.com/caseflow-app/caseflow/internal/shared"
)

// Repository defines catalog data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	ListPages(ctx context.Context) ([]Page, error)
	ListActivePages(ctx context.Context) ([]Page, error)
	GetPage(ctx context.Context, id int64) (Page, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// TxRepository defines catalog operations within a transaction.
type TxRepository interface {
	FindPageByKeyOrRoute(ctx context.Context, pageKey, routePath string) (Page, bool, error)
	InsertPage(ctx context.Context, input PageInput) (Page, error)
	UpdatePage(ctx context.Context, id int64, input PageInput) error
	DeactivatePage(ctx context.Context, id int64) error
	DeletePage(ctx context.Context, id int64) error
	CountPermissionsForPage(ctx context.Context, pageID int64) (int, error)

	ListActivePages(ctx context.Context) ([]Page, error)
	InsertPermission(ctx context.Context, pageID int64, actionKey, permKey string) (bool, error)
	ExistingPermKeys(ctx context.Context) (map[string]struct{}, error)
	DeactivatePermission(ctx context.Context, id int64) error
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

const pageColumns = `id, page_key, page_name, route_path, section_key, sort_order, is_active, created_at, updated_at`

func scanPage(row pgx.Row) (Page, error) {
	var p Page
	err := row.Scan(&p.ID, &p.PageKey, &p.PageName, &p.RoutePath, &p.SectionKey, &p.SortOrder, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectPages(rows pgx.Rows) ([]Page, error) {
	defer rows.Close()
	var pages []Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *pgRepository) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY section_key, sort_order, id`)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

func (r *pgRepository) ListActivePages(ctx context.Context) ([]Page, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pageColumns+` FROM pages WHERE is_active ORDER BY section_key, sort_order, id`)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

func (r *pgRepository) GetPage(ctx context.Context, id int64) (Page, error) {
	page, err := scanPage(r.pool.QueryRow(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Page{}, shared.ErrNotFound
		}
		return Page{}, err
	}
	return page, nil
}

func (r *pgRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, perm_key, action_key, page_id, is_active, created_at FROM permissions ORDER BY perm_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.PermKey, &perm.ActionKey, &perm.PageID, &perm.IsActive, &perm.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) FindPageByKeyOrRoute(ctx context.Context, pageKey, routePath string) (Page, bool, error) {
	page, err := scanPage(r.tx.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE page_key = $1 OR route_path = $2 LIMIT 1`,
		pageKey, routePath))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Page{}, false, nil
		}
		return Page{}, false, err
	}
	return page, true, nil
}

func (r *pgTxRepository) InsertPage(ctx context.Context, input PageInput) (Page, error) {
	return scanPage(r.tx.QueryRow(ctx, `
		INSERT INTO pages (page_key, page_name, route_path, section_key, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING `+pageColumns,
		input.PageKey, input.PageName, input.RoutePath, input.SectionKey, input.SortOrder))
}

func (r *pgTxRepository) UpdatePage(ctx context.Context, id int64, input PageInput) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE pages
		SET page_name = $1, route_path = $2, section_key = $3, sort_order = $4, is_active = TRUE, updated_at = NOW()
		WHERE id = $5`,
		input.PageName, input.RoutePath, input.SectionKey, input.SortOrder, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgTxRepository) DeactivatePage(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE pages SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgTxRepository) DeletePage(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgTxRepository) CountPermissionsForPage(ctx context.Context, pageID int64) (int, error) {
	var count int
	if err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE page_id = $1`, pageID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pgTxRepository) ListActivePages(ctx context.Context) ([]Page, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+pageColumns+` FROM pages WHERE is_active ORDER BY section_key, sort_order, id`)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

// InsertPermission inserts a permission row unless its perm_key already
// exists. The unique index carries the race between concurrent generators;
// the returned bool reports whether a row was actually inserted.
func (r *pgTxRepository) InsertPermission(ctx context.Context, pageID int64, actionKey, permKey string) (bool, error) {
	tag, err := r.tx.Exec(ctx, `
		INSERT INTO permissions (perm_key, action_key, page_id, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (perm_key) DO NOTHING`,
		permKey, actionKey, pageID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgTxRepository) ExistingPermKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.tx.Query(ctx, `SELECT perm_key FROM permissions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *pgTxRepository) DeactivatePermission(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE permissions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
