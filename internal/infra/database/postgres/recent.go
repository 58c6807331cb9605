package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

var _ domain.RecentRepo = (*PGRepo)(nil)

// Touch upserts item with the current time and drops everything past the
// newest domain.MaxRecentItems, in one transaction.
func (r *PGRepo) Touch(ctx context.Context, owner domain.RecentOwner, item domain.RecentItem) ([]domain.RecentItem, error) {
	const op = "RecentTouch"
	start := time.Now()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logDone(op, start, err)
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrUnexpected, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if item.Type == "" {
		item.Type = "window"
	}
	ins := r.qb().Insert(r.table("recent_items")).
		Columns("user_id", "role_id", "item_id", "name", "window_id", "item_type", "opened_at").
		Values(owner.UserID, owner.RoleID, item.ID, item.Name, item.WindowID, item.Type, sq.Expr("now()")).
		Suffix("ON CONFLICT (user_id, role_id, item_id) DO UPDATE SET name = EXCLUDED.name, " +
			"window_id = EXCLUDED.window_id, item_type = EXCLUDED.item_type, opened_at = EXCLUDED.opened_at")
	sqlStr, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build insert: %v", domain.ErrUnexpected, err)
	}
	r.logSQL(op, sqlStr, args)
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		r.logDone(op, start, err)
		return nil, fmt.Errorf("%w: upsert recent: %v", domain.ErrUnexpected, err)
	}

	keep := r.qb().Select("item_id").From(r.table("recent_items")).
		Where(sq.Eq{"user_id": owner.UserID, "role_id": owner.RoleID}).
		OrderBy("opened_at DESC").
		Limit(domain.MaxRecentItems)
	keepSQL, keepArgs, err := keep.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build trim: %v", domain.ErrUnexpected, err)
	}
	del := r.qb().Delete(r.table("recent_items")).
		Where(sq.Eq{"user_id": owner.UserID, "role_id": owner.RoleID}).
		Where(sq.Expr("item_id NOT IN ("+keepSQL+")", keepArgs...))
	sqlStr, args, err = del.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build trim: %v", domain.ErrUnexpected, err)
	}
	r.logSQL(op, sqlStr, args)
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		r.logDone(op, start, err)
		return nil, fmt.Errorf("%w: trim recent: %v", domain.ErrUnexpected, err)
	}

	items, err := r.list(ctx, tx, owner)
	if err != nil {
		r.logDone(op, start, err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		r.logDone(op, start, err)
		return nil, fmt.Errorf("%w: commit: %v", domain.ErrUnexpected, err)
	}
	r.logDone(op, start, nil)
	return items, nil
}

func (r *PGRepo) List(ctx context.Context, owner domain.RecentOwner) ([]domain.RecentItem, error) {
	start := time.Now()
	items, err := r.list(ctx, r.pool, owner)
	r.logDone("RecentList", start, err)
	return items, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PGRepo) list(ctx context.Context, q querier, owner domain.RecentOwner) ([]domain.RecentItem, error) {
	sel := r.qb().Select("item_id", "name", "window_id", "item_type", "opened_at").
		From(r.table("recent_items")).
		Where(sq.Eq{"user_id": owner.UserID, "role_id": owner.RoleID}).
		OrderBy("opened_at DESC").
		Limit(domain.MaxRecentItems)
	sqlStr, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build select: %v", domain.ErrUnexpected, err)
	}
	r.logSQL("RecentList", sqlStr, args)

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list recent: %v", domain.ErrUnexpected, err)
	}
	defer rows.Close()

	out := []domain.RecentItem{}
	for rows.Next() {
		var it domain.RecentItem
		if err := rows.Scan(&it.ID, &it.Name, &it.WindowID, &it.Type, &it.OpenedAt); err != nil {
			return nil, fmt.Errorf("%w: scan recent: %v", domain.ErrUnexpected, err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", domain.ErrUnexpected, err)
	}
	return out, nil
}
