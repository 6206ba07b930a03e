// store.go: 垃圾评论查询/删除 (is_public = FALSE 且早于 cutoff)。
package comments

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/comment-utils/delete-spam-comments/internal/config"
	apperrors "github.com/comment-utils/delete-spam-comments/pkg/errors"
)

// DB pgxpool.Pool 的最小子集，测试可替换。
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Comment 一条待删除评论的摘要 (仅用于 verbosity 2 输出)。
type Comment struct {
	ID      string `db:"id"`
	Summary string `db:"summary"`
}

// SpamStore 垃圾评论存储。表/列名来自 settings。
type SpamStore struct {
	db DB
	q  queries
}

// NewSpamStore 创建垃圾评论存储。
func NewSpamStore(db DB, cols config.CommentSettings) *SpamStore {
	return &SpamStore{db: db, q: buildQueries(cols)}
}

// queries 预先拼好的 SQL (标识符已 Sanitize，cutoff 为 $1)。
type queries struct {
	count           string
	list            string
	delete          string
	deleteReturning string
}

func buildQueries(cols config.CommentSettings) queries {
	table := pgx.Identifier{cols.Table}.Sanitize()
	id := pgx.Identifier{cols.IDColumn}.Sanitize()
	summary := pgx.Identifier{cols.SummaryColumn}.Sanitize()
	date := pgx.Identifier{cols.DateColumn}.Sanitize()
	where := fmt.Sprintf("%s = FALSE AND %s < $1",
		pgx.Identifier{cols.PublicColumn}.Sanitize(), date)
	picked := fmt.Sprintf("%s::text AS id, COALESCE(%s::text, '') AS summary", id, summary)

	return queries{
		count:           fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where),
		list:            fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s, %s", picked, table, where, date, id),
		delete:          fmt.Sprintf("DELETE FROM %s WHERE %s", table, where),
		deleteReturning: fmt.Sprintf("DELETE FROM %s WHERE %s RETURNING %s", table, where, picked),
	}
}

// Count 统计早于 cutoff 的非公开评论数。
func (s *SpamStore) Count(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, s.q.count, cutoff).Scan(&n); err != nil {
		return 0, apperrors.Wrap(err, "SpamStore.Count", "count spam comments")
	}
	return n, nil
}

// List 列出早于 cutoff 的非公开评论 (按日期升序)。
func (s *SpamStore) List(ctx context.Context, cutoff time.Time) ([]Comment, error) {
	rows, err := s.db.Query(ctx, s.q.list, cutoff)
	if err != nil {
		return nil, apperrors.Wrap(err, "SpamStore.List", "query spam comments")
	}
	items, err := collectRows[Comment](rows)
	if err != nil {
		return nil, apperrors.Wrap(err, "SpamStore.List", "scan spam comments")
	}
	return items, nil
}

// Delete 在单个事务内删除早于 cutoff 的非公开评论，返回删除行数。
func (s *SpamStore) Delete(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, s.q.delete, cutoff)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "SpamStore.Delete", "delete spam comments")
	}
	return n, nil
}

// DeleteReturning 同 Delete，但返回被删除评论的摘要。
func (s *SpamStore) DeleteReturning(ctx context.Context, cutoff time.Time) ([]Comment, error) {
	var deleted []Comment
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, s.q.deleteReturning, cutoff)
		if err != nil {
			return err
		}
		deleted, err = collectRows[Comment](rows)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "SpamStore.DeleteReturning", "delete spam comments")
	}
	return deleted, nil
}

// collectRows 使用 pgx.CollectRows + RowToStructByName 扫描行到 struct slice。
func collectRows[T any](rows pgx.Rows) ([]T, error) {
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}
