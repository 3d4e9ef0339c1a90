package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"weekly-menu/internal/domain"
	"weekly-menu/internal/repository"
)

const createDocumentTable = `
CREATE TABLE IF NOT EXISTS %[1]s (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	owner TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	offline_id TEXT NOT NULL,
	insert_timestamp INTEGER NOT NULL,
	update_timestamp INTEGER NOT NULL,
	data TEXT NOT NULL,
	UNIQUE(owner, offline_id)
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_owner_updated ON %[1]s(owner, update_timestamp);
`

// Metadata fields that live in their own columns.
var documentColumns = map[string]string{
	"_id":              "id",
	"offline_id":       "offline_id",
	"owner":            "owner",
	"insert_timestamp": "insert_timestamp",
	"update_timestamp": "update_timestamp",
}

// DocumentRepository stores owned documents of one collection as JSON rows.
type DocumentRepository[T any, P domain.DocumentPtr[T]] struct {
	db    *sqlx.DB
	table string
}

func NewDocumentRepository[T any, P domain.DocumentPtr[T]](db *sqlx.DB, table string) *DocumentRepository[T, P] {
	return &DocumentRepository[T, P]{db: db, table: table}
}

var _ repository.DocumentRepository[domain.Recipe, *domain.Recipe] = (*DocumentRepository[domain.Recipe, *domain.Recipe])(nil)

func (r *DocumentRepository[T, P]) Collection() string {
	return r.table
}

func (r *DocumentRepository[T, P]) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(createDocumentTable, r.table)); err != nil {
		return fmt.Errorf("create %s table: %w", r.table, err)
	}
	return nil
}

func (r *DocumentRepository[T, P]) Insert(ctx context.Context, doc P) error {
	return r.insert(ctx, r.db, doc)
}

func (r *DocumentRepository[T, P]) insert(ctx context.Context, ex sqlx.ExecerContext, doc P) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", r.table, err)
	}
	meta := doc.Metadata()

	query, args, err := sq.Insert(r.table).
		Columns("id", "owner", "offline_id", "insert_timestamp", "update_timestamp", "data").
		Values(meta.ID, meta.Owner, meta.OfflineID, meta.InsertTimestamp, meta.UpdateTimestamp, string(data)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s insert: %w", r.table, err)
	}

	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s %s: %w", r.table, meta.ID, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

func (r *DocumentRepository[T, P]) Update(ctx context.Context, doc P) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", r.table, err)
	}
	meta := doc.Metadata()

	query, args, err := sq.Update(r.table).
		Set("data", string(data)).
		Set("update_timestamp", meta.UpdateTimestamp).
		Where(sq.Eq{"id": meta.ID, "owner": meta.Owner}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s update: %w", r.table, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update %s %s: %w", r.table, meta.ID, repository.ErrDuplicate)
		}
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	return expectAffected(res, r.table, meta.ID)
}

func (r *DocumentRepository[T, P]) Get(ctx context.Context, owner, id string) (P, error) {
	query, args, err := sq.Select("data").
		From(r.table).
		Where(sq.Eq{"owner": owner, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s select: %w", r.table, err)
	}

	var data string
	if err := r.db.GetContext(ctx, &data, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", r.table, id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}
	return r.decode(data)
}

func (r *DocumentRepository[T, P]) Delete(ctx context.Context, owner, id string) error {
	query, args, err := sq.Delete(r.table).
		Where(sq.Eq{"owner": owner, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s delete: %w", r.table, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	return expectAffected(res, r.table, id)
}

func (r *DocumentRepository[T, P]) List(ctx context.Context, owner string, req domain.PageRequest) (domain.Page[P], error) {
	where := sq.And{sq.Eq{"owner": owner}}
	for field, value := range req.Filters {
		expr, err := fieldExpr(field)
		if err != nil {
			return domain.Page[P]{}, err
		}
		where = append(where, sq.Expr(expr+" = ?", value))
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From(r.table).Where(where).ToSql()
	if err != nil {
		return domain.Page[P]{}, fmt.Errorf("build %s count: %w", r.table, err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return domain.Page[P]{}, fmt.Errorf("count %s: %w", r.table, err)
	}

	order, err := orderClause(req)
	if err != nil {
		return domain.Page[P]{}, err
	}
	pages := domain.PageCount(total, req.PerPage)
	if req.Page > pages {
		return domain.Page[P]{Results: []P{}, Pages: pages}, nil
	}
	query, args, err := sq.Select("data").
		From(r.table).
		Where(where).
		OrderBy(order...).
		Limit(uint64(req.PerPage)).
		Offset(uint64(req.Offset())).
		ToSql()
	if err != nil {
		return domain.Page[P]{}, fmt.Errorf("build %s list: %w", r.table, err)
	}

	var rows []string
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.Page[P]{}, fmt.Errorf("list %s: %w", r.table, err)
	}

	results := make([]P, 0, len(rows))
	for _, data := range rows {
		doc, err := r.decode(data)
		if err != nil {
			return domain.Page[P]{}, err
		}
		results = append(results, doc)
	}

	return domain.Page[P]{
		Results: results,
		Pages:   pages,
	}, nil
}

func (r *DocumentRepository[T, P]) CountOwned(ctx context.Context, owner string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.Select("COUNT(DISTINCT id)").
		From(r.table).
		Where(sq.Eq{"owner": owner, "id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", r.table, err)
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count owned %s: %w", r.table, err)
	}
	return n, nil
}

func (r *DocumentRepository[T, P]) decode(data string) (P, error) {
	var doc T
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", r.table, err)
	}
	return P(&doc), nil
}

func fieldExpr(field string) (string, error) {
	if !domain.ValidFieldName(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	if column, ok := documentColumns[field]; ok {
		return column, nil
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field), nil
}

// orderClause sorts by the requested field and breaks ties on insertion order.
func orderClause(req domain.PageRequest) ([]string, error) {
	dir := "ASC"
	if req.Desc {
		dir = "DESC"
	}
	if req.OrderBy == "" {
		return []string{"seq " + dir}, nil
	}
	expr, err := fieldExpr(req.OrderBy)
	if err != nil {
		return nil, err
	}
	return []string{expr + " " + dir, "seq " + dir}, nil
}

func expectAffected(res sql.Result, table, id string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", table, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s %s: %w", table, id, repository.ErrNotFound)
	}
	return nil
}
