package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/podushkina/taskflow/internal/task"
	"github.com/uptrace/bun"
)

// Repository is the query contract over the tasks table.
type Repository interface {
	Save(ctx context.Context, t *task.Task) (*task.Task, error)
	FindByID(ctx context.Context, id int64) (*task.Task, error)
	FindAll(ctx context.Context) ([]task.Task, error)
	FindPage(ctx context.Context, req task.PageRequest) ([]task.Task, int, error)
	FindByStatus(ctx context.Context, status task.Status) ([]task.Task, error)
	FindByPriority(ctx context.Context, priority task.Priority) ([]task.Task, error)
	FindByNameContainingIgnoreCase(ctx context.Context, keyword string) ([]task.Task, error)
	Delete(ctx context.Context, t *task.Task) error
	DeleteByStatus(ctx context.Context, status task.Status) (int, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	CountByStatus(ctx context.Context) (map[task.Status]int, error)
	CountByPriority(ctx context.Context) (map[task.Priority]int, error)

	// RunInTx calls fn with a repository bound to a single transaction. The
	// transaction is rolled back when fn returns an error.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

var _ Repository = (*TaskRepository)(nil)

type TaskRepository struct {
	db   bun.IDB
	root *bun.DB // nil once bound to a transaction
}

func (r *TaskRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.root == nil {
		return fn(ctx, r)
	}
	return r.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &TaskRepository{db: tx})
	})
}

func (r *TaskRepository) Save(ctx context.Context, t *task.Task) (*task.Task, error) {
	if t.ID == 0 {
		if _, err := r.db.NewInsert().Model(t).Returning("*").Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert task: %w", err)
		}
		return t, nil
	}

	res, err := r.db.NewUpdate().
		Model(t).
		ExcludeColumn("id", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return t, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	t := new(task.Task)
	err := r.db.NewSelect().Model(t).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	return t, nil
}

func (r *TaskRepository) FindAll(ctx context.Context) ([]task.Task, error) {
	return r.list(ctx, "find all tasks", nil)
}

func (r *TaskRepository) FindPage(ctx context.Context, req task.PageRequest) ([]task.Task, int, error) {
	dir := "ASC"
	if req.Descending() {
		dir = "DESC"
	}

	tasks := make([]task.Task, 0, req.Size)
	q := r.db.NewSelect().
		Model(&tasks).
		OrderExpr("? "+dir, bun.Ident(req.SortColumn())).
		Limit(req.Size).
		Offset(req.Offset())
	if req.SortColumn() != "id" {
		q = q.OrderExpr("id " + dir)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("find task page: %w", err)
	}
	return tasks, total, nil
}

func (r *TaskRepository) FindByStatus(ctx context.Context, status task.Status) ([]task.Task, error) {
	return r.list(ctx, "find tasks by status", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("status = ?", status)
	})
}

func (r *TaskRepository) FindByPriority(ctx context.Context, priority task.Priority) ([]task.Task, error) {
	return r.list(ctx, "find tasks by priority", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("priority = ?", priority)
	})
}

func (r *TaskRepository) FindByNameContainingIgnoreCase(ctx context.Context, keyword string) ([]task.Task, error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	return r.list(ctx, "search tasks by name", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
	})
}

func (r *TaskRepository) Delete(ctx context.Context, t *task.Task) error {
	res, err := r.db.NewDelete().Model(t).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", t.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteByStatus(ctx context.Context, status task.Status) (int, error) {
	res, err := r.db.NewDelete().
		Model((*task.Task)(nil)).
		Where("status = ?", status).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tasks by status: %w", err)
	}
	return int(n), nil
}

func (r *TaskRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	ok, err := r.db.NewSelect().
		Model((*task.Task)(nil)).
		Where("name = ?", name).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("exists by name: %w", err)
	}
	return ok, nil
}

func (r *TaskRepository) CountByStatus(ctx context.Context) (map[task.Status]int, error) {
	rows, err := r.countBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[task.Status]int, len(rows))
	for _, row := range rows {
		out[task.Status(row.Group)] = row.N
	}
	return out, nil
}

func (r *TaskRepository) CountByPriority(ctx context.Context) (map[task.Priority]int, error) {
	rows, err := r.countBy(ctx, "priority")
	if err != nil {
		return nil, err
	}
	out := make(map[task.Priority]int, len(rows))
	for _, row := range rows {
		out[task.Priority(row.Group)] = row.N
	}
	return out, nil
}

type groupCount struct {
	Group string `bun:"grp"`
	N     int    `bun:"n"`
}

func (r *TaskRepository) countBy(ctx context.Context, column string) ([]groupCount, error) {
	var rows []groupCount
	err := r.db.NewSelect().
		Model((*task.Task)(nil)).
		ColumnExpr("? AS grp", bun.Ident(column)).
		ColumnExpr("count(*) AS n").
		GroupExpr("?", bun.Ident(column)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count tasks by %s: %w", column, err)
	}
	return rows, nil
}

func (r *TaskRepository) list(ctx context.Context, op string, apply func(*bun.SelectQuery) *bun.SelectQuery) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	q := r.db.NewSelect().Model(&tasks).Order("id ASC")
	if apply != nil {
		q = apply(q)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tasks, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
