package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"todoguard/internal/adapter/database"
	"todoguard/internal/core/domain"
	"todoguard/internal/core/port"
	tel "todoguard/internal/core/telemetry"
)

const todosTable = "todos"

var todoColumns = []string{
	"id",
	"title",
	"description",
	"is_closed",
	"version",
	"created_at",
	"updated_at",
	"created_by_id",
	"updated_by_id",
}

var returningTodo = "RETURNING " + strings.Join(todoColumns, ", ")

type TodoRepository struct {
	db        *database.DB
	telemetry port.Telemetry
	now       func() time.Time
}

func NewTodoRepository(db *database.DB, telemetry port.Telemetry) *TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		db:        db,
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (r *TodoRepository) FindByID(ctx context.Context, id int) (_ domain.Todo, err error) {
	ctx, done := r.track(ctx, "FindByID", map[string]interface{}{"todo.id": id})
	defer func() { done(err) }()

	return r.findByID(ctx, id)
}

// FindAll lists todos matching filter ordered by id.
func (r *TodoRepository) FindAll(ctx context.Context, filter port.TodoFilter) (_ []domain.Todo, err error) {
	ctx, done := r.track(ctx, "FindAll", nil)
	defer func() { done(err) }()

	query := r.db.QueryBuilder.Select(todoColumns...).From(todosTable).OrderBy("id ASC")

	if filter.CreatedByID != nil {
		query = query.Where(sq.Eq{"created_by_id": *filter.CreatedByID})
	}
	if filter.IsClosed != nil {
		query = query.Where(sq.Eq{"is_closed": *filter.IsClosed})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find all query: %w", err)
	}

	todos := make([]domain.Todo, 0)
	if err := r.db.SelectContext(ctx, &todos, stmt, args...); err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}

	return todos, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo domain.Todo) (_ domain.Todo, err error) {
	ctx, done := r.track(ctx, "Create", map[string]interface{}{"user.id": todo.CreatedByID})
	defer func() { done(err) }()

	now := r.now()

	stmt, args, err := r.db.QueryBuilder.Insert(todosTable).
		Columns("title", "description", "is_closed", "version", "created_at", "updated_at", "created_by_id", "updated_by_id").
		Values(todo.Title, todo.Description, todo.IsClosed, domain.InitialVersion, now, now, todo.CreatedByID, todo.UpdatedByID).
		Suffix(returningTodo).
		ToSql()
	if err != nil {
		return domain.Todo{}, fmt.Errorf("build insert query: %w", err)
	}

	var created domain.Todo
	if err := r.db.GetContext(ctx, &created, stmt, args...); err != nil {
		return domain.Todo{}, fmt.Errorf("insert todo: %w", err)
	}

	return created, nil
}

// Save writes the mutable fields of todo and bumps its version, regardless of
// the version currently stored.
func (r *TodoRepository) Save(ctx context.Context, todo domain.Todo) (_ domain.Todo, err error) {
	ctx, done := r.track(ctx, "Save", map[string]interface{}{"todo.id": todo.ID})
	defer func() { done(err) }()

	saved, err := r.update(ctx, todo, sq.Eq{"id": todo.ID})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	return saved, err
}

// SaveWithVersion is Save guarded by the stored version. When nothing matched
// it tells a vanished row apart from a stale version.
func (r *TodoRepository) SaveWithVersion(ctx context.Context, todo domain.Todo, expected int) (_ domain.Todo, err error) {
	ctx, done := r.track(ctx, "SaveWithVersion", map[string]interface{}{
		"todo.id":        todo.ID,
		"todo.version":   expected,
		"db.conditional": true,
	})
	defer func() { done(err) }()

	saved, err := r.update(ctx, todo, sq.Eq{"id": todo.ID, "version": expected})
	if !errors.Is(err, sql.ErrNoRows) {
		return saved, err
	}

	if _, err := r.findByID(ctx, todo.ID); err != nil {
		return domain.Todo{}, err
	}

	return domain.Todo{}, domain.ErrVersionConflict
}

// Remove stamps userID as the last editor and deletes the row inside one
// transaction, returning the stamped row.
func (r *TodoRepository) Remove(ctx context.Context, id int, userID int) (_ domain.Todo, err error) {
	ctx, done := r.track(ctx, "Remove", map[string]interface{}{"todo.id": id, "user.id": userID})
	defer func() { done(err) }()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("begin remove transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, args, err := r.db.QueryBuilder.Update(todosTable).
		Set("updated_by_id", userID).
		Set("updated_at", r.now()).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": id}).
		Suffix(returningTodo).
		ToSql()
	if err != nil {
		return domain.Todo{}, fmt.Errorf("build stamp query: %w", err)
	}

	var stamped domain.Todo
	if err = tx.GetContext(ctx, &stamped, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrTodoNotFound
			return domain.Todo{}, err
		}
		return domain.Todo{}, fmt.Errorf("stamp todo: %w", err)
	}

	stmt, args, err = r.db.QueryBuilder.Delete(todosTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Todo{}, fmt.Errorf("build delete query: %w", err)
	}

	if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
		return domain.Todo{}, fmt.Errorf("delete todo: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Todo{}, fmt.Errorf("commit remove transaction: %w", err)
	}

	return stamped, nil
}

// InsertIfAbsent stores todo under its own id and reports whether a row was
// written. Existing rows are left untouched.
func (r *TodoRepository) InsertIfAbsent(ctx context.Context, todo domain.Todo) (_ bool, err error) {
	ctx, done := r.track(ctx, "InsertIfAbsent", map[string]interface{}{"todo.id": todo.ID})
	defer func() { done(err) }()

	now := r.now()

	stmt, args, err := r.db.QueryBuilder.Insert(todosTable).
		Columns(todoColumns...).
		Values(todo.ID, todo.Title, todo.Description, todo.IsClosed, domain.InitialVersion, now, now, todo.CreatedByID, todo.UpdatedByID).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build seed insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("insert seed todo: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed rows affected: %w", err)
	}

	if affected > 0 && r.db.Dialect == database.DialectPostgres {
		// explicit ids do not advance a SERIAL sequence
		if _, err := r.db.ExecContext(ctx,
			"SELECT setval(pg_get_serial_sequence('todos', 'id'), GREATEST((SELECT MAX(id) FROM todos), 1))"); err != nil {
			return false, fmt.Errorf("sync todo id sequence: %w", err)
		}
	}

	return affected > 0, nil
}

func (r *TodoRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *TodoRepository) findByID(ctx context.Context, id int) (domain.Todo, error) {
	stmt, args, err := r.db.QueryBuilder.Select(todoColumns...).
		From(todosTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Todo{}, fmt.Errorf("build find query: %w", err)
	}

	var todo domain.Todo
	if err := r.db.GetContext(ctx, &todo, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Todo{}, domain.ErrTodoNotFound
		}
		return domain.Todo{}, fmt.Errorf("find todo %d: %w", id, err)
	}

	return todo, nil
}

// update returns sql.ErrNoRows untouched so callers can decide what a miss means.
func (r *TodoRepository) update(ctx context.Context, todo domain.Todo, where sq.Eq) (domain.Todo, error) {
	stmt, args, err := r.db.QueryBuilder.Update(todosTable).
		Set("title", todo.Title).
		Set("description", todo.Description).
		Set("is_closed", todo.IsClosed).
		Set("updated_by_id", todo.UpdatedByID).
		Set("updated_at", r.now()).
		Set("version", sq.Expr("version + 1")).
		Where(where).
		Suffix(returningTodo).
		ToSql()
	if err != nil {
		return domain.Todo{}, fmt.Errorf("build update query: %w", err)
	}

	var saved domain.Todo
	if err := r.db.GetContext(ctx, &saved, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Todo{}, err
		}
		return domain.Todo{}, fmt.Errorf("update todo %d: %w", todo.ID, err)
	}

	return saved, nil
}

func (r *TodoRepository) track(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, func(error)) {
	start := time.Now()

	base := map[string]interface{}{
		"db.system": string(r.db.Dialect),
		"db.table":  todosTable,
	}
	for key, value := range attrs {
		base[key] = value
	}

	ctx, span := r.telemetry.StartRepositorySpan(ctx, operation, "todo", base)

	return ctx, func(err error) {
		if err != nil && !errors.Is(err, domain.ErrTodoNotFound) && !errors.Is(err, domain.ErrVersionConflict) {
			span.RecordError(err)
			span.SetStatus("error", err.Error())
		} else {
			span.SetStatus("ok", "")
		}
		r.telemetry.RecordRepositoryOperation(ctx, operation, "todo", time.Since(start), err)
		span.End()
	}
}
