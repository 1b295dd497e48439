package port

import (
	"context"

	"todoguard/internal/core/domain"
	"todoguard/internal/core/model/request"
	"todoguard/internal/core/model/response"
)

// TodoFilter narrows FindAll. Nil fields do not filter.
type TodoFilter struct {
	CreatedByID *int
	IsClosed    *bool
}

type TodoRepository interface {
	FindByID(ctx context.Context, id int) (domain.Todo, error)
	FindAll(ctx context.Context, filter TodoFilter) ([]domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	// Save writes the mutable fields and bumps the version unconditionally.
	Save(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	// SaveWithVersion only writes when the stored version still equals expected.
	SaveWithVersion(ctx context.Context, todo domain.Todo, expected int) (domain.Todo, error)
	// Remove stamps updatedById and deletes the row in one transaction.
	Remove(ctx context.Context, id int, userID int) (domain.Todo, error)
	// InsertIfAbsent stores todo with its own id unless that id is taken.
	InsertIfAbsent(ctx context.Context, todo domain.Todo) (bool, error)
	Ping(ctx context.Context) error
}

type TodoService interface {
	Create(ctx context.Context, actor domain.Actor, req request.CreateTodoRequest) (response.TodoResponse, error)
	FindAll(ctx context.Context, actor domain.Actor) ([]response.TodoResponse, error)
	FindOne(ctx context.Context, actor domain.Actor, id int) (response.TodoResponse, error)
	UpdateByAdmin(ctx context.Context, actor domain.Actor, id int, req request.UpdateTodoAdminRequest) (response.TodoResponse, error)
	Replace(ctx context.Context, actor domain.Actor, id int, req request.ReplaceTodoRequest) (response.TodoResponse, error)
	Update(ctx context.Context, actor domain.Actor, id int, req request.UpdateTodoRequest) (response.TodoResponse, error)
	Remove(ctx context.Context, actor domain.Actor, id int) (response.TodoResponse, error)
}
