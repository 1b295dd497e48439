package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"todoguard/internal/core/domain"
	"todoguard/internal/core/model/request"
	"todoguard/internal/core/model/response"
	"todoguard/internal/core/port"
)

const todoServiceName = "todo"

type TodoService struct {
	repo      port.TodoRepository
	telemetry port.Telemetry
	logger    *otelzap.Logger
}

func NewTodoService(repo port.TodoRepository, telemetry port.Telemetry, logger *otelzap.Logger) *TodoService {
	return &TodoService{
		repo:      repo,
		telemetry: telemetry,
		logger:    logger,
	}
}

func (s *TodoService) Create(ctx context.Context, actor domain.Actor, req request.CreateTodoRequest) (_ response.TodoResponse, err error) {
	ctx, done := s.observe(ctx, "create", actor, 0)
	defer func() { done(err) }()

	created, err := s.repo.Create(ctx, domain.NewTodo(req.Title, req.Description, actor.UserID))
	if err != nil {
		return response.TodoResponse{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "todo_created", "todo", strconv.Itoa(created.ID), actor.UserID, created.ToMap())

	return response.NewTodoResponse(created), nil
}

// FindAll returns every todo to admins. Other users only see their own open todos.
func (s *TodoService) FindAll(ctx context.Context, actor domain.Actor) (_ []response.TodoResponse, err error) {
	ctx, done := s.observe(ctx, "find_all", actor, 0)
	defer func() { done(err) }()

	var filter port.TodoFilter
	if !actor.IsAdmin {
		open := false
		owner := actor.UserID
		filter = port.TodoFilter{CreatedByID: &owner, IsClosed: &open}
	}

	todos, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	return response.NewTodoListResponse(todos), nil
}

func (s *TodoService) FindOne(ctx context.Context, actor domain.Actor, id int) (_ response.TodoResponse, err error) {
	ctx, done := s.observe(ctx, "find_one", actor, id)
	defer func() { done(err) }()

	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return response.TodoResponse{}, err
	}

	if !actor.CanAccess(todo) {
		return response.TodoResponse{}, s.reject(ctx, "find_one", actor, id, domain.ErrForbidden)
	}

	return response.NewTodoResponse(todo), nil
}

func (s *TodoService) UpdateByAdmin(ctx context.Context, actor domain.Actor, id int, req request.UpdateTodoAdminRequest) (_ response.TodoResponse, err error) {
	ctx, done := s.observe(ctx, "update_by_admin", actor, id)
	defer func() { done(err) }()

	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return response.TodoResponse{}, err
	}

	if !actor.IsAdmin {
		return response.TodoResponse{}, s.reject(ctx, "update_by_admin", actor, id, domain.ErrForbidden)
	}

	todo.IsClosed = *req.IsClosed
	todo.TouchedBy(actor.UserID)

	saved, err := s.repo.Save(ctx, todo)
	if err != nil {
		return response.TodoResponse{}, err
	}

	return response.NewTodoResponse(saved), nil
}

// Replace overwrites the whole todo when the caller holds the current version.
// The version is checked here for the common case and again by the conditional
// write, which catches a writer that slipped in between.
func (s *TodoService) Replace(ctx context.Context, actor domain.Actor, id int, req request.ReplaceTodoRequest) (_ response.TodoResponse, err error) {
	ctx, done := s.observe(ctx, "replace", actor, id)
	defer func() { done(err) }()

	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return response.TodoResponse{}, err
	}

	if !actor.IsAdmin {
		return response.TodoResponse{}, s.reject(ctx, "replace", actor, id, domain.ErrForbidden)
	}

	expected := *req.Version
	if todo.Version != expected {
		return response.TodoResponse{}, s.reject(ctx, "replace", actor, id, domain.ErrVersionConflict)
	}

	todo.Title = req.Title
	todo.Description = ""
	if req.Description != nil {
		todo.Description = *req.Description
	}
	todo.IsClosed = *req.IsClosed
	todo.TouchedBy(actor.UserID)

	saved, err := s.repo.SaveWithVersion(ctx, todo, expected)
	if errors.Is(err, domain.ErrVersionConflict) {
		return response.TodoResponse{}, s.reject(ctx, "replace", actor, id, err)
	}
	if err != nil {
		return response.TodoResponse{}, err
	}

	return response.NewTodoResponse(saved), nil
}

// Update merges the provided fields. Only admins may reopen a closed todo, and
// that rule is checked before ownership so a non-admin always learns why.
func (s *TodoService) Update(ctx context.Context, actor domain.Actor, id int, req request.UpdateTodoRequest) (_ response.TodoResponse, err error) {
	ctx, done := s.observe(ctx, "update", actor, id)
	defer func() { done(err) }()

	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return response.TodoResponse{}, err
	}

	if req.IsClosed != nil && !*req.IsClosed && !actor.IsAdmin {
		return response.TodoResponse{}, s.reject(ctx, "update", actor, id, domain.ErrOpeningNotAllowed)
	}

	if !actor.CanAccess(todo) {
		return response.TodoResponse{}, s.reject(ctx, "update", actor, id, domain.ErrForbidden)
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.IsClosed != nil {
		todo.IsClosed = *req.IsClosed
	}
	todo.TouchedBy(actor.UserID)

	saved, err := s.repo.Save(ctx, todo)
	if err != nil {
		return response.TodoResponse{}, err
	}

	return response.NewTodoResponse(saved), nil
}

func (s *TodoService) Remove(ctx context.Context, actor domain.Actor, id int) (_ response.TodoResponse, err error) {
	ctx, done := s.observe(ctx, "remove", actor, id)
	defer func() { done(err) }()

	if _, err = s.repo.FindByID(ctx, id); err != nil {
		return response.TodoResponse{}, err
	}

	if !actor.IsAdmin {
		return response.TodoResponse{}, s.reject(ctx, "remove", actor, id, domain.ErrForbidden)
	}

	removed, err := s.repo.Remove(ctx, id, actor.UserID)
	if err != nil {
		return response.TodoResponse{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "todo_removed", "todo", strconv.Itoa(id), actor.UserID, removed.ToMap())

	return response.NewTodoResponse(removed), nil
}

func (s *TodoService) observe(ctx context.Context, operation string, actor domain.Actor, todoID int) (context.Context, func(error)) {
	start := time.Now()

	ctx, span := s.telemetry.StartServiceSpan(ctx, todoServiceName, operation, actor.UserID, map[string]interface{}{
		"corr_id":    actor.CorrelationID,
		"user.admin": actor.IsAdmin,
		"todo.id":    todoID,
	})

	s.logger.Ctx(ctx).Debug("todo operation started",
		zap.String("operation", operation),
		zap.String("corr_id", actor.CorrelationID),
		zap.Int("user_id", actor.UserID),
		zap.Int("todo_id", todoID))

	return ctx, func(err error) {
		s.telemetry.RecordServiceOperation(ctx, todoServiceName, operation, actor.UserID, time.Since(start), err)

		switch {
		case err == nil:
			span.SetStatus("ok", "")
		case isExpected(err):
			span.SetAttributes(map[string]interface{}{"todo.outcome": err.Error()})
		default:
			span.RecordError(err)
			span.SetStatus("error", err.Error())
			s.logger.Ctx(ctx).Error("todo operation failed",
				zap.String("operation", operation),
				zap.String("corr_id", actor.CorrelationID),
				zap.Int("user_id", actor.UserID),
				zap.Int("todo_id", todoID),
				zap.Error(err))
		}

		span.End()
	}
}

func (s *TodoService) reject(ctx context.Context, operation string, actor domain.Actor, todoID int, err error) error {
	s.telemetry.RecordRuleViolation(ctx, operation, ruleName(err))

	s.logger.Ctx(ctx).Info("todo operation rejected",
		zap.String("operation", operation),
		zap.String("corr_id", actor.CorrelationID),
		zap.Int("user_id", actor.UserID),
		zap.String("role", actor.Role()),
		zap.Int("todo_id", todoID),
		zap.String("reason", err.Error()))

	return err
}

func ruleName(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, domain.ErrOpeningNotAllowed):
		return "opening_not_allowed"
	default:
		return "unknown"
	}
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrTodoNotFound) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrVersionConflict) ||
		errors.Is(err, domain.ErrOpeningNotAllowed)
}
