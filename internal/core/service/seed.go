package service

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"todoguard/internal/core/domain"
	"todoguard/internal/core/port"
)

const (
	SeedAdminUserID = 1
	SeedUserID      = 2
)

// SeedTodos is the fixed data set created on startup.
var SeedTodos = []domain.Todo{
	{ID: 1, Title: "OpenAdmin", Description: "Example of an open admin todo", IsClosed: false, CreatedByID: SeedAdminUserID, UpdatedByID: SeedAdminUserID},
	{ID: 2, Title: "ClosedAdmin", Description: "Example of an closed admin todo", IsClosed: true, CreatedByID: SeedAdminUserID, UpdatedByID: SeedAdminUserID},
	{ID: 3, Title: "OpenUser", Description: "Example of an open user todo", IsClosed: false, CreatedByID: SeedUserID, UpdatedByID: SeedUserID},
	{ID: 4, Title: "ClosedUser", Description: "Example of an closed user todo", IsClosed: true, CreatedByID: SeedUserID, UpdatedByID: SeedUserID},
}

type TodoSeeder struct {
	repo   port.TodoRepository
	logger *otelzap.Logger
}

func NewTodoSeeder(repo port.TodoRepository, logger *otelzap.Logger) *TodoSeeder {
	return &TodoSeeder{repo: repo, logger: logger}
}

// Seed inserts every seed todo whose id is still free and reports how many
// rows were written. Running it twice is harmless.
func (s *TodoSeeder) Seed(ctx context.Context) (int, error) {
	inserted := 0

	for _, todo := range SeedTodos {
		ok, err := s.repo.InsertIfAbsent(ctx, todo)
		if err != nil {
			return inserted, fmt.Errorf("seed todo %d: %w", todo.ID, err)
		}
		if ok {
			inserted++
		}
	}

	s.logger.Ctx(ctx).Info("todo seed finished",
		zap.Int("inserted", inserted),
		zap.Int("total", len(SeedTodos)))

	return inserted, nil
}
