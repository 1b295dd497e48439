package service_test

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todoguard/internal/adapter/database"
	"todoguard/internal/adapter/database/repository"
	"todoguard/internal/core/domain"
	"todoguard/internal/core/port"
	"todoguard/internal/core/service"
	"todoguard/internal/core/telemetry"
	"todoguard/pkg/config"
	. "todoguard/pkg/test"
)

type TodoSeederTestSuite struct {
	suite.Suite
	DB       *database.DB
	TodoRepo *repository.TodoRepository
	Seeder   *service.TodoSeeder
}

func (s *TodoSeederTestSuite) SetupTest() {
	s.DB = InitTestDB()
	s.TodoRepo = repository.NewTodoRepository(s.DB, telemetry.NewNoOpProbe())
	s.Seeder = service.NewTodoSeeder(s.TodoRepo, config.NewNopLogger())
}

func (s *TodoSeederTestSuite) TearDownTest() {
	s.DB.Close()
}

func TestTodoSeederTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoSeederTestSuite))
}

func (s *TodoSeederTestSuite) TestSeed_InsertsFixedTodos() {
	inserted, err := s.Seeder.Seed(ctx)
	Expect(err).To(BeNil())
	Expect(inserted).To(Equal(4))

	todos, err := s.TodoRepo.FindAll(ctx, port.TodoFilter{})
	Expect(err).To(BeNil())
	Expect(todos).To(HaveLen(4))

	for i, want := range service.SeedTodos {
		Expect(todos[i].ID).To(Equal(want.ID))
		Expect(todos[i].Title).To(Equal(want.Title))
		Expect(todos[i].IsClosed).To(Equal(want.IsClosed))
		Expect(todos[i].CreatedByID).To(Equal(want.CreatedByID))
		Expect(todos[i].Version).To(Equal(domain.InitialVersion))
	}
}

func (s *TodoSeederTestSuite) TestSeed_IsIdempotent() {
	_, err := s.Seeder.Seed(ctx)
	Expect(err).To(BeNil())

	inserted, err := s.Seeder.Seed(ctx)
	Expect(err).To(BeNil())
	Expect(inserted).To(Equal(0))

	todos, err := s.TodoRepo.FindAll(ctx, port.TodoFilter{})
	Expect(err).To(BeNil())
	Expect(todos).To(HaveLen(4))
}

func (s *TodoSeederTestSuite) TestSeed_KeepsEditedRows() {
	_, err := s.Seeder.Seed(ctx)
	Expect(err).To(BeNil())

	todo, err := s.TodoRepo.FindByID(ctx, 1)
	Expect(err).To(BeNil())
	todo.Title = "Edited after seeding"
	_, err = s.TodoRepo.Save(ctx, todo)
	Expect(err).To(BeNil())

	_, err = s.Seeder.Seed(ctx)
	Expect(err).To(BeNil())

	todo, err = s.TodoRepo.FindByID(ctx, 1)
	Expect(err).To(BeNil())
	Expect(todo.Title).To(Equal("Edited after seeding"))
}

func (s *TodoSeederTestSuite) TestSeed_LaterCreatesGetFreshIDs() {
	_, err := s.Seeder.Seed(ctx)
	Expect(err).To(BeNil())

	created, err := s.TodoRepo.Create(ctx, domain.NewTodo("Created after seeding", "", service.SeedUserID))
	Expect(err).To(BeNil())
	Expect(created.ID).To(Equal(5))
}
