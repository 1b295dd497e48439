package repository_test

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"todoguard/internal/adapter/database"
	"todoguard/internal/adapter/database/repository"
	"todoguard/internal/core/domain"
	"todoguard/internal/core/port"
	. "todoguard/pkg/test"
	"todoguard/pkg/test/factory"
)

type TodoRepositoryTestSuite struct {
	suite.Suite
	DB       *database.DB
	TodoRepo *repository.TodoRepository
}

func (s *TodoRepositoryTestSuite) SetupTest() {
	s.DB = InitTestDB()
	s.TodoRepo = repository.NewTodoRepository(s.DB, nil)
}

func (s *TodoRepositoryTestSuite) TearDownTest() {
	s.DB.Close()
}

func TestTodoRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoRepositoryTestSuite))
}

func (s *TodoRepositoryTestSuite) create(userID int, extra ...map[string]any) domain.Todo {
	todo, err := s.TodoRepo.Create(context.Background(), factory.NewTodo[domain.Todo](factory.TodoFor(userID, extra...)))
	Expect(err).To(BeNil())
	return todo
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func (s *TodoRepositoryTestSuite) TestRepository_FindAll_Empty() {
	todos, err := s.TodoRepo.FindAll(context.Background(), port.TodoFilter{})

	Expect(err).To(BeNil())
	Expect(todos).To(BeEmpty())
}

func (s *TodoRepositoryTestSuite) TestRepository_Create_AssignsIDAndVersion() {
	todo, err := s.TodoRepo.Create(context.Background(), domain.Todo{
		ID:          42,
		Title:       "Buy groceries",
		Description: "Milk",
		Version:     9,
		CreatedByID: 2,
		UpdatedByID: 2,
	})

	Expect(err).To(BeNil())
	Expect(todo.ID).To(Equal(1))
	Expect(todo.Version).To(Equal(domain.InitialVersion))
	Expect(todo.Title).To(Equal("Buy groceries"))
	Expect(todo.CreatedAt.IsZero()).To(BeFalse())
	Expect(todo.UpdatedAt).To(Equal(todo.CreatedAt))
}

func (s *TodoRepositoryTestSuite) TestRepository_FindByID() {
	created := s.create(2)

	found, err := s.TodoRepo.FindByID(context.Background(), created.ID)
	Expect(err).To(BeNil())
	Expect(found).To(Equal(created))

	_, err = s.TodoRepo.FindByID(context.Background(), 999)
	Expect(err).To(MatchError(domain.ErrTodoNotFound))
}

func (s *TodoRepositoryTestSuite) TestRepository_FindAll_Filters() {
	first := s.create(2)
	s.create(2, map[string]any{"IsClosed": true})
	third := s.create(3)

	cases := []struct {
		name   string
		filter port.TodoFilter
		ids    []int
	}{
		{"no filter", port.TodoFilter{}, []int{first.ID, first.ID + 1, third.ID}},
		{"by owner", port.TodoFilter{CreatedByID: intPtr(2)}, []int{first.ID, first.ID + 1}},
		{"open only", port.TodoFilter{IsClosed: boolPtr(false)}, []int{first.ID, third.ID}},
		{"owner and open", port.TodoFilter{CreatedByID: intPtr(2), IsClosed: boolPtr(false)}, []int{first.ID}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			todos, err := s.TodoRepo.FindAll(context.Background(), tc.filter)
			s.Require().NoError(err)

			ids := make([]int, 0, len(todos))
			for _, todo := range todos {
				ids = append(ids, todo.ID)
			}
			assert.Equal(s.T(), tc.ids, ids)
		})
	}
}

func (s *TodoRepositoryTestSuite) TestRepository_Save_BumpsVersion() {
	created := s.create(2)
	created.Title = "Changed title"
	created.IsClosed = true
	created.TouchedBy(1)

	saved, err := s.TodoRepo.Save(context.Background(), created)

	Expect(err).To(BeNil())
	Expect(saved.Title).To(Equal("Changed title"))
	Expect(saved.IsClosed).To(BeTrue())
	Expect(saved.Version).To(Equal(created.Version + 1))
	Expect(saved.UpdatedByID).To(Equal(1))
	Expect(saved.CreatedByID).To(Equal(2))
	Expect(saved.CreatedAt).To(Equal(created.CreatedAt))
}

func (s *TodoRepositoryTestSuite) TestRepository_Save_NotFound() {
	_, err := s.TodoRepo.Save(context.Background(), domain.Todo{ID: 999, Title: "Nothing here"})

	Expect(err).To(MatchError(domain.ErrTodoNotFound))
}

func (s *TodoRepositoryTestSuite) TestRepository_SaveWithVersion() {
	created := s.create(2)
	created.Title = "Versioned change"

	saved, err := s.TodoRepo.SaveWithVersion(context.Background(), created, created.Version)
	Expect(err).To(BeNil())
	Expect(saved.Version).To(Equal(created.Version + 1))

	created.Title = "Stale change"
	_, err = s.TodoRepo.SaveWithVersion(context.Background(), created, created.Version)
	Expect(err).To(MatchError(domain.ErrVersionConflict))

	stored, err := s.TodoRepo.FindByID(context.Background(), created.ID)
	Expect(err).To(BeNil())
	Expect(stored.Title).To(Equal("Versioned change"))
	Expect(stored.Version).To(Equal(saved.Version))
}

func (s *TodoRepositoryTestSuite) TestRepository_SaveWithVersion_NotFound() {
	_, err := s.TodoRepo.SaveWithVersion(context.Background(), domain.Todo{ID: 999, Title: "Nothing here"}, 1)

	Expect(err).To(MatchError(domain.ErrTodoNotFound))
}

func (s *TodoRepositoryTestSuite) TestRepository_Remove() {
	created := s.create(2)

	removed, err := s.TodoRepo.Remove(context.Background(), created.ID, 1)

	Expect(err).To(BeNil())
	Expect(removed.ID).To(Equal(created.ID))
	Expect(removed.UpdatedByID).To(Equal(1))
	Expect(removed.Version).To(Equal(created.Version + 1))

	_, err = s.TodoRepo.FindByID(context.Background(), created.ID)
	Expect(err).To(MatchError(domain.ErrTodoNotFound))

	_, err = s.TodoRepo.Remove(context.Background(), created.ID, 1)
	Expect(err).To(MatchError(domain.ErrTodoNotFound))
}

func (s *TodoRepositoryTestSuite) TestRepository_InsertIfAbsent() {
	seed := domain.Todo{ID: 7, Title: "Seeded", CreatedByID: 1, UpdatedByID: 1}

	ok, err := s.TodoRepo.InsertIfAbsent(context.Background(), seed)
	Expect(err).To(BeNil())
	Expect(ok).To(BeTrue())

	seed.Title = "Seeded again"
	ok, err = s.TodoRepo.InsertIfAbsent(context.Background(), seed)
	Expect(err).To(BeNil())
	Expect(ok).To(BeFalse())

	stored, err := s.TodoRepo.FindByID(context.Background(), 7)
	Expect(err).To(BeNil())
	Expect(stored.Title).To(Equal("Seeded"))
	Expect(stored.Version).To(Equal(domain.InitialVersion))
}

func (s *TodoRepositoryTestSuite) TestRepository_Ping() {
	Expect(s.TodoRepo.Ping(context.Background())).To(Succeed())
}
