package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"todoguard/internal/adapter/database"
	"todoguard/internal/adapter/database/repository"
	"todoguard/internal/adapter/http/middleware"
	"todoguard/internal/core/domain"
	"todoguard/internal/core/model/response"
	"todoguard/internal/core/service"
	"todoguard/internal/core/telemetry"
	"todoguard/pkg/auth"
	"todoguard/pkg/config"
	. "todoguard/pkg/test"
	"todoguard/pkg/test/factory"
)

const (
	adminID = 1
	userID  = 2
	otherID = 3
)

var ctx = context.Background()

type TodoHandlerSuite struct {
	suite.Suite
	DB       *database.DB
	TodoRepo *repository.TodoRepository
	Router   *gin.Engine
	JWT      *auth.JWT
}

func (s *TodoHandlerSuite) SetupTest() {
	s.DB = InitTestDB()
	probe := telemetry.NewNoOpProbe()
	logger := config.NewNopLogger()

	s.TodoRepo = repository.NewTodoRepository(s.DB, probe)
	s.JWT = auth.NewJWT("test-secret", time.Hour)

	todoHandler := NewTodoHandler(service.NewTodoService(s.TodoRepo, probe, logger))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.CurrentMiddleware())
	router.GET("/health", NewHealthHandler(s.TodoRepo).Health)

	todos := router.Group("/todo", middleware.AuthMiddleware(s.JWT, logger))
	todos.POST("", todoHandler.Create)
	todos.GET("", todoHandler.FindAll)
	todos.GET("/:id", todoHandler.FindOne)
	todos.PUT("/:id", todoHandler.Replace)
	todos.PATCH("/:id", todoHandler.Update)
	todos.PATCH("/:id/admin", todoHandler.UpdateByAdmin)
	todos.DELETE("/:id", todoHandler.Remove)

	s.Router = router
}

func (s *TodoHandlerSuite) TearDownTest() {
	s.DB.Close()
}

func TestTodoHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoHandlerSuite))
}

func (s *TodoHandlerSuite) token(id int) string {
	role := auth.RoleUser
	if id == adminID {
		role = auth.RoleAdmin
	}

	token, err := s.JWT.CreateToken(id, role)
	Expect(err).To(BeNil())
	return token
}

func (s *TodoHandlerSuite) request(method, path string, asUser int, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CorrelationIDHeader, "corr-test")
	if asUser > 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(asUser))
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TodoHandlerSuite) createTodo(owner int, extra ...map[string]any) domain.Todo {
	todo, err := s.TodoRepo.Create(ctx, factory.NewTodo[domain.Todo](factory.TodoFor(owner, extra...)))
	Expect(err).To(BeNil())
	return todo
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var out T
	Expect(json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed())
	return out
}

func expectError(w *httptest.ResponseRecorder, status int, code string) response.ErrorResponse {
	Expect(w.Code).To(Equal(status), w.Body.String())
	body := decode[response.ErrorResponse](w)
	Expect(body.Error.Code).To(Equal(code))
	Expect(body.Error.Errors).ToNot(BeEmpty())
	return body
}

func (s *TodoHandlerSuite) TestHealth() {
	w := s.request(http.MethodGet, "/health", 0, "")

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
}

func (s *TodoHandlerSuite) TestHealth_Unavailable() {
	router := gin.New()
	router.GET("/health", NewHealthHandler(pingerFunc(func(context.Context) error {
		return errors.New("db gone")
	})).Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(w.Body.String()).To(MatchJSON(`{"status":"unavailable"}`))
}

func (s *TodoHandlerSuite) TestUnauthenticated() {
	w := s.request(http.MethodGet, "/todo", 0, "")

	expectError(w, http.StatusUnauthorized, "UNAUTHORIZED")
	Expect(w.Header().Get(middleware.CorrelationIDHeader)).To(Equal("corr-test"))
}

func (s *TodoHandlerSuite) TestCreate() {
	w := s.request(http.MethodPost, "/todo", userID, `{"title":"Buy groceries","description":"Milk, Bread, Eggs"}`)

	Expect(w.Code).To(Equal(http.StatusCreated))
	data := decode[response.TodoResponse](w)
	Expect(data.ID).To(BeNumerically(">", 0))
	Expect(data.Title).To(Equal("Buy groceries"))
	Expect(data.IsClosed).To(BeFalse())
	Expect(data.Version).To(Equal(domain.InitialVersion))
	Expect(data.CreatedByID).To(Equal(userID))
	Expect(data.UpdatedByID).To(Equal(userID))
}

func (s *TodoHandlerSuite) TestCreate_ValidationError() {
	w := s.request(http.MethodPost, "/todo", userID, `{"title":"Short"}`)

	body := expectError(w, http.StatusBadRequest, "VALIDATION_ERROR")
	Expect(body.Error.Errors[0].Field).To(Equal("title"))
}

func (s *TodoHandlerSuite) TestCreate_MalformedBody() {
	w := s.request(http.MethodPost, "/todo", userID, `{"title":`)

	body := expectError(w, http.StatusBadRequest, "VALIDATION_ERROR")
	Expect(body.Error.Errors[0].Field).To(Equal("body"))
}

func (s *TodoHandlerSuite) TestFindAll_Visibility() {
	s.createTodo(userID)
	s.createTodo(userID, map[string]any{"IsClosed": true})
	s.createTodo(otherID)

	w := s.request(http.MethodGet, "/todo", adminID, "")
	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(decode[[]response.TodoResponse](w)).To(HaveLen(3))

	w = s.request(http.MethodGet, "/todo", userID, "")
	Expect(w.Code).To(Equal(http.StatusOK))
	data := decode[[]response.TodoResponse](w)
	Expect(data).To(HaveLen(1))
	Expect(data[0].CreatedByID).To(Equal(userID))
	Expect(data[0].IsClosed).To(BeFalse())
}

func (s *TodoHandlerSuite) TestFindAll_EmptyIsArray() {
	w := s.request(http.MethodGet, "/todo", userID, "")

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(MatchJSON(`[]`))
}

func (s *TodoHandlerSuite) TestFindOne() {
	todo := s.createTodo(userID)
	path := fmt.Sprintf("/todo/%d", todo.ID)

	w := s.request(http.MethodGet, path, userID, "")
	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(decode[response.TodoResponse](w).ID).To(Equal(todo.ID))

	expectError(s.request(http.MethodGet, path, otherID, ""), http.StatusForbidden, "FORBIDDEN")
	expectError(s.request(http.MethodGet, "/todo/999", adminID, ""), http.StatusNotFound, "NOT_FOUND")
}

func (s *TodoHandlerSuite) TestBadID() {
	for _, path := range []string{"/todo/abc", "/todo/0", "/todo/-1"} {
		body := expectError(s.request(http.MethodGet, path, adminID, ""), http.StatusBadRequest, "BAD_REQUEST")
		Expect(body.Error.Errors[0].Field).To(Equal("id"))
	}

	expectError(s.request(http.MethodDelete, "/todo/abc", adminID, ""), http.StatusBadRequest, "BAD_REQUEST")
}

func (s *TodoHandlerSuite) TestReplace() {
	todo := s.createTodo(userID)
	path := fmt.Sprintf("/todo/%d", todo.ID)

	w := s.request(http.MethodPut, path, adminID,
		fmt.Sprintf(`{"title":"Replaced title","description":"new","isClosed":true,"version":%d}`, todo.Version))
	Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
	data := decode[response.TodoResponse](w)
	Expect(data.Title).To(Equal("Replaced title"))
	Expect(data.IsClosed).To(BeTrue())
	Expect(data.Version).To(Equal(todo.Version + 1))
	Expect(data.UpdatedByID).To(Equal(adminID))

	w = s.request(http.MethodPut, path, adminID,
		fmt.Sprintf(`{"title":"Stale title here","isClosed":false,"version":%d}`, todo.Version))
	expectError(w, http.StatusConflict, "CONFLICT")

	stored, err := s.TodoRepo.FindByID(ctx, todo.ID)
	Expect(err).To(BeNil())
	Expect(stored.Title).To(Equal("Replaced title"))
}

func (s *TodoHandlerSuite) TestReplace_RequiresVersion() {
	todo := s.createTodo(userID)

	w := s.request(http.MethodPut, fmt.Sprintf("/todo/%d", todo.ID), adminID, `{"title":"Replaced title","isClosed":true}`)

	body := expectError(w, http.StatusBadRequest, "VALIDATION_ERROR")
	Expect(body.Error.Errors[0].Field).To(Equal("version"))
}

func (s *TodoHandlerSuite) TestReplace_ForbiddenForUser() {
	todo := s.createTodo(userID)

	w := s.request(http.MethodPut, fmt.Sprintf("/todo/%d", todo.ID), userID,
		fmt.Sprintf(`{"title":"Replaced title","isClosed":true,"version":%d}`, todo.Version))

	expectError(w, http.StatusForbidden, "FORBIDDEN")
}

func (s *TodoHandlerSuite) TestUpdate() {
	todo := s.createTodo(userID)

	w := s.request(http.MethodPatch, fmt.Sprintf("/todo/%d", todo.ID), userID, `{"isClosed":true}`)

	Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
	data := decode[response.TodoResponse](w)
	Expect(data.IsClosed).To(BeTrue())
	Expect(data.Title).To(Equal(todo.Title))
}

func (s *TodoHandlerSuite) TestUpdate_ReopenIsRuleViolation() {
	todo := s.createTodo(userID, map[string]any{"IsClosed": true})

	w := s.request(http.MethodPatch, fmt.Sprintf("/todo/%d", todo.ID), userID, `{"isClosed":false}`)

	body := expectError(w, http.StatusBadRequest, "RULE_VIOLATION")
	Expect(body.Error.Errors[0].Field).To(Equal("isClosed"))
	Expect(body.Error.Errors[0].Message).To(Equal("Opening todos is not allowed"))
}

func (s *TodoHandlerSuite) TestUpdate_Forbidden() {
	todo := s.createTodo(userID)

	w := s.request(http.MethodPatch, fmt.Sprintf("/todo/%d", todo.ID), otherID, `{"title":"Not my todo at all"}`)

	expectError(w, http.StatusForbidden, "FORBIDDEN")
}

func (s *TodoHandlerSuite) TestUpdateByAdmin() {
	todo := s.createTodo(userID, map[string]any{"IsClosed": true})
	path := fmt.Sprintf("/todo/%d/admin", todo.ID)

	w := s.request(http.MethodPatch, path, adminID, `{"isClosed":false}`)
	Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
	Expect(decode[response.TodoResponse](w).IsClosed).To(BeFalse())

	expectError(s.request(http.MethodPatch, path, userID, `{"isClosed":true}`), http.StatusForbidden, "FORBIDDEN")
	expectError(s.request(http.MethodPatch, path, adminID, `{}`), http.StatusBadRequest, "VALIDATION_ERROR")
}

func (s *TodoHandlerSuite) TestRemove() {
	todo := s.createTodo(userID)
	path := fmt.Sprintf("/todo/%d", todo.ID)

	expectError(s.request(http.MethodDelete, path, userID, ""), http.StatusForbidden, "FORBIDDEN")

	w := s.request(http.MethodDelete, path, adminID, "")
	Expect(w.Code).To(Equal(http.StatusOK))
	data := decode[response.TodoResponse](w)
	Expect(data.ID).To(Equal(todo.ID))
	Expect(data.UpdatedByID).To(Equal(adminID))

	expectError(s.request(http.MethodGet, path, adminID, ""), http.StatusNotFound, "NOT_FOUND")
	expectError(s.request(http.MethodDelete, path, adminID, ""), http.StatusNotFound, "NOT_FOUND")
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
