package response

import (
	"time"

	"todoguard/internal/core/domain"
)

type TodoResponse struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsClosed    bool      `json:"isClosed"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CreatedByID int       `json:"createdById"`
	UpdatedByID int       `json:"updatedById"`
}

func NewTodoResponse(todo domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		IsClosed:    todo.IsClosed,
		Version:     todo.Version,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
		CreatedByID: todo.CreatedByID,
		UpdatedByID: todo.UpdatedByID,
	}
}

func NewTodoListResponse(todos []domain.Todo) []TodoResponse {
	data := make([]TodoResponse, 0, len(todos))
	for _, todo := range todos {
		data = append(data, NewTodoResponse(todo))
	}
	return data
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}
