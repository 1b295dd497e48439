package request

type CreateTodoRequest struct {
	Title       string `json:"title" validate:"required,min=8,max=50"`
	Description string `json:"description"`
}

// ReplaceTodoRequest carries the full new state of a todo plus the version the
// caller last saw. Pointers let a missing isClosed or version fail validation
// instead of silently becoming the zero value.
type ReplaceTodoRequest struct {
	Title       string  `json:"title" validate:"required,min=8,max=50"`
	Description *string `json:"description"`
	IsClosed    *bool   `json:"isClosed" validate:"required"`
	Version     *int    `json:"version" validate:"required,min=1"`
}

// UpdateTodoRequest is a partial update, nil fields are left untouched.
type UpdateTodoRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=8,max=50"`
	Description *string `json:"description"`
	IsClosed    *bool   `json:"isClosed"`
}

type UpdateTodoAdminRequest struct {
	IsClosed *bool `json:"isClosed" validate:"required"`
}
