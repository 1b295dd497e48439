package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"todoguard/internal/adapter/http/helper"
	"todoguard/internal/adapter/http/middleware"
	"todoguard/internal/adapter/http/validation"
	"todoguard/internal/core/model/request"
	"todoguard/internal/core/port"
)

type TodoHandler struct {
	svc port.TodoService
}

func NewTodoHandler(svc port.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

func (h *TodoHandler) Create(c *gin.Context) {
	result := validation.BindJSON[request.CreateTodoRequest](c)
	if !result.Valid() {
		helper.SendValidationErrors(c, result.Errors)
		return
	}

	data, err := h.svc.Create(c.Request.Context(), middleware.GetCurrent(c).Actor(), result.Value)
	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, data)
}

func (h *TodoHandler) FindAll(c *gin.Context) {
	data, err := h.svc.FindAll(c.Request.Context(), middleware.GetCurrent(c).Actor())
	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *TodoHandler) FindOne(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	data, err := h.svc.FindOne(c.Request.Context(), middleware.GetCurrent(c).Actor(), id)
	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *TodoHandler) Replace(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	result := validation.BindJSON[request.ReplaceTodoRequest](c)
	if !result.Valid() {
		helper.SendValidationErrors(c, result.Errors)
		return
	}

	data, err := h.svc.Replace(c.Request.Context(), middleware.GetCurrent(c).Actor(), id, result.Value)
	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	result := validation.BindJSON[request.UpdateTodoRequest](c)
	if !result.Valid() {
		helper.SendValidationErrors(c, result.Errors)
		return
	}

	data, err := h.svc.Update(c.Request.Context(), middleware.GetCurrent(c).Actor(), id, result.Value)
	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *TodoHandler) UpdateByAdmin(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	result := validation.BindJSON[request.UpdateTodoAdminRequest](c)
	if !result.Valid() {
		helper.SendValidationErrors(c, result.Errors)
		return
	}

	data, err := h.svc.UpdateByAdmin(c.Request.Context(), middleware.GetCurrent(c).Actor(), id, result.Value)
	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *TodoHandler) Remove(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	data, err := h.svc.Remove(c.Request.Context(), middleware.GetCurrent(c).Actor(), id)
	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// todoID parses the :id path parameter and answers 400 itself when it is not
// a positive integer.
func todoID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		helper.SendBadRequestError(c, "id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
