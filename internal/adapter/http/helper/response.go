package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todoguard/internal/core/domain"
	"todoguard/internal/core/model/response"
	"todoguard/pkg/tracing"
)

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	errorResponse := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	c.AbortWithStatusJSON(statusCode, errorResponse)
}

func sendSingleError(c *gin.Context, statusCode int, code, field, message string) {
	SendError(c, statusCode, code, []response.ValidationError{{Field: field, Message: message}})
}

func SendValidationErrors(c *gin.Context, errs []response.ValidationError) {
	SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", errs)
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	sendSingleError(c, http.StatusBadRequest, "BAD_REQUEST", field, message)
}

func SendUnauthorizedError(c *gin.Context, message string) {
	sendSingleError(c, http.StatusUnauthorized, "UNAUTHORIZED", "auth", message)
}

func SendForbiddenError(c *gin.Context, message string) {
	sendSingleError(c, http.StatusForbidden, "FORBIDDEN", "auth", message)
}

func SendNotFoundError(c *gin.Context, message string) {
	sendSingleError(c, http.StatusNotFound, "NOT_FOUND", "resource", message)
}

func SendConflictError(c *gin.Context, message string) {
	sendSingleError(c, http.StatusConflict, "CONFLICT", "version", message)
}

func SendRuleViolationError(c *gin.Context, field string, message string) {
	sendSingleError(c, http.StatusBadRequest, "RULE_VIOLATION", field, message)
}

func SendTooManyRequestsError(c *gin.Context, message string, details ...any) {
	SendError(c, http.StatusTooManyRequests, "RATE_LIMITED",
		[]response.ValidationError{{Field: "request", Message: message}}, details...)
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR",
		[]response.ValidationError{{Field: "server", Message: message}}, details...)
}

// SendDomainError maps an error returned by the todo service to its HTTP
// response. Anything unrecognised is a 500 and its text is not exposed.
func SendDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTodoNotFound):
		SendNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		SendForbiddenError(c, err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		SendConflictError(c, err.Error())
	case errors.Is(err, domain.ErrOpeningNotAllowed):
		SendRuleViolationError(c, "isClosed", err.Error())
	default:
		tracing.AddSpanError(c.Request.Context(), err)
		_ = c.Error(err)
		SendInternalError(c, "internal server error")
	}
}
