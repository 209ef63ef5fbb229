package handlers

import (
	"errors"
	"net/http"

	"github.com/iwtcode/linacService/internal/services/workflow"
	appErrors "github.com/iwtcode/linacService/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse возвращает стандартизированный ответ с ошибкой
func (h *Handler) ErrorResponse(c *gin.Context, err error, statusCode int, message string, showError bool) {
	errorMessage := message
	if showError && err != nil {
		errorMessage = message + ": " + err.Error()
	}

	h.logger.Error(message, "error", err, "statusCode", statusCode)
	c.AbortWithStatusJSON(statusCode, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    statusCode,
			"message": errorMessage,
		},
	})
}

// BadRequest возвращает ошибку 400
func (h *Handler) BadRequest(c *gin.Context, err error, message string) {
	if message == "" {
		message = appErrors.BadRequest
	}
	h.ErrorResponse(c, err, http.StatusBadRequest, message, true)
}

// InternalError возвращает ошибку 500
func (h *Handler) InternalError(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusInternalServerError, appErrors.InternalServerError, false)
}

// NotFound возвращает ошибку 404
func (h *Handler) NotFound(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusNotFound, appErrors.NotFound, true)
}

// Conflict возвращает ошибку 409
func (h *Handler) Conflict(c *gin.Context, err error, message string) {
	if message == "" {
		message = appErrors.Conflict
	}
	h.ErrorResponse(c, err, http.StatusConflict, message, false)
}

// Refused возвращает 409 для отклоненного перехода вместе с текущим снимком дисплея
func (h *Handler) Refused(c *gin.Context, err *workflow.TransitionError, key string, view interface{}) {
	h.logger.Warn("Transition refused", "action", err.Action, "reason", err.Reason)
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    http.StatusConflict,
			"message": err.Reason,
		},
		key: view,
	})
}

// HandleError выбирает ответ по типу ошибки
func (h *Handler) HandleError(c *gin.Context, err error) {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case appErrors.InvalidDataCode:
			h.BadRequest(c, appErr.Err, appErr.Message)
		case appErrors.NotFoundErrorCode:
			h.ErrorResponse(c, appErr, http.StatusNotFound, appErr.Message, appErr.IsUserFacing)
		case appErrors.ConflictErrorCode:
			h.Conflict(c, appErr, appErr.Message)
		default:
			h.ErrorResponse(c, appErr, appErr.Code, appErr.Message, appErr.IsUserFacing)
		}
		return
	}
	var te *workflow.TransitionError
	if errors.As(err, &te) {
		h.Refused(c, te, "detail", nil)
		return
	}
	h.InternalError(c, err)
}
