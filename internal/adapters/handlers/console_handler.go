package handlers

import (
	"errors"
	"net/http"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/services/workflow"

	"github.com/gin-gonic/gin"
)

// consoleResult отвечает снимком консоли; отказ перехода - 409 со снимком
func (h *Handler) consoleResult(c *gin.Context, status int, view *models.ConsoleView, err error) {
	if err != nil {
		var te *workflow.TransitionError
		if errors.As(err, &te) && view != nil {
			h.Refused(c, te, "console", view)
			return
		}
		h.HandleError(c, err)
		return
	}
	c.JSON(status, gin.H{"status": "ok", "console": view})
}

// GetConsole возвращает снимок консоли.
// @Summary Снимок консоли
// @Tags Console
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ConsoleResponse
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} models.ErrorResponse "Сессия не является консолью"
// @Router /console/{id} [get]
func (h *Handler) GetConsole(c *gin.Context) {
	view, err := h.usecase.ConsoleSnapshot(c.Param("id"))
	h.consoleResult(c, http.StatusOK, view, err)
}

// SelectField выбирает текущее поле.
// @Summary Выбрать поле
// @Tags Console
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param input body models.SelectFieldRequest true "Индекс поля"
// @Success 200 {object} models.ConsoleResponse
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 409 {object} models.ErrorResponse "Выбор недоступен"
// @Router /console/{id}/select [post]
func (h *Handler) SelectField(c *gin.Context) {
	var req models.SelectFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	view, err := h.usecase.SelectField(c.Param("id"), *req.Index)
	h.consoleResult(c, http.StatusOK, view, err)
}

// Prepare открывает проверочный лист.
// @Summary Prepare
// @Tags Console
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ConsoleResponse
// @Failure 409 {object} models.ErrorResponse "Переход недоступен"
// @Router /console/{id}/prepare [post]
func (h *Handler) Prepare(c *gin.Context) {
	view, err := h.usecase.Prepare(c.Param("id"))
	h.consoleResult(c, http.StatusOK, view, err)
}

// CheckItem отмечает пункт проверочного листа.
// @Summary Отметить пункт
// @Tags Console
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param input body models.ChecklistRequest true "Пункт и отметка"
// @Success 200 {object} models.ConsoleResponse
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 409 {object} models.ErrorResponse "Проверочный лист не открыт"
// @Router /console/{id}/checklist [post]
func (h *Handler) CheckItem(c *gin.Context) {
	var req models.ChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	view, err := h.usecase.CheckItem(c.Param("id"), *req.Index, req.Checked)
	h.consoleResult(c, http.StatusOK, view, err)
}

// Confirm подтверждает проверочный лист.
// @Summary Confirm
// @Tags Console
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ConsoleResponse
// @Failure 409 {object} models.ErrorResponse "Отмечены не все пункты"
// @Router /console/{id}/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	view, err := h.usecase.Confirm(c.Param("id"))
	h.consoleResult(c, http.StatusOK, view, err)
}

// Cancel закрывает проверочный лист без подтверждения.
// @Summary Cancel
// @Tags Console
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ConsoleResponse
// @Router /console/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	view, err := h.usecase.Cancel(c.Param("id"))
	h.consoleResult(c, http.StatusOK, view, err)
}

// ReportTolerance передает параметры геометрии вне допуска.
// @Summary Проверка допусков
// @Description Явные параметры и/или фактические значения, сравниваемые с планом выбранного поля.
// @Tags Console
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param input body models.ToleranceRequest true "Параметры вне допуска"
// @Success 200 {object} models.ConsoleResponse
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Router /console/{id}/tolerance [post]
func (h *Handler) ReportTolerance(c *gin.Context) {
	var req models.ToleranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	view, err := h.usecase.ReportTolerance(c.Param("id"), req)
	h.consoleResult(c, http.StatusOK, view, err)
}

// Override подтверждает работу вне допусков.
// @Summary Override
// @Tags Console
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ConsoleResponse
// @Router /console/{id}/override [post]
func (h *Handler) Override(c *gin.Context) {
	view, err := h.usecase.Override(c.Param("id"))
	h.consoleResult(c, http.StatusOK, view, err)
}

// BeamOn запускает отпуск дозы выбранного поля.
// @Summary Beam On
// @Description Отпуск идет в фоне; ход отпуска виден в снимках и в WebSocket.
// @Tags Console
// @Produce json
// @Param id path string true "ID сессии"
// @Success 202 {object} models.ConsoleResponse "Отпуск начат"
// @Failure 409 {object} models.ErrorResponse "Отпуск недоступен"
// @Router /console/{id}/beam-on [post]
func (h *Handler) BeamOn(c *gin.Context) {
	sessionID := c.Param("id")
	view, err := h.usecase.BeamOn(sessionID)
	if err == nil {
		h.logger.Info("Delivery started", "sessionID", sessionID, "field", view.SelectedField)
	}
	h.consoleResult(c, http.StatusAccepted, view, err)
}

// Record завершает сценарий.
// @Summary Record
// @Description Ставит отметку окончания и передает данные сценария модулю сбора.
// @Tags Console
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.RecordResponse
// @Failure 409 {object} models.ErrorResponse "Не все поля отпущены"
// @Router /console/{id}/record [post]
func (h *Handler) Record(c *gin.Context) {
	req, view, err := h.usecase.Record(c.Param("id"))
	if err != nil {
		h.consoleResult(c, http.StatusOK, view, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "record": req, "console": view})
}
