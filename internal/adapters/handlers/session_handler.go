package handlers

import (
	"fmt"
	"net/http"

	"github.com/iwtcode/linacService/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// OpenSession открывает сессию дисплея для сценария.
// @Summary Открыть сессию
// @Description Загружает сценарий из каталога сценариев и открывает консоль или экран визуализации.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.OpenSessionRequest true "Файл сценария и роль дисплея"
// @Success 200 {object} models.OpenSessionResponse "Сессия открыта"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 403 {object} models.ErrorResponse "Процесс не обслуживает эту роль"
// @Failure 404 {object} models.ErrorResponse "Сценарий не найден"
// @Router /sessions [post]
func (h *Handler) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Attempting to open display session", "file", req.File, "role", req.Role)

	info, err := h.usecase.OpenSession(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("Successfully opened session", "sessionID", info.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "session_info": info})
}

// GetSessions возвращает список открытых сессий.
// @Summary Получить список сессий
// @Description Возвращает текущий пул открытых дисплеев.
// @Tags Session
// @Produce json
// @Success 200 {object} models.GetSessionsResponse "Список сессий"
// @Router /sessions [get]
func (h *Handler) GetSessions(c *gin.Context) {
	sessions := h.usecase.GetAllSessions()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"pool_size": len(sessions),
		"sessions":  sessions,
	})
}

// CloseSession закрывает сессию по SessionID.
// @Summary Закрыть сессию
// @Description Прерывает отпуск дозы, отписывает дисплей от общего состояния и отключает WebSocket-клиентов.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.MessageResponse "Сессия закрыта"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /sessions [delete]
func (h *Handler) CloseSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	if err := h.usecase.CloseSession(req.SessionID); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": fmt.Sprintf("Session %s closed", req.SessionID),
	})
}

// GetScenarios возвращает файлы сценариев.
// @Summary Список сценариев
// @Description Возвращает имена JSON-файлов из каталога сценариев.
// @Tags Session
// @Produce json
// @Success 200 {object} models.ScenariosResponse "Файлы сценариев"
// @Failure 500 {object} models.ErrorResponse "Каталог недоступен"
// @Router /scenarios [get]
func (h *Handler) GetScenarios(c *gin.Context) {
	files, err := h.usecase.ListScenarios()
	if err != nil {
		h.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "scenarios": files})
}

// Events переводит соединение в WebSocket и отправляет события сессии.
// @Summary События сессии
// @Description WebSocket: при подключении отправляется последний снимок, далее снимки и события жизненного цикла.
// @Tags Session
// @Param id path string true "ID сессии"
// @Success 101 "Switching Protocols"
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /ws/{id} [get]
func (h *Handler) Events(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.usecase.ServeEvents(sessionID, c.Writer, c.Request); err != nil {
		if c.Writer.Written() {
			h.logger.Warn("WebSocket upgrade failed", "sessionID", sessionID, "error", err)
			return
		}
		h.HandleError(c, err)
	}
}
