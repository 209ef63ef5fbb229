package handlers

import (
	"net/http"

	"github.com/iwtcode/linacService/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GetStates возвращает все записи общего состояния.
// @Summary Все записи общего состояния
// @Tags State
// @Produce json
// @Success 200 {object} models.StatesResponse
// @Router /state [get]
func (h *Handler) GetStates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "states": h.usecase.ListStates()})
}

// GetState возвращает запись общего состояния сценария.
// @Summary Запись общего состояния
// @Description Отсутствующая запись возвращается пустой с found=false.
// @Tags State
// @Produce json
// @Param scenario path string true "ID сценария"
// @Success 200 {object} models.StateResponse
// @Router /state/{scenario} [get]
func (h *Handler) GetState(c *gin.Context) {
	st, found := h.usecase.ReadState(c.Param("scenario"))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "found": found, "state": st})
}

// WriteState записывает патч в общее состояние сценария.
// @Summary Запись в общее состояние
// @Description merge=true (по умолчанию) - поверхностное слияние, иначе замена записи.
// @Tags State
// @Accept json
// @Produce json
// @Param scenario path string true "ID сценария"
// @Param input body models.StateWriteRequest true "Патч"
// @Success 200 {object} models.StateResponse
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Router /state/{scenario} [put]
func (h *Handler) WriteState(c *gin.Context) {
	var req models.StateWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	merge := true
	if req.Merge != nil {
		merge = *req.Merge
	}
	scenarioID := c.Param("scenario")
	st := h.usecase.WriteState(scenarioID, req.Patch, merge)
	h.logger.Info("Shared state written", "scenario", scenarioID, "merge", merge)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "found": true, "state": st})
}
