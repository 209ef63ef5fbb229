package handlers

import (
	"errors"
	"net/http"

	"github.com/iwtcode/linacService/internal/domain/models"
	appErrors "github.com/iwtcode/linacService/pkg/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) imagingResult(c *gin.Context, view *models.ImagingView, err error) {
	if err != nil {
		var appErr *appErrors.AppError
		if !errors.As(err, &appErr) {
			h.BadRequest(c, err, "Invalid imaging action")
			return
		}
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "imaging": view})
}

// GetImaging возвращает снимок экрана визуализации.
// @Summary Снимок экрана визуализации
// @Tags Imaging
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ImagingResponse
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /imaging/{id} [get]
func (h *Handler) GetImaging(c *gin.Context) {
	view, err := h.usecase.ImagingSnapshot(c.Param("id"))
	h.imagingResult(c, view, err)
}

// Nudge сдвигает изображение по оси.
// @Summary Сдвиг по оси
// @Tags Imaging
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param input body models.NudgeRequest true "Ось и шаг"
// @Success 200 {object} models.ImagingResponse
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Router /imaging/{id}/nudge [post]
func (h *Handler) Nudge(c *gin.Context) {
	var req models.NudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	view, err := h.usecase.Nudge(c.Param("id"), req.Axis, req.Delta)
	h.imagingResult(c, view, err)
}

// SetShift задает смещения вручную.
// @Summary Ввод смещений
// @Tags Imaging
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param input body models.ShiftRequest true "Смещения стола"
// @Success 200 {object} models.ImagingResponse
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Router /imaging/{id}/shift [post]
func (h *Handler) SetShift(c *gin.Context) {
	var req models.ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	view, err := h.usecase.SetShift(c.Param("id"), req.CouchShift)
	h.imagingResult(c, view, err)
}

// ResetShift обнуляет введенные смещения.
// @Summary Сброс смещений
// @Tags Imaging
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ImagingResponse
// @Router /imaging/{id}/reset [post]
func (h *Handler) ResetShift(c *gin.Context) {
	view, err := h.usecase.ResetShift(c.Param("id"))
	h.imagingResult(c, view, err)
}

// ApplyShifts записывает смещения в общее состояние сценария.
// @Summary Применить смещения
// @Description Смещения и время применения становятся видны консоли.
// @Tags Imaging
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} models.ImagingResponse
// @Router /imaging/{id}/apply [post]
func (h *Handler) ApplyShifts(c *gin.Context) {
	sessionID := c.Param("id")
	view, err := h.usecase.ApplyShifts(sessionID)
	if err == nil {
		h.logger.Info("Shifts applied", "sessionID", sessionID, "scenario", view.ScenarioID)
	}
	h.imagingResult(c, view, err)
}
