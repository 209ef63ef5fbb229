package handlers

import (
	"net/http"

	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/middleware/swagger"

	"github.com/gin-gonic/gin"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig, swagCfg *swagger.Config) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.Default()

	// Swagger
	swagger.Setup(router, swagCfg)

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.OpenSession)
			sessions.GET("", h.GetSessions)
			sessions.DELETE("", h.CloseSession)
		}
		v1.GET("/scenarios", h.GetScenarios)
		v1.GET("/ws/:id", h.Events)

		console := v1.Group("/console/:id")
		{
			console.GET("", h.GetConsole)
			console.POST("/select", h.SelectField)
			console.POST("/prepare", h.Prepare)
			console.POST("/checklist", h.CheckItem)
			console.POST("/confirm", h.Confirm)
			console.POST("/cancel", h.Cancel)
			console.POST("/tolerance", h.ReportTolerance)
			console.POST("/override", h.Override)
			console.POST("/beam-on", h.BeamOn)
			console.POST("/record", h.Record)
		}

		imaging := v1.Group("/imaging/:id")
		{
			imaging.GET("", h.GetImaging)
			imaging.POST("/nudge", h.Nudge)
			imaging.POST("/shift", h.SetShift)
			imaging.POST("/reset", h.ResetShift)
			imaging.POST("/apply", h.ApplyShifts)
		}

		state := v1.Group("/state")
		{
			state.GET("", h.GetStates)
			state.GET("/:scenario", h.GetState)
			state.PUT("/:scenario", h.WriteState)
		}
	}

	return router
}
