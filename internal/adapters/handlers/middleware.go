package handlers

import (
	"net/http"
	"time"

	"github.com/iwtcode/linacService/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware пишет начало и завершение запроса с маршрутом и id сессии дисплея
func LoggingMiddleware(parentLogger *logging.Logger) gin.HandlerFunc {
	logger := parentLogger.WithPrefix("HTTP")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		fields := requestFields(c)
		logger.Info("Request started", append(fields, "remote_addr", c.Request.RemoteAddr)...)

		c.Next()

		fields = append(fields,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("Request failed", fields...)
			return
		}
		logger.Info("Request completed", fields...)
	}
}

// requestFields собирает поля лога запроса: маршрут вместо сырого пути,
// id сессии и сценария, если они есть в параметрах.
func requestFields(c *gin.Context) []interface{} {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := []interface{}{"method", c.Request.Method, "route", route}
	if id := c.Param("id"); id != "" {
		fields = append(fields, "session_id", id)
	}
	if scenarioID := c.Param("scenario"); scenarioID != "" {
		fields = append(fields, "scenario", scenarioID)
	}
	return fields
}
