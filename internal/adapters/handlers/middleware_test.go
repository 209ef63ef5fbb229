package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func fieldMap(fields []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		out[fields[i].(string)] = fields[i+1]
	}
	return out
}

func TestRequestFieldsCarrySessionAndRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var got map[string]interface{}
	capture := func(c *gin.Context) { got = fieldMap(requestFields(c)) }
	router.POST("/api/v1/console/:id/beam-on", capture)
	router.PUT("/api/v1/state/:scenario", capture)
	router.NoRoute(capture)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/console/5f1c/beam-on", nil))
	require.Equal(t, "/api/v1/console/:id/beam-on", got["route"])
	require.Equal(t, "5f1c", got["session_id"])
	require.Equal(t, http.MethodPost, got["method"])
	require.NotContains(t, got, "scenario")

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/v1/state/A2", nil))
	require.Equal(t, "A2", got["scenario"])
	require.NotContains(t, got, "session_id")

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/unknown", nil))
	require.Equal(t, "/unknown", got["route"])
}
