package swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSetupServesDocWithServiceHost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Setup(r, &Config{Enabled: true, Path: "/swagger/", Host: "localhost:9000", BasePath: "/api/v1"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"host": "localhost:9000"`)
	require.Contains(t, w.Body.String(), "/console/{id}/beam-on")
}

func TestSetupDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Setup(r, &Config{Enabled: false, Path: "/swagger"})
	Setup(r, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
