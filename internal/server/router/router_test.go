package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qclabs/qcl/internal/logger"
)

func newTestRouter(corsOrigin string) *Router {
	r := NewRouter(RouterOptions{Logger: logger.NewLogger(logger.LoggerOptions{}), CORSAllowOrigin: corsOrigin})
	r.SetRoutes([]*Route{
		{Name: "ping", Method: http.MethodGet, Pattern: "/ping", HandlerFunc: func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		}},
	})
	return r
}

func TestSetRoutesRegistersHandler(t *testing.T) {
	assert := assert.New(t)
	r := newTestRouter("")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(http.StatusOK, w.Code)
	assert.Equal("pong", w.Body.String())
}

func TestUnknownRouteReturns404(t *testing.T) {
	assert := assert.New(t)
	r := newTestRouter("")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	r.ServeHTTP(w, req)
	assert.Equal(http.StatusNotFound, w.Code)
}

func TestCORSHeadersSetWhenOriginConfigured(t *testing.T) {
	assert := assert.New(t)
	r := newTestRouter("*")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptionsRequestReturns204(t *testing.T) {
	assert := assert.New(t)
	r := newTestRouter("*")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(http.StatusNoContent, w.Code)
}

func TestShutdownWithoutStartErrors(t *testing.T) {
	r := newTestRouter("")
	err := r.Shutdown(nil)
	assert.Error(t, err)
}
