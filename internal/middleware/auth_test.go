package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinRequireToken(NewTokenAuth(token)))
	r.GET("/secret", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireToken(t *testing.T) {
	r := newEngine("s3cret")

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "s3cret").Code)

	w := get(r, "Bearer s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestEmptyTokenDisablesRoutes(t *testing.T) {
	r := newEngine("")

	assert.Equal(t, http.StatusForbidden, get(r, "Bearer ").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "Bearer anything").Code)
}
