package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequireToken adapts the net/http TokenAuth to Gin.
func GinRequireToken(auth *TokenAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		auth.RequireToken(next).ServeHTTP(c.Writer, c.Request)

		// If the middleware already answered, stop the Gin chain
		if c.Writer.Written() {
			c.Abort()
		}
	}
}
