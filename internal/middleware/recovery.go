package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"blognest/api/internal/httpx"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("request_id", c.Writer.Header().Get(requestIDHeader)).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, httpx.ErrorResponse{
					StatusCode: http.StatusInternalServerError,
					Message:    "internal server error",
					Success:    false,
					Errors:     []string{},
				})
			}
		}()
		c.Next()
	}
}
