package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/issvwap/internal/domain/dto"
	"github.com/guttosm/issvwap/internal/logger"
)

// RecoveryMiddleware turns a handler panic into a 500 ErrorResponse and logs it with the stack
// and the request it happened on. The panic value itself is not sent to the client.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log := logger.Component("http")
			log.Error().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("handler_panic")

			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse("Internal server error", fmt.Errorf("request %s failed", GetRequestID(c))))
		}()

		c.Next()
	}
}
