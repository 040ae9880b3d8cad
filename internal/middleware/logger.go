package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestID    = "requestId"
)

// RequestLogger tags each request with an id and logs its outcome. Server
// errors are logged with the cause recorded by web.Context.RespondError.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)

		c.Next()

		status := c.Writer.Status()

		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
			if last := c.Errors.Last(); last != nil {
				ev = ev.Err(last.Err)
			}
		case status >= 400:
			ev = log.Warn()
			if last := c.Errors.Last(); last != nil {
				ev = ev.Str("reason", last.Error())
			}
		default:
			ev = log.Info()
		}

		ev = ev.Str("requestId", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start))
		if uid, ok := c.Get(CtxUserID); ok {
			ev = ev.Interface("userId", uid)
		}
		ev.Msg("request")
	}
}
