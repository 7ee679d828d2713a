package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/folio-app/folio/pkg/log"
)

// RequestIDHeader carries the request id from proxies and back to clients
const RequestIDHeader = "X-Request-Id"

// RequestID assigns every request an id. An id received from a proxy is kept
// as a suffix: "<local>/<upstream>".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()[:8]
		if upstream := c.GetHeader(RequestIDHeader); upstream != "" {
			id += "/" + upstream
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger writes one line per completed request:
//
//	USER:<id> "GET /path?q=1" 200 1234 5 ms http://referrer "User-Agent"
//
// Anonymous requests log the client address in place of USER:<id>.
func RequestLogger(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		ctx := c.Request.Context()
		who := c.ClientIP()
		userID := ""
		if user, ok := CurrentUser(c); ok {
			userID = user.ID
			who = "USER:" + userID
		}

		target := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			target += "?" + q
		}
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		status := c.Writer.Status()

		line := fmt.Sprintf(`%s "%s %s" %d %d %d ms %s "%s"`,
			who, c.Request.Method, target, status, size,
			elapsed.Milliseconds(), c.Request.Referer(), c.Request.UserAgent())

		fields := append(log.RequestFields(log.RequestIDFromContext(ctx), userID, c.Request.Method, c.Request.URL.Path),
			log.ResponseFields(status, int64(size), elapsed)...)
		if len(c.Errors) > 0 {
			fields = append(fields, log.String(log.FieldError, strings.Join(c.Errors.Errors(), "; ")))
		}

		l := logger.WithContext(ctx)
		switch {
		case status >= 500:
			l.Error(line, fields...)
		case status >= 400:
			l.Warn(line, fields...)
		default:
			l.Info(line, fields...)
		}
	}
}
