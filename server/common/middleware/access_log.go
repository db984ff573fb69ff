package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	commonlog "stream_server/server/common/log"
)

func AccessLog(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.Request.URL.Path
		latency := time.Since(start).Milliseconds()
		requestID := RequestIDFromContext(c)
		switch {
		case status >= 500:
			commonlog.Errorf("event=http_request service=%s method=%s path=%s status=%d latency_ms=%d bytes=%d request_id=%s client_ip=%s", service, c.Request.Method, path, status, latency, c.Writer.Size(), requestID, c.ClientIP())
		case status >= 400:
			commonlog.Warnf("event=http_request service=%s method=%s path=%s status=%d latency_ms=%d bytes=%d request_id=%s client_ip=%s", service, c.Request.Method, path, status, latency, c.Writer.Size(), requestID, c.ClientIP())
		case path == "/metrics" || path == "/health":
			commonlog.Debugf("event=http_request service=%s method=%s path=%s status=%d latency_ms=%d", service, c.Request.Method, path, status, latency)
		default:
			commonlog.Infof("event=http_request service=%s method=%s path=%s status=%d latency_ms=%d bytes=%d request_id=%s client_ip=%s", service, c.Request.Method, path, status, latency, c.Writer.Size(), requestID, c.ClientIP())
		}
	}
}
