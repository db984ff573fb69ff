package middleware

import (
	"github.com/gin-gonic/gin"

	"stream_server/server/common/metrics"
)

// Pipeline is the ordered interceptor chain shared by every service. Route
// groups add their own guards (AuthRequired, RequireRoles) after it.
func Pipeline(service string, allowedOrigins []string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		Recovery(),
		RequestID(),
		AccessLog(service),
		CORS(allowedOrigins),
		Metrics(service),
	}
}

func NewEngine(service string, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(Pipeline(service, allowedOrigins)...)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	return r
}
