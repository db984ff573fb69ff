package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	commonlog "stream_server/server/common/log"
	"stream_server/server/common/transport/httpresp"
)

func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		commonlog.Exceptionf("event=http_panic method=%s path=%s request_id=%s panic=%v", c.Request.Method, c.Request.URL.Path, RequestIDFromContext(c), recovered)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, httpresp.NewErrorResponse(httpresp.ErrInternal))
	})
}
