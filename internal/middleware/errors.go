package middleware

import (
	"github.com/gin-gonic/gin"
	"inkdesk/internal/apperr"
	"inkdesk/pkg/log"
)

// RespondError 把错误转换为 {"error", "code"} 响应并中止请求。
// Internal 错误只返回通用信息，原因记录在服务端日志中。
func RespondError(c *gin.Context, err error) {
	kind, message := apperr.Public(err)
	if kind == apperr.KindInternal {
		log.Errorf("[%s %s] 内部错误: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{
		"error": message,
		"code":  kind,
	})
}
