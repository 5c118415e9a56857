// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"inkdesk/pkg/log"
)

// maxLoggedBody 是日志中保留的请求/响应体长度上限。
const maxLoggedBody = 2048

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w bodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

// shouldLogBody 判断是否记录请求与响应体。认证接口携带密码和 cookie，上传接口是二进制内容，均不记录。
func shouldLogBody(c *gin.Context) bool {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/auth/") || strings.HasPrefix(path, "/api/uploads/") {
		return false
	}
	return strings.HasPrefix(path, "/api/")
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录请求和响应日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 记录请求开始时间
		startTime := time.Now()
		logBody := shouldLogBody(c)

		// 读取并重新缓存请求体
		var requestBody []byte
		var blw *bodyLogWriter
		if logBody {
			if c.Request.Body != nil {
				requestBody, _ = io.ReadAll(c.Request.Body)
			}
			// 将读取的请求体重新设置回 c.Request.Body，以便后续处理函数可以正常读取
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))

			// 使用自定义的 ResponseWriter 捕获响应
			blw = &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
			c.Writer = blw
		}

		// 处理请求
		c.Next()

		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if logBody {
			fields = append(fields,
				"requestBody", truncate(requestBody),
				"responseBody", blw.body.String(),
			)
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Errorw("HTTP Request Log", fields...)
		case status >= 400:
			log.Warnw("HTTP Request Log", fields...)
		default:
			log.Infow("HTTP Request Log", fields...)
		}
	}
}
