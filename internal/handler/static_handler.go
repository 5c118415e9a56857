package handler

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"inkdesk/internal/apperr"
	"inkdesk/internal/middleware"
	"inkdesk/pkg/log"
)

// Health 是存活探针。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// isAPIPath 判断请求是否属于 /api 命名空间。
func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// NewFrontendHandler 创建处理所有非 API 路径的 NoRoute 处理器。
// devAssetURL 非空时把请求反向代理到前端开发服务器，否则从 staticDir 提供文件，
// 未知路径回退到 index.html 交给前端路由。/api 下的未知路径统一返回 404 JSON。
func NewFrontendHandler(staticDir, devAssetURL string) (gin.HandlerFunc, error) {
	var proxy *httputil.ReverseProxy
	if devAssetURL != "" {
		target, err := url.Parse(devAssetURL)
		if err != nil {
			return nil, err
		}
		proxy = httputil.NewSingleHostReverseProxy(target)
		log.Infof("非 API 请求将代理到 %s", target)
	}

	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if isAPIPath(reqPath) {
			middleware.RespondError(c, apperr.NotFound("Not found"))
			return
		}
		if proxy != nil {
			proxy.ServeHTTP(c.Writer, c.Request)
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}

		file := filepath.Join(staticDir, filepath.FromSlash(path.Clean("/"+reqPath)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	}, nil
}
