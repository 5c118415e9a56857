package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"inkdesk/internal/middleware"
	"inkdesk/internal/service"
	"inkdesk/pkg/log"
)

// SearchHandler 结构体定义了文章检索的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 在当前用户的文章中做全文检索。
func (h *SearchHandler) Search(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	query := c.Query("q")
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil {
		size = 0
	}

	results, err := h.searchService.Search(c.Request.Context(), user.ID, query, size)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	log.Infof("[SearchHandler] 检索成功, query: '%s', 返回 %d 条结果", query, len(results))
	c.JSON(http.StatusOK, results)
}
