package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"inkdesk/internal/apperr"
	"inkdesk/internal/middleware"
	"inkdesk/internal/service"
	"inkdesk/pkg/log"
)

// imageURLPrefix 是图片读取接口的路径前缀，编辑器把它写进 markdown。
const imageURLPrefix = "/api/uploads/images/"

// UploadHandler 负责 markdown 图片附件的上传与读取。
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// UploadImage 接收 multipart 字段 file 中的图片。
func (h *UploadHandler) UploadImage(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxImageSize+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		middleware.RespondError(c, apperr.BadRequest("File is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		middleware.RespondError(c, apperr.Internal(err))
		return
	}
	defer file.Close()

	name, err := h.uploadService.UploadImage(c.Request.Context(), user.ID, file, fileHeader.Size)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	log.Infof("[UploadHandler] 用户 %d 上传图片 %s, size: %d", user.ID, name, fileHeader.Size)
	c.JSON(http.StatusOK, gin.H{"url": imageURLPrefix + name})
}

// GetImage 读取当前用户的图片。
func (h *UploadHandler) GetImage(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	obj, err := h.uploadService.OpenImage(c.Request.Context(), user.ID, c.Param("name"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	defer obj.Body.Close()

	c.Header("Cache-Control", "private, max-age=86400")
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}
