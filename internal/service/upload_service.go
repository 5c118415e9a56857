package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	"inkdesk/internal/apperr"
	"inkdesk/pkg/storage"
	"inkdesk/pkg/token"
)

// MaxImageSize 是单张图片的大小上限。
const MaxImageSize = 10 << 20

// allowedImageTypes 把允许的图片 MIME 类型映射到文件扩展名。
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var imageNamePattern = regexp.MustCompile(`^[0-9a-f]{32}\.(png|jpg|gif|webp)$`)

// ObjectStore 是 UploadService 依赖的对象存储，由 storage.MinIOStore 实现。
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*storage.Object, error)
}

// UploadService 定义了 markdown 编辑器中图片附件的上传与读取。
type UploadService interface {
	// UploadImage 保存图片并返回图片名，图片名只在所属用户下有效。
	UploadImage(ctx context.Context, userID uint, r io.Reader, size int64) (string, error)
	OpenImage(ctx context.Context, userID uint, name string) (*storage.Object, error)
}

type uploadService struct {
	store ObjectStore
}

// NewUploadService 创建一个新的 UploadService 实例。
func NewUploadService(store ObjectStore) UploadService {
	return &uploadService{store: store}
}

func imageKey(userID uint, name string) string {
	return fmt.Sprintf("users/%d/%s", userID, name)
}

func (s *uploadService) UploadImage(ctx context.Context, userID uint, r io.Reader, size int64) (string, error) {
	if size <= 0 {
		return "", apperr.BadRequest("File is empty")
	}
	if size > MaxImageSize {
		return "", apperr.BadRequest("File is too large")
	}

	// 按内容识别类型，不信任客户端声明的 Content-Type
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("读取上传文件失败: %w", err))
	}
	if int64(len(data)) > MaxImageSize {
		return "", apperr.BadRequest("File is too large")
	}
	mtype := mimetype.Detect(data)
	ext, ok := allowedImageTypes[mtype.String()]
	if !ok {
		return "", apperr.BadRequest("Only png, jpeg, gif and webp images are allowed")
	}

	id, err := token.RandomHex(16)
	if err != nil {
		return "", apperr.Internal(err)
	}
	name := id + ext
	if err := s.store.Put(ctx, imageKey(userID, name), bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		return "", apperr.Internal(fmt.Errorf("保存图片失败: %w", err))
	}
	return name, nil
}

func (s *uploadService) OpenImage(ctx context.Context, userID uint, name string) (*storage.Object, error) {
	if !imageNamePattern.MatchString(name) {
		return nil, apperr.NotFound("Image not found")
	}
	obj, err := s.store.Get(ctx, imageKey(userID, name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.NotFound("Image not found")
		}
		return nil, apperr.Internal(fmt.Errorf("读取图片失败: %w", err))
	}
	return obj, nil
}
