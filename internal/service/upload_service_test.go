package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inkdesk/internal/apperr"
	"inkdesk/pkg/storage"
)

// memoryStore 是测试用的内存对象存储。
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data)), ContentType: m.types[key]}, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadAndOpenImage(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewUploadService(store)

	name, err := svc.UploadImage(ctx, 7, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{32}\.png$`, name)
	assert.Contains(t, store.objects, "users/7/"+name)
	assert.Equal(t, "image/png", store.types["users/7/"+name])

	obj, err := svc.OpenImage(ctx, 7, name)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	// 其他用户看不到这张图片
	_, err = svc.OpenImage(ctx, 8, name)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUploadImageRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewUploadService(newMemoryStore())

	_, err := svc.UploadImage(ctx, 1, strings.NewReader(""), 0)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = svc.UploadImage(ctx, 1, strings.NewReader("x"), MaxImageSize+1)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	text := "just some text, not an image"
	_, err = svc.UploadImage(ctx, 1, strings.NewReader(text), int64(len(text)))
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestOpenImageRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	svc := NewUploadService(newMemoryStore())

	for _, name := range []string{"../secret", "abc.png", strings.Repeat("a", 32) + ".exe"} {
		_, err := svc.OpenImage(ctx, 1, name)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), name)
	}
	_, err := svc.OpenImage(ctx, 1, strings.Repeat("a", 32)+".png")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
