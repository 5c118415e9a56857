package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"inkdesk/internal/apperr"
	"inkdesk/internal/model"
	"inkdesk/internal/service"
	"inkdesk/pkg/log"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubUserService 只实现 Authenticate，其余方法不会被中间件调用。
type stubUserService struct {
	service.UserService
	sessions map[string]*model.Session
	err      error
}

func (s *stubUserService) Authenticate(_ context.Context, token string) (*model.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, apperr.ErrInvalidSession
}

var testCookie = CookieConfig{Name: "session"}

func newEngine(users service.UserService) *gin.Engine {
	r := gin.New()
	r.GET("/private", AuthMiddleware(users, testCookie), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
	})
	return r
}

func get(r http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	users := &stubUserService{sessions: map[string]*model.Session{
		"good": {ID: 1, UserID: 7, User: model.User{ID: 7, Email: "a@x.com"}},
	}}
	r := newEngine(users)

	rec := get(r, &http.Cookie{Name: "session", Value: "good"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"email":"a@x.com"}`, rec.Body.String())

	rec = get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required","code":"UNAUTHENTICATED"}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	rec = get(r, &http.Cookie{Name: "session", Value: "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Less(t, rec.Result().Cookies()[0].MaxAge, 0)
}

func TestAuthMiddlewareInternalError(t *testing.T) {
	r := newEngine(&stubUserService{err: apperr.Internal(errors.New("db down"))})
	rec := get(r, &http.Cookie{Name: "session", Value: "any"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error","code":"INTERNAL"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestSessionCookieAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	SetSessionCookie(c, CookieConfig{Name: "session", Secure: true}, "tok", time.Now().Add(time.Hour))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, "/", cookies[0].Path)
}

func TestShouldLogBody(t *testing.T) {
	cases := map[string]bool{
		"/api/articles":        true,
		"/api/ai/chat":         true,
		"/api/auth/signin":     false,
		"/api/uploads/images":  false,
		"/assets/index-abc.js": false,
	}
	for path, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, path, nil)
		assert.Equal(t, want, shouldLogBody(c), path)
	}
}

func TestRequestLoggerKeepsBody(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.POST("/api/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(`{"a":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"a":"b"}`, rec.Body.String())
}

func TestRequestLoggerOmitsAuthBodies(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log.SetLogger(zap.New(core))
	t.Cleanup(func() { log.SetLogger(zap.NewNop()) })

	r := gin.New()
	r.Use(RequestLogger())
	r.POST("/api/auth/signin", func(c *gin.Context) { c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"}) })
	r.POST("/api/articles", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": 1}) })

	for _, path := range []string{"/api/auth/signin", "/api/articles"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"password":"secret123"}`))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	auth := entries[0].ContextMap()
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "/api/auth/signin", auth["path"])
	assert.NotContains(t, auth, "requestBody")

	articles := entries[1].ContextMap()
	assert.Equal(t, `{"password":"secret123"}`, articles["requestBody"])
	assert.Equal(t, `{"id":1}`, articles["responseBody"])
}
