// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"inkdesk/internal/apperr"
	"inkdesk/internal/model"
	"inkdesk/internal/repository"
	"inkdesk/pkg/database"
	"inkdesk/pkg/hash"
	"inkdesk/pkg/log"
	"inkdesk/pkg/token"
)

// UserService 接口定义了注册、登录、登出以及会话校验等业务操作。
type UserService interface {
	SignUp(ctx context.Context, email, password string, name *string) (*model.User, *model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	SignOut(ctx context.Context, token string) error
	// Authenticate 把会话令牌解析为会话（含用户信息）。过期的会话会被顺带删除。
	Authenticate(ctx context.Context, token string) (*model.Session, error)
	// CurrentUser 是不会失败的身份探测：没有有效会话时返回 (nil, nil)。
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	cache       repository.SessionCache
	sessionTTL  time.Duration
	now         func() time.Time
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cache repository.SessionCache, sessionTTL time.Duration) UserService {
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cache:       cache,
		sessionTTL:  sessionTTL,
		now:         database.NowFunc,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp 处理用户注册：校验字段、检查邮箱、哈希密码、创建用户并签发会话。
func (s *userService) SignUp(ctx context.Context, email, password string, name *string) (*model.User, *model.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, apperr.BadRequest("Email and password are required")
	}

	// 1. 检查邮箱是否已注册
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, nil, apperr.Conflict("Email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.Internal(fmt.Errorf("查询用户失败: %w", err))
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	// 3. 创建用户
	if name != nil && strings.TrimSpace(*name) == "" {
		name = nil
	}
	user := &model.User{Email: email, PasswordHash: hashedPassword, Name: name}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, nil, apperr.Conflict("Email already registered")
		}
		return nil, nil, apperr.Internal(fmt.Errorf("创建用户失败: %w", err))
	}

	// 4. 签发会话
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// SignIn 处理用户登录。未知邮箱与错误密码返回同一个错误。
func (s *userService) SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, apperr.BadRequest("Email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrInvalidCredentials
		}
		return nil, nil, apperr.Internal(fmt.Errorf("查询用户失败: %w", err))
	}
	if !hash.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, apperr.ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *userService) issueSession(ctx context.Context, user *model.User) (*model.Session, error) {
	tok, err := token.NewSessionToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	session := &model.Session{
		Token:     tok,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, apperr.Internal(fmt.Errorf("创建会话失败: %w", err))
	}
	session.User = *user
	if err := s.cache.Set(ctx, tok, session); err != nil {
		log.Warnf("[UserService] 缓存会话失败, userID: %d, error: %v", user.ID, err)
	}
	return session, nil
}

// SignOut 删除令牌对应的会话。会话不存在时同样视为成功。
func (s *userService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, token); err != nil {
		log.Warnf("[UserService] 删除会话缓存失败: %v", err)
	}
	if _, err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
		return apperr.Internal(fmt.Errorf("删除会话失败: %w", err))
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}

	session, cached := s.lookupCache(ctx, token)
	if session == nil {
		found, err := s.sessionRepo.FindByToken(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.ErrInvalidSession
			}
			return nil, apperr.Internal(fmt.Errorf("查询会话失败: %w", err))
		}
		session = found
	}

	if session.Expired(s.now()) {
		if err := s.cache.Delete(ctx, token); err != nil {
			log.Warnf("[UserService] 删除过期会话缓存失败: %v", err)
		}
		if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
			return nil, apperr.Internal(fmt.Errorf("删除过期会话失败: %w", err))
		}
		return nil, apperr.ErrSessionExpired
	}

	if !cached {
		if err := s.cache.Set(ctx, token, session); err != nil {
			log.Warnf("[UserService] 缓存会话失败: %v", err)
		}
	}
	return session, nil
}

// lookupCache 从缓存读取会话，缓存异常时退化为数据库查询。
func (s *userService) lookupCache(ctx context.Context, token string) (*model.Session, bool) {
	c, err := s.cache.Get(ctx, token)
	if err != nil {
		log.Warnf("[UserService] 读取会话缓存失败，回退数据库: %v", err)
		return nil, false
	}
	if c == nil {
		return nil, false
	}
	return c.Session(token), true
}

func (s *userService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindUnauthenticated, apperr.KindInvalidSession, apperr.KindSessionExpired:
			return nil, nil
		}
		return nil, err
	}
	return &session.User, nil
}
