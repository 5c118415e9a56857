// Package apperr 定义了业务错误的封闭集合，并负责把错误类型映射为 HTTP 状态码。
package apperr

import (
	"errors"
	"net/http"
)

// Kind 是业务错误的类别。
type Kind string

const (
	KindBadRequest         Kind = "BAD_REQUEST"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindInvalidSession     Kind = "INVALID_SESSION"
	KindSessionExpired     Kind = "SESSION_EXPIRED"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindInternal           Kind = "INTERNAL"
)

// internalMessage 是返回给客户端的通用错误信息，不暴露内部细节。
const internalMessage = "Internal server error"

// Error 是带类别的业务错误。Err 只用于服务端日志。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建一个指定类别的错误。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func BadRequest(message string) *Error { return New(KindBadRequest, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

// Internal 包装一个意料之外的错误。
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: internalMessage, Err: err}
}

var (
	ErrUnauthenticated    = New(KindUnauthenticated, "Authentication required")
	ErrInvalidSession     = New(KindInvalidSession, "Invalid session")
	ErrSessionExpired     = New(KindSessionExpired, "Session expired")
	ErrInvalidCredentials = New(KindInvalidCredentials, "Invalid credentials")
)

// KindOf 返回错误的类别，非 *Error 的错误一律视为 Internal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 报告 err 是否属于指定类别。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus 返回类别对应的 HTTP 状态码。重复邮箱沿用 400。
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindBadRequest, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidSession, KindSessionExpired, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Public 返回可以安全返回给客户端的类别与信息。
func Public(err error) (Kind, string) {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Kind, e.Message
	}
	return KindInternal, internalMessage
}
