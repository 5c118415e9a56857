// Package token 负责生成不透明的会话令牌。
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SessionTokenBytes 是会话令牌的随机字节数（hex 编码后为 64 个字符）。
const SessionTokenBytes = 32

// NewSessionToken 生成一个 32 字节、hex 编码的随机会话令牌。
func NewSessionToken() (string, error) {
	return RandomHex(SessionTokenBytes)
}

// RandomHex generates a random hex string from n bytes of crypto/rand data.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
