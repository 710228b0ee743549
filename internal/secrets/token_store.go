package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tokenFileName = "auth_token"

// TokenStore 保存唯一的会话令牌：磁盘上 0600 权限的单文件，内存中镜像一份。
// TokenStore holds the single session token: one 0600 file on disk mirrored
// in memory. Get never fails (storage errors read as absent); Set and Delete
// are best-effort and always keep the in-memory mirror current.
type TokenStore struct {
	path string

	mu     sync.RWMutex
	cached string
	loaded bool
}

func NewTokenStore(baseDir string) *TokenStore {
	return &TokenStore{path: filepath.Join(strings.TrimSpace(baseDir), tokenFileName)}
}

// Get 返回当前令牌；不存在或读取失败都视为无令牌。
// Get returns the current token; a missing file or a read failure both read
// as "no token".
func (s *TokenStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		data, err := os.ReadFile(s.path)
		if err == nil {
			s.cached = strings.TrimSpace(string(data))
		} else {
			s.cached = ""
		}
		s.loaded = true
	}
	if s.cached == "" {
		return "", false
	}
	return s.cached, true
}

// Set 持久化令牌；写盘失败时内存镜像仍会更新。
// Set persists the token; the in-memory mirror is updated even when the
// disk write fails.
func (s *TokenStore) Set(token string) {
	token = strings.TrimSpace(token)

	s.mu.Lock()
	s.cached = token
	s.loaded = true
	s.mu.Unlock()

	if token == "" {
		_ = os.Remove(s.path)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(s.path, []byte(token), 0o600)
}

// Delete 删除令牌；删除失败同样被吞掉。
// Delete removes the token; removal failures are swallowed.
func (s *TokenStore) Delete() {
	s.mu.Lock()
	s.cached = ""
	s.loaded = true
	s.mu.Unlock()

	_ = os.Remove(s.path)
}
