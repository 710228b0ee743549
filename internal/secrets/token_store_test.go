package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetGetDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewTokenStore(dir)

	if tok, ok := s.Get(); ok || tok != "" {
		t.Fatalf("empty store should have no token, got %q", tok)
	}

	s.Set("abc123")
	if tok, ok := s.Get(); !ok || tok != "abc123" {
		t.Fatalf("get after set: %q %v", tok, ok)
	}

	// 新实例从磁盘恢复 / a fresh instance recovers from disk
	s2 := NewTokenStore(dir)
	if tok, ok := s2.Get(); !ok || tok != "abc123" {
		t.Fatalf("fresh store should read persisted token, got %q %v", tok, ok)
	}

	s.Delete()
	if _, ok := s.Get(); ok {
		t.Fatalf("token should be gone after delete")
	}
	if _, err := os.Stat(filepath.Join(dir, tokenFileName)); !os.IsNotExist(err) {
		t.Fatalf("token file should be removed, stat err=%v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := NewTokenStore(t.TempDir())
	s.Delete()
	s.Delete()
	if _, ok := s.Get(); ok {
		t.Fatalf("token should stay absent")
	}
}

func TestGetSwallowsStorageFailure(t *testing.T) {
	// 路径指向不存在的目录，读取失败只意味着无令牌。
	// Path points into a missing directory; the failed read means "absent".
	s := NewTokenStore(filepath.Join(t.TempDir(), "missing", "deep"))
	if tok, ok := s.Get(); ok || tok != "" {
		t.Fatalf("unreadable store must report absent, got %q %v", tok, ok)
	}
}

func TestSetEmptyClears(t *testing.T) {
	dir := t.TempDir()
	s := NewTokenStore(dir)
	s.Set("tok")
	s.Set("")
	if _, ok := s.Get(); ok {
		t.Fatalf("setting empty token should clear the store")
	}
}

func TestTokenFileMode(t *testing.T) {
	dir := t.TempDir()
	s := NewTokenStore(dir)
	s.Set("secret")
	info, err := os.Stat(filepath.Join(dir, tokenFileName))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token file mode=%o", perm)
	}
}
