package session

import (
	"context"
	"log"
	"strings"
	"sync"

	"sarathi/internal/api"
)

// State 会话状态机：anonymous → authenticating → authenticated。
// State is the session state machine: anonymous → authenticating →
// authenticated.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Backend 会话存储依赖的后端调用子集。
// Backend is the subset of backend calls the session store depends on.
type Backend interface {
	VerifyOTP(ctx context.Context, phone, otp string) (api.AuthVerifyResponse, error)
	Me(ctx context.Context) (api.MeResponse, error)
	SetupProfile(ctx context.Context, req api.ProfileSetupRequest) error
}

// Tokens 会话存储对令牌的完整视角（读/写/删）。
// Tokens is the session store's full view of the token store.
type Tokens interface {
	Get() (string, bool)
	Set(token string)
	Delete()
}

// Store 独占持有 User/Profile/令牌引用。所有改变认证状态的操作在内存字段
// 更新后同步通知订阅者。
// Store exclusively owns the User/Profile/token references in memory. Every
// operation that changes authentication state notifies subscribers
// synchronously after the in-memory fields update.
type Store struct {
	backend Backend
	tokens  Tokens

	mu      sync.Mutex
	state   State
	user    *api.User
	profile *api.Profile

	subMu sync.Mutex
	subs  []func()
}

func New(backend Backend, tokens Tokens) *Store {
	return &Store{backend: backend, tokens: tokens}
}

// Subscribe 注册一个状态变化回调；回调在持锁之外同步调用。
// Subscribe registers a change callback; callbacks run synchronously with
// the store lock released.
func (s *Store) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.subMu.Lock()
	s.subs = append(s.subs, fn)
	s.subMu.Unlock()
}

func (s *Store) notify() {
	s.subMu.Lock()
	subs := append([]func(){}, s.subs...)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

func (s *Store) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Store) Profile() *api.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Authenticate 发送 OTP 校验请求。失败不向调用方抛错，只返回 false。
// Authenticate sends the OTP verification request. Failures never raise to
// the caller; they resolve to false.
func (s *Store) Authenticate(ctx context.Context, phone, otp string) bool {
	s.mu.Lock()
	s.state = Authenticating
	s.mu.Unlock()
	s.notify()

	resp, err := s.backend.VerifyOTP(ctx, phone, otp)
	if err != nil {
		log.Printf("session: authenticate failed: %v", err)
		s.mu.Lock()
		s.state = Anonymous
		s.mu.Unlock()
		s.notify()
		return false
	}

	// 令牌写入严格先于用户数据加载。
	// The token write strictly precedes loading user data.
	s.tokens.Set(resp.Token)
	s.LoadUserData(ctx)
	return s.IsAuthenticated()
}

// LoadUserData 无令牌时直接转为 anonymous，不发起任何网络调用；
// 任何拉取失败都按会话失效处理，执行完整 Logout。
// LoadUserData transitions straight to anonymous without any network call
// when no token is stored. Any fetch failure is treated as session
// invalidation and performs a full Logout — a deliberate availability
// trade-off, including on transient network errors.
func (s *Store) LoadUserData(ctx context.Context) {
	if _, ok := s.tokens.Get(); !ok {
		s.mu.Lock()
		s.state = Anonymous
		s.user = nil
		s.profile = nil
		s.mu.Unlock()
		s.notify()
		return
	}

	me, err := s.backend.Me(ctx)
	if err != nil {
		log.Printf("session: load user data failed: %v", err)
		s.Logout()
		return
	}

	s.mu.Lock()
	user := me.User
	s.user = &user
	s.profile = me.Profile
	s.state = Authenticated
	s.mu.Unlock()
	s.notify()
}

// SetupProfile 提交资料后无条件重新拉取，不做本地合并。
// SetupProfile posts profile fields and unconditionally re-fetches; there is
// no partial local merge.
func (s *Store) SetupProfile(ctx context.Context, req api.ProfileSetupRequest) error {
	if err := validateProfile(req); err != nil {
		return err
	}
	if err := s.backend.SetupProfile(ctx, req); err != nil {
		return err
	}
	s.LoadUserData(ctx)
	return nil
}

// Logout 幂等：删除令牌并清空内存状态。
// Logout is idempotent: delete the token and clear in-memory state.
func (s *Store) Logout() {
	s.tokens.Delete()
	s.mu.Lock()
	s.user = nil
	s.profile = nil
	s.state = Anonymous
	s.mu.Unlock()
	s.notify()
}

// ValidationError 在任何网络调用之前被客户端拦下的输入错误。
// ValidationError is caught client-side before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func validateProfile(req api.ProfileSetupRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if req.HoursPerDay < 1 || req.HoursPerDay > 16 {
		return &ValidationError{Field: "hours_per_day", Reason: "must be between 1 and 16"}
	}
	return nil
}
