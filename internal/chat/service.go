package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sarathi/internal/api"
	"sarathi/internal/config"
)

// Backend 聊天依赖的后端调用。
// Backend is the set of backend calls chat depends on.
type Backend interface {
	SendChatMessage(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
	ChatHistory(ctx context.Context, sessionID string) ([]api.ChatHistoryMessage, error)
}

// Transcript 本地保存对话记录，后端不可达时仍可回看。
// Transcript persists turns locally so history survives backend outages.
type Transcript interface {
	SaveTurn(sessionID string, turn Turn) error
	Turns(sessionID string, limit int) ([]Turn, error)
}

// Service 管理一个聊天会话：组装上下文、调用后端、记录回合。
// Service manages one chat session: it assembles context, calls the backend
// and records turns.
type Service struct {
	backend    Backend
	transcript Transcript // 可为 nil / may be nil
	tokenizer  *Tokenizer
	cfg        config.ChatConfig

	mu        sync.Mutex
	sessionID string
	mode      api.ChatMode
	turns     []Turn

	now func() time.Time
}

type Option func(*Service)

func WithTokenizer(tok *Tokenizer) Option {
	return func(s *Service) { s.tokenizer = tok }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(backend Backend, transcript Transcript, cfg config.ChatConfig, opts ...Option) *Service {
	s := &Service{
		backend:    backend,
		transcript: transcript,
		cfg:        cfg,
		sessionID:  uuid.NewString(),
		mode:       api.ChatMode(cfg.Mode),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokenizer == nil {
		s.tokenizer = DefaultTokenizer()
	}
	return s
}

func (s *Service) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Service) Mode() api.ChatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode 切换会话模式；未知模式被忽略。
// SetMode switches the session mode; unknown modes are ignored.
func (s *Service) SetMode(mode api.ChatMode) bool {
	switch mode {
	case api.ChatModeGeneral, api.ChatModeRAG, api.ChatModePlanner:
	default:
		return false
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return true
}

// NewSession 开启新会话：换 id、清空本地回合。
// NewSession starts a fresh session with a new id and an empty turn buffer.
func (s *Service) NewSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = uuid.NewString()
	s.turns = nil
	return s.sessionID
}

// Turns 返回当前会话已记录回合的拷贝。
// Turns returns a copy of the turns recorded in the current session.
func (s *Service) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn{}, s.turns...)
}

// Send 发送一条消息。上下文取最近若干回合并裁剪到 token 预算内；后端
// 失败时不记录任何回合，错误原样返回。
// Send posts one message. Context carries the most recent turns trimmed to
// the token budget; on backend failure nothing is recorded and the error is
// returned as-is.
func (s *Service) Send(ctx context.Context, message string) (api.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return api.ChatResponse{}, &EmptyMessageError{}
	}

	s.mu.Lock()
	req := api.ChatRequest{
		SessionID: s.sessionID,
		Message:   message,
		Mode:      s.mode,
		Context:   s.contextPayloadLocked(),
	}
	s.mu.Unlock()

	resp, err := s.backend.SendChatMessage(ctx, req)
	if err != nil {
		return api.ChatResponse{}, err
	}

	now := s.now()
	s.record(Turn{Role: RoleUser, Content: message, CreatedAt: now})
	s.record(Turn{Role: RoleAssistant, Content: resp.Response, CreatedAt: now})
	return resp, nil
}

// History 优先取后端的会话历史；不可达时回退到本地记录。
// History prefers the backend transcript and falls back to the local one
// when the backend is unreachable.
func (s *Service) History(ctx context.Context) ([]Turn, error) {
	id := s.SessionID()
	messages, err := s.backend.ChatHistory(ctx, id)
	if err == nil {
		turns := make([]Turn, 0, len(messages))
		for _, m := range messages {
			turns = append(turns, Turn{Role: m.Role, Content: m.Content})
		}
		return turns, nil
	}
	if s.transcript != nil {
		local, lerr := s.transcript.Turns(id, 0)
		if lerr == nil {
			return local, nil
		}
	}
	return nil, err
}

func (s *Service) record(turn Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	id := s.sessionID
	s.mu.Unlock()

	if s.transcript == nil {
		return
	}
	// 本地落盘尽力而为，失败不影响会话。
	// Local persistence is best-effort; failure never breaks the session.
	if err := s.transcript.SaveTurn(id, turn); err != nil {
		log.Printf("chat: save turn failed: %v", err)
	}
}

// contextPayloadLocked 截取最近 RecentTurns 回合，再从最旧一侧丢弃直到
// 总量落在 ContextTokenLimit 内。
// contextPayloadLocked takes the last RecentTurns turns, then drops from the
// oldest side until the total fits ContextTokenLimit.
func (s *Service) contextPayloadLocked() map[string]any {
	recent := s.turns
	if n := s.cfg.RecentTurns; n > 0 && len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	for len(recent) > 0 && s.tokenizer.CountTurns(recent) > s.cfg.ContextTokenLimit {
		recent = recent[1:]
	}

	turns := make([]map[string]string, 0, len(recent))
	for _, t := range recent {
		turns = append(turns, map[string]string{"role": t.Role, "content": t.Content})
	}
	return map[string]any{"recent_turns": turns}
}

// EmptyMessageError 空消息不上送后端。
// EmptyMessageError marks a blank message that never reaches the backend.
type EmptyMessageError struct{}

func (e *EmptyMessageError) Error() string { return "chat: message is empty" }
