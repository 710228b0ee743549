package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sarathi/internal/api"
	"sarathi/internal/config"
)

type fakeBackend struct {
	resp       api.ChatResponse
	sendErr    error
	history    []api.ChatHistoryMessage
	historyErr error

	requests []api.ChatRequest
}

func (f *fakeBackend) SendChatMessage(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.sendErr != nil {
		return api.ChatResponse{}, f.sendErr
	}
	return f.resp, nil
}

func (f *fakeBackend) ChatHistory(ctx context.Context, sessionID string) ([]api.ChatHistoryMessage, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

type fakeTranscript struct {
	saved   map[string][]Turn
	saveErr error
}

func newFakeTranscript() *fakeTranscript {
	return &fakeTranscript{saved: map[string][]Turn{}}
}

func (f *fakeTranscript) SaveTurn(sessionID string, turn Turn) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[sessionID] = append(f.saved[sessionID], turn)
	return nil
}

func (f *fakeTranscript) Turns(sessionID string, limit int) ([]Turn, error) {
	return f.saved[sessionID], nil
}

func testConfig() config.ChatConfig {
	return config.ChatConfig{Mode: "general", RecentTurns: 4, ContextTokenLimit: 2000}
}

func heuristicOnly() *Tokenizer {
	return &Tokenizer{fallback: true, encodingName: "cl100k_base"}
}

func TestSendRecordsBothTurns(t *testing.T) {
	backend := &fakeBackend{resp: api.ChatResponse{Response: "Article 21 covers it.", MessageID: "m1"}}
	transcript := newFakeTranscript()
	s := NewService(backend, transcript, testConfig(), WithTokenizer(heuristicOnly()))

	resp, err := s.Send(context.Background(), "Explain Article 21")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response != "Article 21 covers it." {
		t.Fatalf("resp=%+v", resp)
	}

	turns := s.Turns()
	if len(turns) != 2 || turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Fatalf("turns=%+v", turns)
	}
	if saved := transcript.saved[s.SessionID()]; len(saved) != 2 {
		t.Fatalf("transcript=%+v", saved)
	}
}

func TestSendFailureRecordsNothing(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("backend down")}
	s := NewService(backend, nil, testConfig(), WithTokenizer(heuristicOnly()))

	if _, err := s.Send(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if len(s.Turns()) != 0 {
		t.Fatalf("failed send must not record turns: %v", s.Turns())
	}
}

func TestSendEmptyMessageNeverReachesBackend(t *testing.T) {
	backend := &fakeBackend{}
	s := NewService(backend, nil, testConfig(), WithTokenizer(heuristicOnly()))

	_, err := s.Send(context.Background(), "   ")
	var empty *EmptyMessageError
	if !errors.As(err, &empty) {
		t.Fatalf("err=%v", err)
	}
	if len(backend.requests) != 0 {
		t.Fatalf("blank message reached the backend")
	}
}

func TestContextCarriesRecentTurnsOnly(t *testing.T) {
	backend := &fakeBackend{resp: api.ChatResponse{Response: "ok"}}
	s := NewService(backend, nil, testConfig(), WithTokenizer(heuristicOnly()))

	for i := 0; i < 4; i++ {
		if _, err := s.Send(context.Background(), "question"); err != nil {
			t.Fatal(err)
		}
	}

	// 第五次请求的上下文只含最近 4 个回合。
	// The fifth request carries only the last 4 turns as context.
	if _, err := s.Send(context.Background(), "final"); err != nil {
		t.Fatal(err)
	}
	last := backend.requests[len(backend.requests)-1]
	recent, ok := last.Context["recent_turns"].([]map[string]string)
	if !ok {
		t.Fatalf("context=%+v", last.Context)
	}
	if len(recent) != 4 {
		t.Fatalf("recent=%d", len(recent))
	}
}

func TestContextTrimsToTokenBudget(t *testing.T) {
	backend := &fakeBackend{resp: api.ChatResponse{Response: "ok"}}
	cfg := testConfig()
	cfg.ContextTokenLimit = 40
	s := NewService(backend, nil, cfg, WithTokenizer(heuristicOnly()))

	long := strings.Repeat("polity governance constitution ", 20)
	if _, err := s.Send(context.Background(), long); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Send(context.Background(), "short"); err != nil {
		t.Fatal(err)
	}

	last := backend.requests[len(backend.requests)-1]
	recent := last.Context["recent_turns"].([]map[string]string)
	for _, turn := range recent {
		if strings.Contains(turn["content"], "polity governance") {
			t.Fatalf("oversized turn must be trimmed from context")
		}
	}
}

func TestSetMode(t *testing.T) {
	s := NewService(&fakeBackend{}, nil, testConfig(), WithTokenizer(heuristicOnly()))
	if !s.SetMode(api.ChatModeRAG) || s.Mode() != api.ChatModeRAG {
		t.Fatalf("mode=%v", s.Mode())
	}
	if s.SetMode("bogus") {
		t.Fatalf("unknown mode must be rejected")
	}
	if s.Mode() != api.ChatModeRAG {
		t.Fatalf("rejected mode must not stick: %v", s.Mode())
	}
}

func TestNewSessionRotatesID(t *testing.T) {
	backend := &fakeBackend{resp: api.ChatResponse{Response: "ok"}}
	s := NewService(backend, nil, testConfig(), WithTokenizer(heuristicOnly()))
	if _, err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	old := s.SessionID()
	fresh := s.NewSession()
	if fresh == old {
		t.Fatalf("session id must rotate")
	}
	if len(s.Turns()) != 0 {
		t.Fatalf("new session must start empty")
	}
}

func TestHistoryFallsBackToTranscript(t *testing.T) {
	backend := &fakeBackend{historyErr: errors.New("offline")}
	transcript := newFakeTranscript()
	s := NewService(backend, transcript, testConfig(), WithTokenizer(heuristicOnly()))

	transcript.saved[s.SessionID()] = []Turn{
		{Role: RoleUser, Content: "saved", CreatedAt: time.Now()},
	}
	turns, err := s.History(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].Content != "saved" {
		t.Fatalf("turns=%+v", turns)
	}
}
