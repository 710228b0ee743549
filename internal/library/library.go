package library

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"sarathi/internal/api"
)

// State 区分真实数据、空数据和拉取失败。
// State distinguishes real data, genuinely-empty data, and a failed fetch.
type State int

const (
	Loaded State = iota
	Empty
	Unavailable
)

// Backend 资料库依赖的后端调用。
// Backend is the set of backend calls the library depends on.
type Backend interface {
	Resources(ctx context.Context) ([]api.Resource, error)
	CreateResource(ctx context.Context, req api.ResourceCreateRequest) (api.Resource, error)
}

// Store 学习资料的本地缓存，始终按创建时间倒序持有。
// Store is the local cache of study resources, always held newest-first.
type Store struct {
	backend Backend

	mu        sync.Mutex
	resources []api.Resource
	state     State
	reason    string

	subMu sync.Mutex
	subs  []func()
}

func New(backend Backend) *Store {
	return &Store{backend: backend, state: Empty}
}

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

// Resources 返回当前缓存的拷贝及状态标记。
// Resources returns a copy of the cached list and its state.
func (s *Store) Resources() ([]api.Resource, State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Resource{}, s.resources...), s.state, s.reason
}

// Load 整体替换缓存；失败转为 Unavailable，不伪造数据。
// Load replaces the cache wholesale; failure flips to Unavailable instead of
// fabricating data.
func (s *Store) Load(ctx context.Context) {
	resources, err := s.backend.Resources(ctx)

	s.mu.Lock()
	if err != nil {
		log.Printf("library: load resources failed: %v", err)
		s.state = Unavailable
		s.reason = err.Error()
	} else {
		sortNewestFirst(resources)
		s.resources = resources
		s.reason = ""
		if len(resources) == 0 {
			s.state = Empty
		} else {
			s.state = Loaded
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Create 提交新资料；成功后把后端返回的记录插到列表最前。
// Create submits a new resource and prepends the backend's record on success.
func (s *Store) Create(ctx context.Context, req api.ResourceCreateRequest) (api.Resource, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return api.Resource{}, &ValidationError{Field: "title", Reason: "title is required"}
	}
	switch req.Kind {
	case api.ResourcePDF, api.ResourceImage, api.ResourceYouTube, api.ResourceLink, api.ResourceNote:
	default:
		return api.Resource{}, &ValidationError{Field: "kind", Reason: "unknown kind " + string(req.Kind)}
	}

	created, err := s.backend.CreateResource(ctx, req)
	if err != nil {
		return api.Resource{}, err
	}

	s.mu.Lock()
	s.resources = append([]api.Resource{created}, s.resources...)
	s.state = Loaded
	s.reason = ""
	s.mu.Unlock()
	s.notify()
	return created, nil
}

func sortNewestFirst(resources []api.Resource) {
	sort.SliceStable(resources, func(i, j int) bool {
		return resources[i].CreatedAt > resources[j].CreatedAt
	})
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}
