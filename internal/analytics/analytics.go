package analytics

import (
	"context"
	"fmt"
	"log"
	"math"
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

// Backend 仪表盘依赖的后端调用。
// Backend is the backend call the dashboard depends on.
type Backend interface {
	AnalyticsDashboard(ctx context.Context) (api.Dashboard, error)
}

// Store 只读的仪表盘聚合缓存：整体替换最近一次拉取结果，本地不做任何
// 二次聚合。
// Store is the read-only dashboard aggregate cache: it replaces the latest
// fetch wholesale and never re-aggregates locally.
type Store struct {
	backend Backend

	mu     sync.Mutex
	data   api.Dashboard
	state  State
	reason string

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

// Dashboard 返回最近一次成功拉取的聚合及状态标记。
// Dashboard returns the latest successfully fetched aggregate and its state.
func (s *Store) Dashboard() (api.Dashboard, State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.state, s.reason
}

// LoadDashboard 失败时转为 Unavailable，不伪造数据；演示聚合由
// DemoDashboard 单独提供。
// LoadDashboard flips to Unavailable on failure instead of fabricating data;
// the demo aggregate is served separately by DemoDashboard.
func (s *Store) LoadDashboard(ctx context.Context) {
	data, err := s.backend.AnalyticsDashboard(ctx)

	s.mu.Lock()
	if err != nil {
		log.Printf("analytics: load dashboard failed: %v", err)
		s.state = Unavailable
		s.reason = err.Error()
	} else {
		s.data = data
		s.reason = ""
		if data.TotalStudyMinutes == 0 && len(data.SubjectStats) == 0 {
			s.state = Empty
		} else {
			s.state = Loaded
		}
	}
	s.mu.Unlock()
	s.notify()
}

// FormatCompletionRate 四舍五入（half-up）到整数百分比，仅用于展示，
// 不改动存储的原始值。
// FormatCompletionRate rounds half-up to a whole percent for display only;
// the stored raw value is never mutated.
func FormatCompletionRate(rate float64) string {
	return fmt.Sprintf("%d%%", int(math.Floor(rate+0.5)))
}

// DemoDashboard 仪表盘不可用时可供展示的固定演示聚合。
// DemoDashboard is the fixed demo aggregate the UI may show while the
// dashboard is unavailable.
func DemoDashboard() api.Dashboard {
	return api.Dashboard{
		TotalStudyMinutes: 1260,
		StreakCount:       7,
		CompletionRate:    78,
		SubjectStats: map[string]api.SubjectStats{
			"gs1":   {Minutes: 300, Completed: 5, Total: 7},
			"gs2":   {Minutes: 280, Completed: 4, Total: 6},
			"gs3":   {Minutes: 320, Completed: 6, Total: 8},
			"gs4":   {Minutes: 210, Completed: 3, Total: 5},
			"essay": {Minutes: 150, Completed: 2, Total: 3},
		},
		WeeklyMinutes: []int{180, 210, 190, 240, 220, 180, 200},
	}
}
