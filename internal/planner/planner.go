package planner

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"sarathi/internal/api"
)

// ViewState 区分真实的空集合与拉取失败。
// ViewState distinguishes a genuinely empty collection from a failed fetch.
type ViewState int

const (
	Loaded ViewState = iota
	Empty
	Unavailable
)

// View 一次 replace-wholesale 拉取的结果标记。
// View tags the outcome of one replace-wholesale fetch.
type View struct {
	State  ViewState
	Reason string
}

// Backend 计划存储依赖的后端调用子集。
// Backend is the subset of backend calls the planner store depends on.
type Backend interface {
	PlanItems(ctx context.Context, date string) ([]api.PlanItem, error)
	GeneratePlan(ctx context.Context, req api.PlanGenerateRequest) error
	LogProgress(ctx context.Context, req api.StudyLogRequest) error
}

// Journal 本地学习日志（尽力而为，失败只记日志不影响调用方）。
// Journal is the local study audit trail; best-effort, failures never reach
// the caller.
type Journal interface {
	RecordProgress(itemID string, minutes int, status string)
	RecordConflict(itemID string, prev, next string, minutes int)
}

// Store 以单一 arena（按 id 索引）持有全部计划项，today/week/all 只是
// id 视图。对某一项的更新落在 arena 上，所有视图立即一致——不存在
// 需要逐集合扇出的副本。
// Store keeps every plan item in one arena keyed by id; today/week/all are
// id views over it. A progress update lands on the arena once and every view
// that holds the id reflects it immediately — there are no per-collection
// copies to fan out to.
type Store struct {
	backend Backend
	journal Journal
	now     func() time.Time

	mu       sync.Mutex
	items    map[string]api.PlanItem
	todayIDs []string
	weekIDs  []string
	allIDs   []string

	todayView View
	weekView  View
	allView   View

	pendingReschedules map[string]string

	subMu sync.Mutex
	subs  []func()
}

// Option 构造选项 / constructor options
type Option func(*Store)

// WithClock 替换时钟，测试用。
// WithClock swaps the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithJournal 挂接本地学习日志。
// WithJournal attaches the local study journal.
func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:            backend,
		now:                time.Now,
		items:              make(map[string]api.PlanItem),
		pendingReschedules: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe 注册变更回调，持锁之外同步调用。
// Subscribe registers a change callback, invoked synchronously with the
// store lock released.
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

func (s *Store) today() string {
	return s.now().Format("2006-01-02")
}

// TodayItems 返回今日视图的物化切片及其状态标记。
// TodayItems materializes the today view together with its state tag.
func (s *Store) TodayItems() ([]api.PlanItem, View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materialize(s.todayIDs), s.todayView
}

func (s *Store) WeekItems() ([]api.PlanItem, View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materialize(s.weekIDs), s.weekView
}

func (s *Store) AllItems() ([]api.PlanItem, View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materialize(s.allIDs), s.allView
}

// Item 按 id 查单项 / look up one item by id
func (s *Store) Item(id string) (api.PlanItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok
}

func (s *Store) materialize(ids []string) []api.PlanItem {
	out := make([]api.PlanItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// absorb 吸收一次拉取结果：arena 条目整体替换，返回 id 列表。
// absorb takes one fetch result into the arena wholesale and returns the id
// list. Caller holds the lock.
func (s *Store) absorb(items []api.PlanItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		s.items[item.ID] = item
		ids = append(ids, item.ID)
	}
	return ids
}

func viewFor(items []api.PlanItem) View {
	if len(items) == 0 {
		return View{State: Empty}
	}
	return View{State: Loaded}
}

// LoadTodayItems 拉取今日条目。失败时视图转为 Unavailable；演示数据由
// DemoTodayItems 单独提供，绝不混入真实集合。
// LoadTodayItems fetches today's items. On failure the view becomes
// Unavailable; demo data is served separately by DemoTodayItems and never
// mixed into the live collection.
func (s *Store) LoadTodayItems(ctx context.Context) {
	items, err := s.backend.PlanItems(ctx, s.today())

	s.mu.Lock()
	if err != nil {
		log.Printf("planner: load today items failed: %v", err)
		s.todayIDs = nil
		s.todayView = View{State: Unavailable, Reason: err.Error()}
	} else {
		s.todayIDs = s.absorb(items)
		s.todayView = viewFor(items)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) LoadWeekItems(ctx context.Context, startDate string) {
	items, err := s.backend.PlanItems(ctx, "")

	s.mu.Lock()
	if err != nil {
		log.Printf("planner: load week items failed: %v", err)
		s.weekIDs = nil
		s.weekView = View{State: Unavailable, Reason: err.Error()}
	} else {
		week := filterWeek(items, startDate)
		s.absorb(items)
		s.weekIDs = idsOf(week)
		s.weekView = viewFor(week)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) LoadAllItems(ctx context.Context) {
	items, err := s.backend.PlanItems(ctx, "")

	s.mu.Lock()
	if err != nil {
		log.Printf("planner: load all items failed: %v", err)
		s.allIDs = nil
		s.allView = View{State: Unavailable, Reason: err.Error()}
	} else {
		s.allIDs = s.absorb(items)
		s.allView = viewFor(items)
	}
	s.mu.Unlock()
	s.notify()
}

// GeneratePlan 后端是计划构造的唯一权威；成功后刷新今日与全部视图，
// 失败原样上抛由界面展示。
// GeneratePlan defers entirely to the backend for plan construction. On
// success it refreshes the today and all views; failures propagate so the UI
// can surface them.
func (s *Store) GeneratePlan(ctx context.Context, req api.PlanGenerateRequest) error {
	if len(req.Subjects) == 0 {
		return &ValidationError{Field: "subjects", Reason: "select at least one subject"}
	}
	if req.HoursPerDay < 1 || req.HoursPerDay > 16 {
		return &ValidationError{Field: "hours_per_day", Reason: "must be between 1 and 16"}
	}
	if err := s.backend.GeneratePlan(ctx, req); err != nil {
		return err
	}
	s.LoadTodayItems(ctx)
	s.LoadAllItems(ctx)
	return nil
}

// UpdateItemProgress 上报进度后把同一变更写入 arena。重复提交已终结的
// 条目按 last-write-wins 处理并记录一次冲突。
// UpdateItemProgress posts the progress log, then applies the same mutation
// to the arena. A repeat submission against an already-terminal item is
// last-write-wins with a recorded conflict.
func (s *Store) UpdateItemProgress(ctx context.Context, itemID string, minutes int, status api.PlanItemStatus) error {
	if err := s.backend.LogProgress(ctx, api.StudyLogRequest{
		PlanItemID: itemID,
		Minutes:    minutes,
		Status:     status,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	if item, ok := s.items[itemID]; ok {
		if item.Status.Terminal() && item.Status != status {
			log.Printf("planner: overwriting terminal status %s -> %s for item %s", item.Status, status, itemID)
			if s.journal != nil {
				s.journal.RecordConflict(itemID, string(item.Status), string(status), minutes)
			}
		}
		item.ActualMinutes = minutes
		item.Status = status
		s.items[itemID] = item
	}
	s.mu.Unlock()

	if s.journal != nil {
		s.journal.RecordProgress(itemID, minutes, string(status))
	}
	s.notify()
	return nil
}

// RescheduleItem 目前只改本地状态：后端没有改期路由。被改期的 id 记入
// pending 集合，待后端补上路由后统一上报；重载即丢失。
// RescheduleItem is client-local for now: the backend exposes no reschedule
// route. Rescheduled ids are tracked as pending so a future route can drain
// them; the change is lost on reload.
func (s *Store) RescheduleItem(itemID, newDate string) {
	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok {
		s.mu.Unlock()
		return
	}
	item.Date = newDate
	s.items[itemID] = item
	s.pendingReschedules[itemID] = newDate

	// 保持今日视图与日期一致 / keep the today view consistent with dates
	today := s.today()
	s.todayIDs = removeID(s.todayIDs, itemID)
	if newDate == today {
		s.todayIDs = append(s.todayIDs, itemID)
	}
	s.mu.Unlock()

	log.Printf("planner: item %s rescheduled to %s (local only)", itemID, newDate)
	s.notify()
}

// PendingReschedules 尚未上报后端的改期记录副本。
// PendingReschedules returns a copy of reschedules not yet reported to the
// backend.
func (s *Store) PendingReschedules() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.pendingReschedules))
	for k, v := range s.pendingReschedules {
		out[k] = v
	}
	return out
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func idsOf(items []api.PlanItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// filterWeek 取 startDate 起七天内的条目，按日期排序。
// filterWeek keeps items within seven days of startDate, sorted by date.
func filterWeek(items []api.PlanItem, startDate string) []api.PlanItem {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		// 无法解析起始日期时退化为全部条目，与按周取数的旧行为一致。
		// An unparsable start date degrades to all items.
		out := append([]api.PlanItem(nil), items...)
		sortByDate(out)
		return out
	}
	end := start.AddDate(0, 0, 7)

	var out []api.PlanItem
	for _, item := range items {
		d, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && d.Before(end) {
			out = append(out, item)
		}
	}
	sortByDate(out)
	return out
}

func sortByDate(items []api.PlanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date < items[j].Date
	})
}
