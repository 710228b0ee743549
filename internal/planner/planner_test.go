package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"sarathi/internal/api"
)

var testNow = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

type fakeBackend struct {
	itemsByDate map[string][]api.PlanItem
	allItems    []api.PlanItem
	itemsErr    error
	generateErr error
	logErr      error

	logCalls      []api.StudyLogRequest
	generateCalls int
}

func (f *fakeBackend) PlanItems(ctx context.Context, date string) ([]api.PlanItem, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	if date == "" {
		return f.allItems, nil
	}
	return f.itemsByDate[date], nil
}

func (f *fakeBackend) GeneratePlan(ctx context.Context, req api.PlanGenerateRequest) error {
	f.generateCalls++
	return f.generateErr
}

func (f *fakeBackend) LogProgress(ctx context.Context, req api.StudyLogRequest) error {
	f.logCalls = append(f.logCalls, req)
	return f.logErr
}

type recordingJournal struct {
	progress  []string
	conflicts []string
}

func (j *recordingJournal) RecordProgress(itemID string, minutes int, status string) {
	j.progress = append(j.progress, itemID+":"+status)
}

func (j *recordingJournal) RecordConflict(itemID string, prev, next string, minutes int) {
	j.conflicts = append(j.conflicts, itemID+":"+prev+"->"+next)
}

func item(id, date string, subject api.Subject) api.PlanItem {
	return api.PlanItem{
		ID:            id,
		PlanID:        "p1",
		Date:          date,
		Subject:       subject,
		Topic:         "Topic " + id,
		TargetMinutes: 60,
		Status:        api.StatusPending,
	}
}

func newStore(backend Backend, opts ...Option) *Store {
	opts = append(opts, WithClock(func() time.Time { return testNow }))
	return New(backend, opts...)
}

func TestLoadTodayItems(t *testing.T) {
	backend := &fakeBackend{
		itemsByDate: map[string][]api.PlanItem{
			"2026-08-29": {item("a", "2026-08-29", api.SubjectGS1)},
		},
	}
	s := newStore(backend)
	s.LoadTodayItems(context.Background())

	items, view := s.TodayItems()
	if view.State != Loaded || len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("items=%v view=%+v", items, view)
	}
}

func TestLoadTodayUnavailableNeverFabricates(t *testing.T) {
	backend := &fakeBackend{itemsErr: errors.New("network down")}
	s := newStore(backend)
	s.LoadTodayItems(context.Background())

	items, view := s.TodayItems()
	if view.State != Unavailable {
		t.Fatalf("view=%+v", view)
	}
	if len(items) != 0 {
		t.Fatalf("unavailable view must not carry fabricated items: %v", items)
	}

	// 演示数据单独提供且带标记 / demo data is separate and labeled
	demo := DemoTodayItems(testNow)
	if len(demo) == 0 || demo[0].PlanID != DemoPlanID {
		t.Fatalf("demo=%v", demo)
	}
}

func TestFanOutConsistency(t *testing.T) {
	shared := item("x", "2026-08-29", api.SubjectGS2)
	other := item("y", "2026-08-30", api.SubjectGS3)
	backend := &fakeBackend{
		itemsByDate: map[string][]api.PlanItem{"2026-08-29": {shared}},
		allItems:    []api.PlanItem{shared, other},
	}
	s := newStore(backend)
	s.LoadTodayItems(context.Background())
	s.LoadWeekItems(context.Background(), "2026-08-29")
	s.LoadAllItems(context.Background())

	if err := s.UpdateItemProgress(context.Background(), "x", 45, api.StatusDone); err != nil {
		t.Fatal(err)
	}

	check := func(name string, items []api.PlanItem) {
		t.Helper()
		for _, it := range items {
			if it.ID == "x" {
				if it.ActualMinutes != 45 || it.Status != api.StatusDone {
					t.Fatalf("%s: item not updated: %+v", name, it)
				}
				return
			}
		}
		t.Fatalf("%s: item x missing", name)
	}
	today, _ := s.TodayItems()
	week, _ := s.WeekItems()
	all, _ := s.AllItems()
	check("today", today)
	check("week", week)
	check("all", all)

	// 未包含该 id 的条目不受影响 / items without the id are untouched
	for _, it := range all {
		if it.ID == "y" && (it.Status != api.StatusPending || it.ActualMinutes != 0) {
			t.Fatalf("unrelated item mutated: %+v", it)
		}
	}
}

func TestUpdateFailurePropagatesWithoutMutation(t *testing.T) {
	it := item("x", "2026-08-29", api.SubjectGS1)
	backend := &fakeBackend{
		itemsByDate: map[string][]api.PlanItem{"2026-08-29": {it}},
		logErr:      errors.New("offline"),
	}
	s := newStore(backend)
	s.LoadTodayItems(context.Background())

	if err := s.UpdateItemProgress(context.Background(), "x", 30, api.StatusDone); err == nil {
		t.Fatalf("expected error")
	}
	got, _ := s.Item("x")
	if got.Status != api.StatusPending || got.ActualMinutes != 0 {
		t.Fatalf("failed update must not mutate local state: %+v", got)
	}
}

func TestTerminalOverwriteLastWriteWinsWithConflict(t *testing.T) {
	it := item("x", "2026-08-29", api.SubjectGS1)
	backend := &fakeBackend{
		itemsByDate: map[string][]api.PlanItem{"2026-08-29": {it}},
	}
	journal := &recordingJournal{}
	s := newStore(backend, WithJournal(journal))
	s.LoadTodayItems(context.Background())

	if err := s.UpdateItemProgress(context.Background(), "x", 50, api.StatusDone); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateItemProgress(context.Background(), "x", 10, api.StatusSkipped); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Item("x")
	if got.Status != api.StatusSkipped || got.ActualMinutes != 10 {
		t.Fatalf("last write must win: %+v", got)
	}
	if len(journal.conflicts) != 1 || journal.conflicts[0] != "x:done->skipped" {
		t.Fatalf("conflicts=%v", journal.conflicts)
	}
	if len(journal.progress) != 2 {
		t.Fatalf("progress=%v", journal.progress)
	}
}

func TestGeneratePlanRefreshesViews(t *testing.T) {
	backend := &fakeBackend{
		itemsByDate: map[string][]api.PlanItem{},
		allItems:    nil,
	}
	s := newStore(backend)

	req := api.PlanGenerateRequest{
		ExamDate:    "2027-06-05",
		HoursPerDay: 6,
		Subjects:    []api.Subject{api.SubjectGS1, api.SubjectGS2},
	}
	// 生成成功后后端开始返回三条今日条目。
	// After generation the backend starts returning three items for today.
	backend.itemsByDate["2026-08-29"] = []api.PlanItem{
		item("g1", "2026-08-29", api.SubjectGS1),
		item("g2", "2026-08-29", api.SubjectGS2),
		item("g3", "2026-08-29", api.SubjectEssay),
	}

	if err := s.GeneratePlan(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	today, view := s.TodayItems()
	if len(today) != 3 || view.State != Loaded {
		t.Fatalf("today=%d view=%+v", len(today), view)
	}
}

func TestGeneratePlanValidation(t *testing.T) {
	backend := &fakeBackend{}
	s := newStore(backend)

	err := s.GeneratePlan(context.Background(), api.PlanGenerateRequest{HoursPerDay: 6})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "subjects" {
		t.Fatalf("err=%v", err)
	}
	if backend.generateCalls != 0 {
		t.Fatalf("validation errors must never reach the backend")
	}
}

func TestGeneratePlanFailurePropagates(t *testing.T) {
	backend := &fakeBackend{generateErr: errors.New("backend rejected")}
	s := newStore(backend)

	err := s.GeneratePlan(context.Background(), api.PlanGenerateRequest{
		HoursPerDay: 6,
		Subjects:    []api.Subject{api.SubjectGS1},
	})
	if err == nil || err.Error() != "backend rejected" {
		t.Fatalf("err=%v", err)
	}
}

func TestRescheduleItemLocalOnly(t *testing.T) {
	it := item("x", "2026-08-29", api.SubjectGS1)
	backend := &fakeBackend{
		itemsByDate: map[string][]api.PlanItem{"2026-08-29": {it}},
	}
	s := newStore(backend)
	s.LoadTodayItems(context.Background())

	s.RescheduleItem("x", "2026-09-01")

	today, _ := s.TodayItems()
	if len(today) != 0 {
		t.Fatalf("item moved off today must leave the today view: %v", today)
	}
	got, _ := s.Item("x")
	if got.Date != "2026-09-01" {
		t.Fatalf("date=%q", got.Date)
	}
	if pending := s.PendingReschedules(); pending["x"] != "2026-09-01" {
		t.Fatalf("pending=%v", pending)
	}
}

func TestWeekFilter(t *testing.T) {
	backend := &fakeBackend{
		allItems: []api.PlanItem{
			item("in1", "2026-08-29", api.SubjectGS1),
			item("in2", "2026-09-04", api.SubjectGS2),
			item("out", "2026-09-05", api.SubjectGS3),
		},
	}
	s := newStore(backend)
	s.LoadWeekItems(context.Background(), "2026-08-29")

	week, view := s.WeekItems()
	if view.State != Loaded || len(week) != 2 {
		t.Fatalf("week=%v view=%+v", week, view)
	}
	for _, it := range week {
		if it.ID == "out" {
			t.Fatalf("item outside the window leaked into the week view")
		}
	}
}
