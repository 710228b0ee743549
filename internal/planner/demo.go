package planner

import (
	"time"

	"sarathi/internal/api"
)

// DemoPlanID 标记演示数据，界面据此渲染演示横幅。
// DemoPlanID marks demo data; the UI renders a demo banner when it sees it.
const DemoPlanID = "demo"

// DemoTodayItems 今日视图不可用时可供展示的固定演示计划。它永远不会进入
// 实时集合——调用方必须与真实数据分开渲染。
// DemoTodayItems is the fixed demo plan the UI may show while the today view
// is unavailable. It never enters the live collection; callers must render it
// apart from real data.
func DemoTodayItems(now time.Time) []api.PlanItem {
	date := now.Format("2006-01-02")
	return []api.PlanItem{
		{
			ID:            "demo-1",
			PlanID:        DemoPlanID,
			Date:          date,
			Subject:       api.SubjectGS1,
			Topic:         "Indian Heritage & Culture",
			TargetMinutes: 90,
			Status:        api.StatusPending,
		},
		{
			ID:            "demo-2",
			PlanID:        DemoPlanID,
			Date:          date,
			Subject:       api.SubjectGS2,
			Topic:         "Constitutional Framework",
			TargetMinutes: 120,
			Status:        api.StatusPending,
		},
	}
}
