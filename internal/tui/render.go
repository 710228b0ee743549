package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"

	"sarathi/internal/api"
)

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

// RenderPlanLine 渲染一条计划项，带状态图标和颜色。
// RenderPlanLine renders one plan item with a status icon and color.
func RenderPlanLine(item api.PlanItem, theme Theme) string {
	var icon string
	var style = theme.PendingStyle
	switch item.Status {
	case api.StatusDone:
		icon = "✓"
		style = theme.DoneStyle
	case api.StatusSkipped:
		icon = "–"
		style = theme.SkippedStyle
	default:
		icon = "○"
	}

	line := icon + " [" + strings.ToUpper(string(item.Subject)) + "] " + item.Topic
	if item.TargetMinutes > 0 {
		line += "  " + minutesLabel(item)
	}
	return style.Render(line)
}

func minutesLabel(item api.PlanItem) string {
	if item.ActualMinutes > 0 {
		return strconv.Itoa(item.ActualMinutes) + "/" + strconv.Itoa(item.TargetMinutes) + "m"
	}
	return strconv.Itoa(item.TargetMinutes) + "m"
}

// RenderWeeklyBars 把七天的分钟数画成一行字符柱状图。
// RenderWeeklyBars draws seven daily minute totals as a one-line bar chart.
func RenderWeeklyBars(minutes []int) string {
	if len(minutes) == 0 {
		return ""
	}
	levels := []rune("▁▂▃▄▅▆▇█")
	max := 0
	for _, m := range minutes {
		if m > max {
			max = m
		}
	}
	if max == 0 {
		return strings.Repeat(string(levels[0]), len(minutes))
	}

	var b strings.Builder
	for _, m := range minutes {
		idx := m * (len(levels) - 1) / max
		b.WriteRune(levels[idx])
	}
	return b.String()
}
