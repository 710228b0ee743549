package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sarathi/internal/analytics"
	"sarathi/internal/api"
	"sarathi/internal/chat"
	"sarathi/internal/i18n"
	"sarathi/internal/planner"
	"sarathi/internal/session"
)

// PanelID 面板标识
// PanelID identifies a panel
type PanelID int

const (
	PanelToday PanelID = iota
	PanelDashboard
	PanelChat
)

// --- Tea Messages ---

// PlanLoadedMsg 今日计划加载完成
// PlanLoadedMsg carries the refreshed today view
type PlanLoadedMsg struct {
	Items []api.PlanItem
	View  planner.View
}

// DashboardLoadedMsg 仪表盘加载完成
// DashboardLoadedMsg carries the refreshed dashboard
type DashboardLoadedMsg struct {
	Data   api.Dashboard
	State  analytics.State
	Reason string
}

// ChatReplyMsg 聊天回复（或失败）
// ChatReplyMsg carries a chat reply or its failure
type ChatReplyMsg struct {
	Text string
	Err  error
}

// SessionInfoMsg 会话状态更新
// SessionInfoMsg carries the auth state for the status bar
type SessionInfoMsg struct {
	Name  string
	State session.State
}

// Deps TUI 依赖的各个存储。
// Deps are the stores the TUI renders from.
type Deps struct {
	Session      *session.Store
	Planner      *planner.Store
	Analytics    *analytics.Store
	Chat         *chat.Service
	DemoFallback bool
}

// App Bubble Tea 主 Model
// App is the main Bubble Tea model
type App struct {
	deps Deps

	// 布局 / Layout
	width  int
	height int

	// 面板 / Panels
	activePanel PanelID
	chatView    viewport.Model

	// 输入 / Input
	input textarea.Model

	// 面板数据快照 / Panel data snapshots
	todayItems []api.PlanItem
	todayView  planner.View
	dashboard  api.Dashboard
	dashState  analytics.State
	dashReason string

	// 聊天缓冲 / Chat buffer
	chatContent strings.Builder
	thinking    bool

	// 状态 / State
	userName  string
	authState session.State
	lastError string

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建 TUI 应用
// NewApp creates a new TUI application
func NewApp(deps Deps) App {
	ta := textarea.New()
	ta.Placeholder = "Ask your mentor..."
	ta.CharLimit = 4096
	ta.SetHeight(3)
	ta.Focus()

	return App{
		deps:      deps,
		input:     ta,
		theme:     DarkTheme(),
		keys:      DefaultKeyMap(),
		locale:    i18n.Global(),
		dashState: analytics.Empty,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.loadPlanCmd(), a.loadDashboardCmd())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "tab":
			a.activePanel = (a.activePanel + 1) % 3
			return a, nil
		case "ctrl+r":
			return a, tea.Batch(a.loadPlanCmd(), a.loadDashboardCmd())
		case "enter":
			if a.activePanel == PanelChat && !a.thinking {
				text := strings.TrimSpace(a.input.Value())
				if text != "" {
					a.input.Reset()
					a.thinking = true
					a.appendChat("▸ " + text)
					return a, a.sendChatCmd(text)
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case PlanLoadedMsg:
		a.todayItems = msg.Items
		a.todayView = msg.View
		return a, nil

	case DashboardLoadedMsg:
		a.dashboard = msg.Data
		a.dashState = msg.State
		a.dashReason = msg.Reason
		return a, nil

	case ChatReplyMsg:
		a.thinking = false
		if msg.Err != nil {
			a.lastError = msg.Err.Error()
			a.appendChat(a.theme.ErrorStyle.Render(a.locale.T("chat.failed", msg.Err.Error())))
		} else {
			a.appendChat(RenderMarkdown(msg.Text, a.chatWidth()))
		}
		return a, nil

	case SessionInfoMsg:
		a.userName = msg.Name
		a.authState = msg.State
		return a, nil
	}

	// 更新输入区 / Update input area
	if a.activePanel == PanelChat {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	inputHeight := 5
	statusHeight := 1
	tabHeight := 1
	panelHeight := a.height - inputHeight - statusHeight - tabHeight
	if panelHeight < 3 {
		panelHeight = 3
	}

	tabs := a.renderTabs()
	panel := a.renderActivePanel(a.width, panelHeight)
	statusBar := a.renderStatusBar(a.width)

	parts := []string{tabs, panel}
	if a.activePanel == PanelChat {
		parts = append(parts, a.theme.InputStyle.Width(a.width).Render(a.input.View()))
	}
	parts = append(parts, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// --- Commands ---

func (a App) loadPlanCmd() tea.Cmd {
	store := a.deps.Planner
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store.LoadTodayItems(ctx)
		items, view := store.TodayItems()
		return PlanLoadedMsg{Items: items, View: view}
	}
}

func (a App) loadDashboardCmd() tea.Cmd {
	store := a.deps.Analytics
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store.LoadDashboard(ctx)
		data, state, reason := store.Dashboard()
		return DashboardLoadedMsg{Data: data, State: state, Reason: reason}
	}
}

func (a App) sendChatCmd(text string) tea.Cmd {
	svc := a.deps.Chat
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		resp, err := svc.Send(ctx, text)
		if err != nil {
			return ChatReplyMsg{Err: err}
		}
		return ChatReplyMsg{Text: resp.Response}
	}
}

// --- 内部方法 / Internal methods ---

func (a *App) relayout() {
	panelHeight := a.height - 8
	if panelHeight < 3 {
		panelHeight = 3
	}
	a.chatView = viewport.New(a.width, panelHeight)
	a.chatView.SetContent(a.chatContent.String())
	a.input.SetWidth(a.width - 4)
}

func (a *App) appendChat(text string) {
	a.chatContent.WriteString(text + "\n")
	a.chatView.SetContent(a.chatContent.String())
	a.chatView.GotoBottom()
}

func (a App) chatWidth() int {
	if a.width > 0 {
		return a.width - 2
	}
	return 80
}

// --- 渲染方法 / Render methods ---

func (a App) renderTabs() string {
	tabs := []struct {
		id   PanelID
		name string
	}{
		{PanelToday, a.locale.T("panel.today")},
		{PanelDashboard, a.locale.T("panel.dashboard")},
		{PanelChat, a.locale.T("panel.chat")},
	}

	var parts []string
	for _, tab := range tabs {
		style := a.theme.InactiveTabStyle
		if tab.id == a.activePanel {
			style = a.theme.ActiveTabStyle
		}
		parts = append(parts, style.Render(tab.name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a App) renderActivePanel(width, height int) string {
	style := lipgloss.NewStyle().Width(width).Height(height)

	var content string
	switch a.activePanel {
	case PanelToday:
		content = a.renderToday()
	case PanelDashboard:
		content = a.renderDashboard()
	case PanelChat:
		content = a.chatView.View()
		if a.thinking {
			content += "\n" + a.theme.MutedStyle.Render(a.locale.T("chat.thinking"))
		}
	}
	return style.Render(content)
}

func (a App) renderToday() string {
	var parts []string

	switch a.todayView.State {
	case planner.Unavailable:
		parts = append(parts, a.theme.BannerStyle.Render(a.locale.T("status.demo")))
		parts = append(parts, a.theme.MutedStyle.Render("  "+a.todayView.Reason))
		if a.deps.DemoFallback {
			parts = append(parts, "")
			for _, item := range planner.DemoTodayItems(time.Now()) {
				parts = append(parts, "  "+RenderPlanLine(item, a.theme))
			}
		}
	case planner.Empty:
		parts = append(parts, a.theme.MutedStyle.Render("  "+a.locale.T("plan.empty")))
	default:
		for _, item := range a.todayItems {
			parts = append(parts, "  "+RenderPlanLine(item, a.theme))
		}
	}
	return strings.Join(parts, "\n")
}

func (a App) renderDashboard() string {
	var parts []string

	switch a.dashState {
	case analytics.Unavailable:
		parts = append(parts, a.theme.BannerStyle.Render(a.locale.T("status.demo")))
		parts = append(parts, a.theme.MutedStyle.Render("  "+a.dashReason))
		if a.deps.DemoFallback {
			parts = append(parts, "")
			parts = append(parts, a.renderDashboardBody(analytics.DemoDashboard())...)
		}
	default:
		parts = append(parts, a.renderDashboardBody(a.dashboard)...)
	}
	return strings.Join(parts, "\n")
}

func (a App) renderDashboardBody(data api.Dashboard) []string {
	parts := []string{
		"  " + a.locale.T("dash.total", data.TotalStudyMinutes),
		"  " + a.locale.T("dash.streak", data.StreakCount),
		"  " + a.locale.T("dash.completion", analytics.FormatCompletionRate(data.CompletionRate)),
	}
	if len(data.WeeklyMinutes) > 0 {
		parts = append(parts, "", "  "+a.theme.TitleStyle.Render(RenderWeeklyBars(data.WeeklyMinutes)))
	}
	if len(data.SubjectStats) > 0 {
		parts = append(parts, "")
		for _, subject := range api.AllSubjects() {
			stats, ok := data.SubjectStats[string(subject)]
			if !ok {
				continue
			}
			parts = append(parts, fmt.Sprintf("  %-6s %4dm  %d/%d",
				strings.ToUpper(string(subject)), stats.Minutes, stats.Completed, stats.Total))
		}
	}
	return parts
}

func (a App) renderStatusBar(width int) string {
	status := a.locale.T("status.anonymous")
	if a.authState == session.Authenticated {
		status = a.locale.T("status.signed_in", a.userName)
	}
	if a.thinking {
		status = a.locale.T("chat.thinking")
	}

	left := " sarathi · " + status
	right := "tab: " + a.locale.T("panel.today") + " / " +
		a.locale.T("panel.dashboard") + " / " + a.locale.T("panel.chat") + "  "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + strings.Repeat(" ", gap) + right
	return a.theme.StatusBarStyle.Width(width).Render(bar)
}

// Run 启动 Bubble Tea TUI
// Run starts the Bubble Tea TUI application
func Run(deps Deps) error {
	app := NewApp(deps)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
