package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sarathi/internal/analytics"
	"sarathi/internal/api"
	"sarathi/internal/chat"
	"sarathi/internal/config"
	"sarathi/internal/i18n"
	"sarathi/internal/library"
	"sarathi/internal/planner"
	"sarathi/internal/practice"
	"sarathi/internal/secrets"
	"sarathi/internal/session"
	"sarathi/internal/storage"
	"sarathi/internal/tui"
)

var replCommands = []string{
	"/login <phone> [otp]     sign in with phone + OTP",
	"/logout                  sign out and clear the saved token",
	"/whoami                  show the signed-in user",
	"/profile <name> [exam-date] [hours/day]",
	"/plan <exam-date> <hours/day> <subjects,comma,separated>",
	"/today                   today's study items",
	"/week [start-date]       this week's study items",
	"/log <item-id> <minutes> <done|skipped>",
	"/move <item-id> <date>   reschedule locally",
	"/dash                    study dashboard",
	"/mcq <subject> [count]   take a quiz",
	"/cards <subject> <topic> [count]",
	"/due                     flashcards due for review",
	"/eval <image> <question> evaluate a written answer",
	"/resources               list saved resources",
	"/add <kind> <title>      save a resource",
	"/history                 current chat history",
	"/mode <general|rag|planner>",
	"/new                     start a new chat session",
	"/journal [n]             recent study journal entries",
	"/tui                     full-screen mode",
	"/help  /exit",
}

type replApp struct {
	cfg       config.Config
	tokens    *secrets.TokenStore
	session   *session.Store
	planner   *planner.Store
	analytics *analytics.Store
	chat      *chat.Service
	practice  *practice.Service
	library   *library.Store
	store     *storage.SQLiteStore // 可为 nil / may be nil
	in        lineInput
	out       io.Writer
}

func (a *replApp) handleCommand(input string) (bool, bool) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false, false
	}
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "/exit", "/quit":
		return true, true
	case "/help":
		printREPLCommands(a.out)
		return true, false
	case "/login":
		a.cmdLogin(args)
		return true, false
	case "/logout":
		a.session.Logout()
		fmt.Fprintln(a.out, i18n.T("auth.logged_out"))
		return true, false
	case "/whoami":
		a.cmdWhoami()
		return true, false
	case "/profile":
		a.cmdProfile(args)
		return true, false
	case "/plan":
		a.cmdGeneratePlan(args)
		return true, false
	case "/today":
		a.cmdToday()
		return true, false
	case "/week":
		a.cmdWeek(args)
		return true, false
	case "/log":
		a.cmdLog(args)
		return true, false
	case "/move":
		a.cmdMove(args)
		return true, false
	case "/dash":
		a.cmdDashboard()
		return true, false
	case "/mcq":
		a.cmdQuiz(args)
		return true, false
	case "/cards":
		a.cmdFlashcards(args)
		return true, false
	case "/due":
		a.cmdDueFlashcards()
		return true, false
	case "/eval":
		a.cmdEvaluate(args)
		return true, false
	case "/resources":
		a.cmdResources()
		return true, false
	case "/add":
		a.cmdAddResource(args)
		return true, false
	case "/history":
		a.cmdHistory()
		return true, false
	case "/mode":
		a.cmdMode(args)
		return true, false
	case "/new":
		a.chat.NewSession()
		fmt.Fprintln(a.out, i18n.T("chat.new_session"))
		return true, false
	case "/journal":
		a.cmdJournal(args)
		return true, false
	case "/tui":
		if err := a.runTUI(); err != nil {
			fmt.Fprintf(a.out, "tui failed: %v\n", err)
		}
		return true, false
	default:
		return false, false
	}
}

// --- Auth & profile ---

func (a *replApp) cmdLogin(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/login <phone> [otp]"))
		return
	}
	phone := args[0]
	var otp string
	if len(args) >= 2 {
		otp = args[1]
	} else {
		fmt.Fprintln(a.out, i18n.T("auth.otp_prompt", phone))
		line, err := a.in.ReadLine("otp> ")
		if err != nil {
			return
		}
		otp = strings.TrimSpace(line)
	}

	ctx, cancel := a.requestCtx()
	defer cancel()
	if !a.session.Authenticate(ctx, phone, otp) {
		fmt.Fprintln(a.out, i18n.T("auth.login_failed", "check phone and OTP"))
		return
	}
	a.printSessionLine()
	if a.session.Profile() == nil {
		fmt.Fprintln(a.out, i18n.T("auth.profile_prompt"))
	}
}

func (a *replApp) cmdWhoami() {
	user := a.session.User()
	if user == nil {
		fmt.Fprintln(a.out, i18n.T("status.anonymous"))
		return
	}
	fmt.Fprintf(a.out, "user: %s  phone: %s\n", user.ID, user.Phone)
	if profile := a.session.Profile(); profile != nil {
		fmt.Fprintf(a.out, "name: %s  exam: %s  hours/day: %d\n",
			profile.Name, profile.ExamDate, profile.HoursPerDay)
	}
}

func (a *replApp) cmdProfile(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/profile <name> [exam-date] [hours/day]"))
		return
	}
	req := api.ProfileSetupRequest{Name: args[0]}
	if len(args) >= 2 {
		req.ExamDate = args[1]
	}
	if len(args) >= 3 {
		if hours, err := strconv.Atoi(args[2]); err == nil {
			req.HoursPerDay = hours
		}
	}

	ctx, cancel := a.requestCtx()
	defer cancel()
	if err := a.session.SetupProfile(ctx, req); err != nil {
		a.printErr(err)
		return
	}
	fmt.Fprintln(a.out, i18n.T("auth.profile_saved"))
}

// --- Planner ---

func (a *replApp) cmdGeneratePlan(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/plan <exam-date> <hours/day> <subjects,comma,separated>"))
		return
	}
	hours, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/plan <exam-date> <hours/day> <subjects>"))
		return
	}
	subjects := parseSubjects(args[2])

	ctx, cancel := a.requestCtx()
	defer cancel()
	if err := a.planner.GeneratePlan(ctx, api.PlanGenerateRequest{
		ExamDate:    args[0],
		HoursPerDay: hours,
		Subjects:    subjects,
	}); err != nil {
		a.printErr(err)
		return
	}
	items, _ := a.planner.TodayItems()
	fmt.Fprintln(a.out, i18n.T("plan.generated", len(items)))
	a.printItems(items)
}

func (a *replApp) cmdToday() {
	ctx, cancel := a.requestCtx()
	a.planner.LoadTodayItems(ctx)
	cancel()

	items, view := a.planner.TodayItems()
	switch view.State {
	case planner.Unavailable:
		fmt.Fprintln(a.out, i18n.T("plan.unavailable", view.Reason))
		if a.cfg.Planner.DemoFallback {
			fmt.Fprintln(a.out, i18n.T("status.demo"))
			a.printItems(planner.DemoTodayItems(time.Now()))
		}
	case planner.Empty:
		fmt.Fprintln(a.out, i18n.T("plan.empty"))
	default:
		a.printItems(items)
	}
}

func (a *replApp) cmdWeek(args []string) {
	start := time.Now().Format("2006-01-02")
	if len(args) >= 1 {
		start = args[0]
	}

	ctx, cancel := a.requestCtx()
	a.planner.LoadWeekItems(ctx, start)
	cancel()

	items, view := a.planner.WeekItems()
	switch view.State {
	case planner.Unavailable:
		fmt.Fprintln(a.out, i18n.T("plan.unavailable", view.Reason))
	case planner.Empty:
		fmt.Fprintln(a.out, i18n.T("plan.empty"))
	default:
		a.printItems(items)
	}
}

func (a *replApp) cmdLog(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/log <item-id> <minutes> <done|skipped>"))
		return
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil || minutes < 0 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/log <item-id> <minutes> <done|skipped>"))
		return
	}
	status := api.PlanItemStatus(strings.ToLower(args[2]))
	if status != api.StatusDone && status != api.StatusSkipped {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/log <item-id> <minutes> <done|skipped>"))
		return
	}

	ctx, cancel := a.requestCtx()
	defer cancel()
	if err := a.planner.UpdateItemProgress(ctx, args[0], minutes, status); err != nil {
		a.printErr(err)
		return
	}
	fmt.Fprintln(a.out, i18n.T("plan.logged", minutes, args[0]))
}

func (a *replApp) cmdMove(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/move <item-id> <YYYY-MM-DD>"))
		return
	}
	if _, ok := a.planner.Item(args[0]); !ok {
		fmt.Fprintln(a.out, i18n.T("plan.item_missing", args[0]))
		return
	}
	a.planner.RescheduleItem(args[0], args[1])
	fmt.Fprintln(a.out, i18n.T("plan.rescheduled", args[1]))
}

func (a *replApp) printItems(items []api.PlanItem) {
	theme := tui.DarkTheme()
	for _, item := range items {
		fmt.Fprintf(a.out, "  %-10s %s\n", item.ID, tui.RenderPlanLine(item, theme))
	}
}

// --- Analytics ---

func (a *replApp) cmdDashboard() {
	ctx, cancel := a.requestCtx()
	a.analytics.LoadDashboard(ctx)
	cancel()

	data, state, reason := a.analytics.Dashboard()
	if state == analytics.Unavailable {
		fmt.Fprintln(a.out, i18n.T("dash.unavailable", reason))
		if !a.cfg.Planner.DemoFallback {
			return
		}
		fmt.Fprintln(a.out, i18n.T("status.demo"))
		data = analytics.DemoDashboard()
	}

	fmt.Fprintln(a.out, i18n.T("dash.total", data.TotalStudyMinutes))
	fmt.Fprintln(a.out, i18n.T("dash.streak", data.StreakCount))
	fmt.Fprintln(a.out, i18n.T("dash.completion", analytics.FormatCompletionRate(data.CompletionRate)))
	if len(data.WeeklyMinutes) > 0 {
		fmt.Fprintf(a.out, "week: %s\n", tui.RenderWeeklyBars(data.WeeklyMinutes))
	}
	for _, subject := range api.AllSubjects() {
		stats, ok := data.SubjectStats[string(subject)]
		if !ok {
			continue
		}
		fmt.Fprintf(a.out, "  %-8s %4dm  %d/%d\n",
			strings.ToUpper(string(subject)), stats.Minutes, stats.Completed, stats.Total)
	}
}

// --- Practice ---

func (a *replApp) cmdQuiz(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/mcq <subject> [count]"))
		return
	}
	count := 0
	if len(args) >= 2 {
		count, _ = strconv.Atoi(args[1])
	}

	ctx, cancel := a.requestCtx()
	quiz, err := a.practice.StartQuiz(ctx, api.Subject(strings.ToLower(args[0])), "", count)
	cancel()
	if err != nil {
		a.printErr(err)
		return
	}

	letters := "ABCDEFGH"
	for {
		question, pos, ok := quiz.Current()
		if !ok {
			break
		}
		fmt.Fprintf(a.out, "\n%s %s\n", i18n.T("quiz.question", pos, quiz.Len()), question.Stem)
		for i, option := range question.Options {
			fmt.Fprintf(a.out, "  %c) %s\n", letters[i], option)
		}

		line, err := a.in.ReadLine("answer (a-d, s=skip, q=quit)> ")
		if err != nil {
			return
		}
		pick := strings.ToLower(strings.TrimSpace(line))
		switch pick {
		case "q":
			return
		case "s", "":
			quiz.Skip()
			continue
		}

		idx := strings.IndexByte("abcdefgh", pick[0])
		correct, err := quiz.Answer(idx)
		if err != nil {
			fmt.Fprintln(a.out, i18n.T("error.generic", err.Error()))
			continue
		}
		if correct {
			fmt.Fprintln(a.out, i18n.T("quiz.correct"))
		} else {
			fmt.Fprintln(a.out, i18n.T("quiz.wrong", question.Options[question.AnswerIndex]))
		}
		if question.Explanation != "" {
			fmt.Fprintf(a.out, "  %s\n", question.Explanation)
		}
	}

	correct, answered, total := quiz.Score()
	fmt.Fprintln(a.out, i18n.T("quiz.score", correct, total, answered))
}

func (a *replApp) cmdFlashcards(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/cards <subject> <topic> [count]"))
		return
	}
	count := 0
	if len(args) >= 3 {
		count, _ = strconv.Atoi(args[2])
	}

	ctx, cancel := a.requestCtx()
	cards, err := a.practice.GenerateFlashcards(ctx, api.Subject(strings.ToLower(args[0])), args[1], count)
	cancel()
	if err != nil {
		a.printErr(err)
		return
	}
	a.printFlashcards(cards)
}

func (a *replApp) cmdDueFlashcards() {
	ctx, cancel := a.requestCtx()
	cards, err := a.practice.DueFlashcards(ctx)
	cancel()
	if err != nil {
		a.printErr(err)
		return
	}
	if len(cards) == 0 {
		fmt.Fprintln(a.out, i18n.T("cards.none_due"))
		return
	}
	a.printFlashcards(cards)
}

func (a *replApp) printFlashcards(cards []api.Flashcard) {
	for _, card := range cards {
		fmt.Fprintf(a.out, "\nQ: %s\n", card.Front)
		if _, err := a.in.ReadLine("flip> "); err != nil {
			return
		}
		fmt.Fprintf(a.out, "A: %s\n", card.Back)
	}
}

func (a *replApp) cmdEvaluate(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/eval <image-path> <question...>"))
		return
	}
	question := strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), 2*requestTimeout)
	defer cancel()
	eval, err := a.practice.EvaluateAnswer(ctx, question, args[0])
	if err != nil {
		a.printErr(err)
		return
	}
	fmt.Fprintln(a.out, i18n.T("eval.score", eval.Score))
	for criterion, score := range eval.Rubric {
		fmt.Fprintf(a.out, "  %-14s %d\n", criterion, score)
	}
	if eval.Suggestions != "" {
		fmt.Fprintln(a.out, renderReply(eval.Suggestions))
	}
}

// --- Library ---

func (a *replApp) cmdResources() {
	ctx, cancel := a.requestCtx()
	a.library.Load(ctx)
	cancel()

	resources, state, reason := a.library.Resources()
	switch state {
	case library.Unavailable:
		fmt.Fprintln(a.out, i18n.T("lib.unavailable", reason))
	case library.Empty:
		fmt.Fprintln(a.out, i18n.T("lib.empty"))
	default:
		for _, r := range resources {
			fmt.Fprintf(a.out, "  %-10s [%-8s] %s\n", r.ID, r.Kind, r.Title)
		}
	}
}

func (a *replApp) cmdAddResource(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, i18n.T("error.usage", "/add <pdf|image|youtube|link|note> <title...>"))
		return
	}

	ctx, cancel := a.requestCtx()
	defer cancel()
	created, err := a.library.Create(ctx, api.ResourceCreateRequest{
		Kind:  api.ResourceKind(strings.ToLower(args[0])),
		Title: strings.Join(args[1:], " "),
	})
	if err != nil {
		a.printErr(err)
		return
	}
	fmt.Fprintln(a.out, i18n.T("lib.created", created.Title))
}

// --- Chat ---

func (a *replApp) cmdHistory() {
	ctx, cancel := a.requestCtx()
	turns, err := a.chat.History(ctx)
	cancel()
	if err != nil {
		a.printErr(err)
		return
	}
	for _, turn := range turns {
		marker := "▸"
		if turn.Role == chat.RoleAssistant {
			marker = " "
		}
		fmt.Fprintf(a.out, "%s %s\n", marker, turn.Content)
	}
}

func (a *replApp) cmdMode(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(a.out, i18n.T("chat.mode_set", a.chat.Mode()))
		return
	}
	mode := api.ChatMode(strings.ToLower(args[0]))
	if !a.chat.SetMode(mode) {
		fmt.Fprintln(a.out, i18n.T("chat.mode_bad", args[0]))
		return
	}
	fmt.Fprintln(a.out, i18n.T("chat.mode_set", mode))
}

// --- Journal ---

func (a *replApp) cmdJournal(args []string) {
	if a.store == nil {
		fmt.Fprintln(a.out, "local store unavailable")
		return
	}
	limit := 20
	if len(args) >= 1 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := a.store.JournalEntries(limit)
	if err != nil {
		a.printErr(err)
		return
	}
	for _, e := range entries {
		if e.Kind == storage.JournalConflict {
			fmt.Fprintf(a.out, "%s  conflict %s: %s -> %s\n", e.CreatedAt, e.PlanItemID, e.PrevStatus, e.Status)
		} else {
			fmt.Fprintf(a.out, "%s  %s: %dm %s\n", e.CreatedAt, e.PlanItemID, e.Minutes, e.Status)
		}
	}
}

// --- TUI ---

func (a *replApp) runTUI() error {
	return tui.Run(tui.Deps{
		Session:      a.session,
		Planner:      a.planner,
		Analytics:    a.analytics,
		Chat:         a.chat,
		DemoFallback: a.cfg.Planner.DemoFallback,
	})
}

// --- Helpers ---

func (a *replApp) requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func (a *replApp) printErr(err error) {
	if api.IsStatus(err, http.StatusUnauthorized) {
		fmt.Fprintln(a.out, i18n.T("auth.session_ended"))
		return
	}
	fmt.Fprintln(a.out, i18n.T("error.generic", err.Error()))
}

func parseSubjects(csv string) []api.Subject {
	var subjects []api.Subject
	for _, part := range strings.Split(csv, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		subjects = append(subjects, api.Subject(part))
	}
	return subjects
}

func renderReply(content string) string {
	return tui.RenderMarkdown(content, 100)
}
