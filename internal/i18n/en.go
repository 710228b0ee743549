package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// UI (TUI) - Panel titles
	"panel.today":     "Today's Plan",
	"panel.dashboard": "Dashboard",
	"panel.chat":      "Mentor Chat",

	// UI - Status bar
	"status.ready":     "Ready",
	"status.loading":   "Loading...",
	"status.anonymous": "Not signed in",
	"status.signed_in": "Signed in as %s",
	"status.demo":      "DEMO DATA — backend unavailable",

	// Auth
	"auth.otp_prompt":     "Enter the OTP sent to %s",
	"auth.login_ok":       "Welcome back, %s",
	"auth.login_failed":   "Login failed: %s",
	"auth.logged_out":     "Signed out",
	"auth.need_login":     "Sign in first with /login",
	"auth.session_ended":  "Session expired, please sign in again",
	"auth.profile_saved":  "Profile saved",
	"auth.profile_prompt": "Set up your profile with /profile <name> [exam-date]",

	// Planner
	"plan.empty":        "No study items scheduled",
	"plan.unavailable":  "Planner unavailable: %s",
	"plan.generated":    "Plan generated, %d items today",
	"plan.logged":       "Logged %d min for %s",
	"plan.rescheduled":  "Moved to %s (local only, syncs on next generate)",
	"plan.item_missing": "No plan item with id %s",

	// Analytics
	"dash.unavailable": "Dashboard unavailable: %s",
	"dash.streak":      "Streak: %d days",
	"dash.total":       "Total study: %d min",
	"dash.completion":  "Completion: %s",

	// Chat
	"chat.thinking":    "Thinking...",
	"chat.mode_set":    "Chat mode: %s",
	"chat.mode_bad":    "Unknown mode %q (general, rag, planner)",
	"chat.new_session": "Started a new chat session",
	"chat.failed":      "Chat failed: %s",

	// Practice
	"quiz.question":  "Q%d/%d",
	"quiz.correct":   "Correct!",
	"quiz.wrong":     "Wrong — answer: %s",
	"quiz.score":     "Score: %d/%d correct (%d answered)",
	"cards.none_due": "No flashcards due",
	"eval.score":     "Score: %d/10",

	// Library
	"lib.empty":       "No resources yet",
	"lib.unavailable": "Library unavailable: %s",
	"lib.created":     "Added %q",

	// Commands
	"cmd.help":   "Show available commands",
	"cmd.login":  "Sign in with phone and OTP",
	"cmd.logout": "Sign out and clear the saved token",
	"cmd.exit":   "Exit application",

	// Errors
	"error.generic": "Error: %s",
	"error.network": "Network error: %s",
	"error.usage":   "Usage: %s",
}
