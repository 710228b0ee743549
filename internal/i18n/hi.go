package i18n

// HiMessages Hindi (हिन्दी) message catalog
var HiMessages = map[string]string{
	// UI (TUI) - Panel titles
	"panel.today":     "आज की योजना",
	"panel.dashboard": "डैशबोर्ड",
	"panel.chat":      "मेंटर चैट",

	// UI - Status bar
	"status.ready":     "तैयार",
	"status.loading":   "लोड हो रहा है...",
	"status.anonymous": "साइन इन नहीं",
	"status.signed_in": "%s के रूप में साइन इन",
	"status.demo":      "डेमो डेटा — बैकएंड उपलब्ध नहीं",

	// Auth
	"auth.otp_prompt":     "%s पर भेजा गया OTP दर्ज करें",
	"auth.login_ok":       "वापसी पर स्वागत है, %s",
	"auth.login_failed":   "लॉगिन विफल: %s",
	"auth.logged_out":     "साइन आउट हो गया",
	"auth.need_login":     "पहले /login से साइन इन करें",
	"auth.session_ended":  "सत्र समाप्त, कृपया फिर से साइन इन करें",
	"auth.profile_saved":  "प्रोफ़ाइल सहेजी गई",
	"auth.profile_prompt": "/profile <नाम> [परीक्षा-तिथि] से प्रोफ़ाइल सेट करें",

	// Planner
	"plan.empty":        "कोई अध्ययन कार्य निर्धारित नहीं",
	"plan.unavailable":  "योजनाकार उपलब्ध नहीं: %s",
	"plan.generated":    "योजना तैयार, आज %d कार्य",
	"plan.logged":       "%s के लिए %d मिनट दर्ज",
	"plan.rescheduled":  "%s पर स्थानांतरित (केवल स्थानीय, अगली योजना पर सिंक)",
	"plan.item_missing": "id %s वाला कोई कार्य नहीं",

	// Analytics
	"dash.unavailable": "डैशबोर्ड उपलब्ध नहीं: %s",
	"dash.streak":      "स्ट्रीक: %d दिन",
	"dash.total":       "कुल अध्ययन: %d मिनट",
	"dash.completion":  "पूर्णता: %s",

	// Chat
	"chat.thinking":    "सोच रहा है...",
	"chat.mode_set":    "चैट मोड: %s",
	"chat.mode_bad":    "अज्ञात मोड %q (general, rag, planner)",
	"chat.new_session": "नया चैट सत्र शुरू",
	"chat.failed":      "चैट विफल: %s",

	// Practice
	"quiz.question":  "प्र%d/%d",
	"quiz.correct":   "सही!",
	"quiz.wrong":     "गलत — उत्तर: %s",
	"quiz.score":     "स्कोर: %d/%d सही (%d उत्तरित)",
	"cards.none_due": "कोई फ्लैशकार्ड देय नहीं",
	"eval.score":     "स्कोर: %d/10",

	// Library
	"lib.empty":       "अभी कोई संसाधन नहीं",
	"lib.unavailable": "लाइब्रेरी उपलब्ध नहीं: %s",
	"lib.created":     "%q जोड़ा गया",

	// Commands
	"cmd.help":   "उपलब्ध कमांड दिखाएँ",
	"cmd.login":  "फ़ोन और OTP से साइन इन करें",
	"cmd.logout": "साइन आउट करें और सहेजा टोकन हटाएँ",
	"cmd.exit":   "एप्लिकेशन बंद करें",

	// Errors
	"error.generic": "त्रुटि: %s",
	"error.network": "नेटवर्क त्रुटि: %s",
	"error.usage":   "उपयोग: %s",
}
