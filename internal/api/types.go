package api

// 与后端 /api 路由共享的线格式类型。时间戳保留为后端返回的原始字符串，
// 客户端只做展示，不参与计算。
// Wire types shared with the backend /api routes. Timestamps stay as the raw
// strings the backend returns; the client renders them but never computes on
// them.

type Subject string

const (
	SubjectGS1      Subject = "gs1"
	SubjectGS2      Subject = "gs2"
	SubjectGS3      Subject = "gs3"
	SubjectGS4      Subject = "gs4"
	SubjectEssay    Subject = "essay"
	SubjectOptional Subject = "optional"
	SubjectCSAT     Subject = "csat"
)

// AllSubjects 固定的科目枚举，顺序即展示顺序。
// AllSubjects is the fixed subject enumeration in display order.
func AllSubjects() []Subject {
	return []Subject{
		SubjectGS1, SubjectGS2, SubjectGS3, SubjectGS4,
		SubjectEssay, SubjectOptional, SubjectCSAT,
	}
}

type PlanItemStatus string

const (
	StatusPending PlanItemStatus = "pending"
	StatusDone    PlanItemStatus = "done"
	StatusSkipped PlanItemStatus = "skipped"
)

// Terminal 报告状态是否已经终结（done/skipped 之后不再由用户操作回退）。
// Terminal reports whether the status is final; done and skipped never revert
// through user action in this client.
func (s PlanItemStatus) Terminal() bool {
	return s == StatusDone || s == StatusSkipped
}

type ChatMode string

const (
	ChatModeGeneral ChatMode = "general"
	ChatModeRAG     ChatMode = "rag"
	ChatModePlanner ChatMode = "planner"
)

type ResourceKind string

const (
	ResourcePDF         ResourceKind = "pdf"
	ResourceImage       ResourceKind = "image"
	ResourceYouTube     ResourceKind = "youtube"
	ResourceLink        ResourceKind = "link"
	ResourceNote        ResourceKind = "note"
	ResourceAIGenerated ResourceKind = "ai_generated"
)

type ResourceStatus string

const (
	ResourceUploaded ResourceStatus = "uploaded"
	ResourceParsed   ResourceStatus = "parsed"
	ResourceIndexed  ResourceStatus = "indexed"
)

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at"`
}

type Profile struct {
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	ExamDate          string `json:"exam_date,omitempty"`
	OptionalSubject   string `json:"optional_subject,omitempty"`
	HoursPerDay       int    `json:"hours_per_day,omitempty"`
	StreakCount       int    `json:"streak_count"`
	TotalStudyMinutes int    `json:"total_study_minutes"`
	UpdatedAt         string `json:"updated_at"`
}

type PlanItem struct {
	ID            string         `json:"id"`
	PlanID        string         `json:"plan_id"`
	UserID        string         `json:"user_id"`
	Date          string         `json:"date"`
	Subject       Subject        `json:"subject"`
	Topic         string         `json:"topic"`
	TargetMinutes int            `json:"target_minutes"`
	ActualMinutes int            `json:"actual_minutes"`
	Status        PlanItemStatus `json:"status"`
	CreatedAt     string         `json:"created_at"`
}

type SubjectStats struct {
	Minutes   int `json:"minutes"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Dashboard 后端计算的聚合快照，客户端不做二次计算（只做展示取整）。
// Dashboard is the backend-computed aggregate snapshot; the client never
// recomputes it beyond presentational rounding.
type Dashboard struct {
	TotalStudyMinutes int                     `json:"total_study_minutes"`
	StreakCount       int                     `json:"streak_count"`
	CompletionRate    float64                 `json:"completion_rate"`
	SubjectStats      map[string]SubjectStats `json:"subject_stats"`
	WeeklyMinutes     []int                   `json:"weekly_minutes"`
}

type Resource struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	FolderID  string         `json:"folder_id,omitempty"`
	Kind      ResourceKind   `json:"kind"`
	Title     string         `json:"title"`
	Content   string         `json:"content,omitempty"`
	URL       string         `json:"url,omitempty"`
	Status    ResourceStatus `json:"status"`
	CreatedAt string         `json:"created_at"`
}

type MCQQuestion struct {
	ID          string   `json:"id"`
	Stem        string   `json:"stem"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

type MCQSet struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Subject   Subject       `json:"subject"`
	Questions []MCQQuestion `json:"questions"`
	CreatedAt string        `json:"created_at"`
}

type Flashcard struct {
	ID           string  `json:"id"`
	Front        string  `json:"front"`
	Back         string  `json:"back"`
	Subject      Subject `json:"subject"`
	Ease         float64 `json:"ease"`
	IntervalDays int     `json:"interval_days"`
	Reps         int     `json:"reps"`
	NextReviewAt string  `json:"next_review_at"`
	CreatedAt    string  `json:"created_at"`
}

type Evaluation struct {
	ID          string         `json:"id"`
	Question    string         `json:"question"`
	OCRText     string         `json:"ocr_text"`
	Score       int            `json:"score"`
	Rubric      map[string]int `json:"rubric"`
	Suggestions string         `json:"suggestions"`
	CreatedAt   string         `json:"created_at"`
}

type ChatHistoryMessage struct {
	ID        string   `json:"id"`
	SessionID string   `json:"session_id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Mode      ChatMode `json:"mode"`
	CreatedAt string   `json:"created_at"`
}

// --- Request/Response payloads ---

type AuthVerifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type AuthVerifyResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type MeResponse struct {
	User    User     `json:"user"`
	Profile *Profile `json:"profile"`
}

type ProfileSetupRequest struct {
	Name            string `json:"name"`
	ExamDate        string `json:"exam_date,omitempty"`
	OptionalSubject string `json:"optional_subject,omitempty"`
	HoursPerDay     int    `json:"hours_per_day,omitempty"`
}

type PlanGenerateRequest struct {
	ExamDate    string    `json:"exam_date"`
	HoursPerDay int       `json:"hours_per_day"`
	Subjects    []Subject `json:"subjects"`
	WeakAreas   []string  `json:"weak_areas"`
}

type StudyLogRequest struct {
	PlanItemID string         `json:"plan_item_id"`
	Minutes    int            `json:"minutes"`
	Status     PlanItemStatus `json:"status"`
}

type ChatRequest struct {
	SessionID string         `json:"session_id"`
	Message   string         `json:"message"`
	Mode      ChatMode       `json:"mode"`
	Context   map[string]any `json:"context"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	MessageID string `json:"message_id"`
}

type ResourceCreateRequest struct {
	Title    string       `json:"title"`
	Kind     ResourceKind `json:"kind"`
	Content  string       `json:"content,omitempty"`
	URL      string       `json:"url,omitempty"`
	FolderID string       `json:"folder_id,omitempty"`
}

type MCQGenerateRequest struct {
	Subject Subject `json:"subject"`
	Topic   string  `json:"topic,omitempty"`
	Count   int     `json:"count"`
}

type FlashcardGenerateRequest struct {
	Subject Subject `json:"subject"`
	Topic   string  `json:"topic"`
	Count   int     `json:"count"`
}

type EvaluationRequest struct {
	Question    string `json:"question"`
	AnswerImage string `json:"answer_image"`
}
