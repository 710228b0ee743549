package storage

// ChatSessionMeta 一个本地聊天会话的元数据。
// ChatSessionMeta describes one locally recorded chat session.
type ChatSessionMeta struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// JournalEntry 学习日志条目：进度上报或终态覆盖冲突。
// JournalEntry is one study-journal row: a progress report or a
// terminal-status overwrite conflict.
type JournalEntry struct {
	ID         int64  `json:"id"`
	Kind       string `json:"kind"` // progress | conflict
	PlanItemID string `json:"plan_item_id"`
	Minutes    int    `json:"minutes"`
	Status     string `json:"status"`
	PrevStatus string `json:"prev_status"`
	CreatedAt  string `json:"created_at"`
}

const (
	JournalProgress = "progress"
	JournalConflict = "conflict"
)
