package chat

import "time"

// Turn 一次对话回合：用户提问或助手回答。
// Turn is one conversation turn: a user question or an assistant answer.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
