package domain

import "time"

// ConversationTurn is one question/answer pair in a session transcript.
type ConversationTurn struct {
	Question string
	Answer   string
	AskedAt  time.Time
}

// Chat message roles as expected by the language-model service.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single message sent to the language-model service.
type ChatMessage struct {
	Role    string
	Content string
}
