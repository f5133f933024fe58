package chat

import "fmt"

// ChatRequest represents a player message posted to the narrator API.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse represents a narrator turn result returned by the API.
// ChatHistory carries the full conversation transcript, newest message
// first, as handed back by the conversation provider.
type ChatResponse struct {
	Message     string        `json:"message,omitempty"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
	Error       string        `json:"error,omitempty"`
}

const (
	ChatRoleUser      = "user"      // player
	ChatRoleAssistant = "assistant" // narrator
	ChatRoleSystem    = "system"
)

// ChatMessage is a single role-tagged message in the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (cr *ChatRequest) Validate() error {
	if cr.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
