package domain

import "context"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	// ChatRole_System is the system prompt role.
	ChatRole_System ChatRole = "system"
	// ChatRole_User is the user role.
	ChatRole_User ChatRole = "user"
	// ChatRole_Assistant is the assistant role.
	ChatRole_Assistant ChatRole = "assistant"
)

// LLMChatMessage is one prompt message sent to the chat model.
type LLMChatMessage struct {
	Role    ChatRole
	Content string
}

// LLMChatRequest is one non-streaming chat completion request.
type LLMChatRequest struct {
	Model       string
	Messages    []LLMChatMessage
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// LLMChatResponse is the assistant's full response plus token accounting.
type LLMChatResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// LLMClient defines the interface for interacting with the chat model used
// by the generate stage.
type LLMClient interface {
	// Chat sends a chat request and returns the full assistant response.
	Chat(ctx context.Context, req LLMChatRequest) (LLMChatResponse, error)
}
