// Package llm defines the Provider interface for chat-mode reply generation.
//
// The free-form conversation mode sends each user transcript to a language
// model with a fixed French system instruction and speaks the reply. The
// interface is deliberately narrow — one blocking completion per turn; the
// turn loop never issues concurrent completions and degrades any failure to
// a deterministic fallback reply.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Message is one entry of the conversation history.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// CompletionRequest carries everything the model needs for one reply.
type CompletionRequest struct {
	// SystemPrompt is the high-priority instruction injected before the
	// conversation history.
	SystemPrompt string

	// Messages is the ordered conversation history; the last message drives
	// the response.
	Messages []Message

	// Temperature controls output randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// Usage holds token accounting returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Provider is the abstraction over any chat-completion backend.
type Provider interface {
	// Complete produces one reply for the given request. A non-nil error or
	// an empty Content triggers the caller's fallback path.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
