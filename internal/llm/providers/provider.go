// File path: internal/llm/providers/provider.go
package providers

import "context"

// Message is one chat turn sent to a completion backend.
type Message struct {
	Role    string
	Content string
}

// Provider abstracts the completion backend so the summarizer can run against
// OpenAI in production and a deterministic stub in tests.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}
