package llm

import "context"

// Client is the interface the agent loop depends on.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	// Passing a nil tool catalog disables tool use for the call.
	Chat(ctx context.Context, messages []Message, tools []map[string]any, maxTokens int) (*ChatResponse, error)

	// ChatStream sends a streaming chat request. If callback is non-nil,
	// text deltas are forwarded to it as they arrive.
	ChatStream(ctx context.Context, messages []Message, tools []map[string]any, maxTokens int, callback StreamCallback) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
