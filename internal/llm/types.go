// Package llm provides the OpenRouter completion client.
package llm

import "log/slog"

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Message represents a chat message in the OpenAI chat-completions wire
// format. Role is one of "system", "user", "assistant" or "tool".
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall represents a tool call requested by the model.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"` // always "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and the raw JSON argument text
// exactly as produced by the model. Parsing is deferred to the caller
// so malformed arguments can be handled leniently instead of failing
// the whole turn.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResponse is the provider-neutral result of one completion call.
type ChatResponse struct {
	Model        string
	Message      Message
	FinishReason string

	// Token usage as reported by the provider (zero when unavailable)
	InputTokens  int
	OutputTokens int
}

// TotalTokens returns the combined input and output token count.
func (r *ChatResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// StreamCallback receives incremental text deltas during a streaming
// call. Tool-call fragments are accumulated internally and surface only
// in the final ChatResponse.
type StreamCallback func(delta string)
