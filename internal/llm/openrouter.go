package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tadeuscofield/NutriOffShore/internal/httpkit"
)

// APIError is a non-2xx response from the provider. The status code is
// preserved so callers can distinguish rate limiting from other failures.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter: status %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err is a provider rate-limit rejection.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	// Some gateways surface the condition only in the message body.
	if err != nil {
		msg := strings.ToLower(err.Error())
		return strings.Contains(msg, "rate limit") || strings.Contains(msg, "429")
	}
	return false
}

// OpenRouterClient talks to the OpenRouter API, which speaks the OpenAI
// chat-completions wire format.
type OpenRouterClient struct {
	baseURL      string
	apiKey       string
	model        string
	httpClient   *http.Client
	streamClient *http.Client
	logger       *slog.Logger
}

// NewOpenRouterClient creates a client bound to one model. Streaming
// requests use a client without an overall timeout so long completions
// are not cut off mid-stream; the per-call context still bounds them.
func NewOpenRouterClient(baseURL, apiKey, model string, timeout time.Duration, logger *slog.Logger) *OpenRouterClient {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouterClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(timeout)),
		streamClient: httpkit.NewClient(
			httpkit.WithTimeout(0),
			httpkit.WithResponseHeaderTimeout(timeout),
		),
		logger: logger,
	}
}

// chatRequest is the request format for the chat completions endpoint.
type chatRequest struct {
	Model         string           `json:"model"`
	Messages      []Message        `json:"messages"`
	MaxTokens     int              `json:"max_tokens,omitempty"`
	Tools         []map[string]any `json:"tools,omitempty"`
	Stream        bool             `json:"stream,omitempty"`
	StreamOptions *streamOptions   `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatCompletion struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Chat sends a blocking chat completion request.
func (c *OpenRouterClient) Chat(ctx context.Context, messages []Message, tools []map[string]any, maxTokens int) (*ChatResponse, error) {
	resp, err := c.post(ctx, chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
		Tools:     tools,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var completion chatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: response has no choices")
	}

	result := &ChatResponse{
		Model:        completion.Model,
		Message:      completion.Choices[0].Message,
		FinishReason: completion.Choices[0].FinishReason,
	}
	if completion.Usage != nil {
		result.InputTokens = completion.Usage.PromptTokens
		result.OutputTokens = completion.Usage.CompletionTokens
	}
	return result, nil
}

// streamChunk is one SSE chunk of a streaming completion.
type streamChunk struct {
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
	Usage   *usage         `json:"usage"`
}

type streamChoice struct {
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

type streamDelta struct {
	Content   string          `json:"content"`
	ToolCalls []toolCallDelta `json:"tool_calls"`
}

// toolCallDelta is a fragment of a tool call. The first fragment for an
// index carries the id and name; later fragments append argument text.
type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ChatStream sends a streaming chat request. Text deltas are forwarded to
// callback; tool-call fragments are merged by positional index and
// returned on the final ChatResponse.
func (c *OpenRouterClient) ChatStream(ctx context.Context, messages []Message, tools []map[string]any, maxTokens int, callback StreamCallback) (*ChatResponse, error) {
	resp, err := c.post(ctx, chatRequest{
		Model:         c.model,
		Messages:      messages,
		MaxTokens:     maxTokens,
		Tools:         tools,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	final := &ChatResponse{Model: c.model}
	var content strings.Builder
	calls := make(map[int]*ToolCall)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			c.logger.Debug("skipping malformed stream chunk", "error", err)
			continue
		}

		if chunk.Model != "" {
			final.Model = chunk.Model
		}
		if chunk.Usage != nil {
			final.InputTokens = chunk.Usage.PromptTokens
			final.OutputTokens = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if callback != nil {
				callback(delta.Content)
			}
		}
		for _, tc := range delta.ToolCalls {
			acc, ok := calls[tc.Index]
			if !ok {
				acc = &ToolCall{Type: "function"}
				calls[tc.Index] = acc
			}
			if tc.ID != "" {
				acc.ID = tc.ID
			}
			if tc.Function.Name != "" {
				acc.Function.Name = tc.Function.Name
			}
			acc.Function.Arguments += tc.Function.Arguments
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	final.Message = Message{
		Role:      "assistant",
		Content:   content.String(),
		ToolCalls: orderedCalls(calls),
	}
	return final, nil
}

// orderedCalls flattens the index-keyed accumulator back into the
// positional order the model emitted.
func orderedCalls(calls map[int]*ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(calls))
	for i := range calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	result := make([]ToolCall, 0, len(calls))
	for _, i := range indexes {
		result = append(result, *calls[i])
	}
	return result
}

func (c *OpenRouterClient) post(ctx context.Context, req chatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "openrouter request", "body", string(jsonData))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := c.httpClient
	if req.Stream {
		client = c.streamClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

// Ping checks if OpenRouter is reachable with the configured credentials.
func (c *OpenRouterClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}
