package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouterClient(srv.URL, "sk-or-test", "test-model", 5*time.Second, slog.Default())
}

func TestChat_DecodesChoiceAndUsage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-or-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("blocking call should not set stream")
		}
		if req.MaxTokens != 8192 {
			t.Errorf("max_tokens = %d, want 8192", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": "Olá! Como posso ajudar?",
				},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{
				"prompt_tokens":     120,
				"completion_tokens": 15,
				"total_tokens":      135,
			},
		})
	})

	resp, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "oi"}}, nil, 8192)
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if resp.Message.Content != "Olá! Como posso ajudar?" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if resp.InputTokens != 120 || resp.OutputTokens != 15 {
		t.Errorf("usage = %d/%d, want 120/15", resp.InputTokens, resp.OutputTokens)
	}
	if resp.TotalTokens() != 135 {
		t.Errorf("TotalTokens = %d, want 135", resp.TotalTokens())
	}
}

func TestChat_ToolCallArgumentsStayRaw(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call-1",
						"type": "function",
						"function": map[string]any{
							"name":      "get_colaborador_profile",
							"arguments": `{"colaborador_id": "abc"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	})

	resp, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "perfil"}}, nil, 0)
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.Message.ToolCalls))
	}
	tc := resp.Message.ToolCalls[0]
	if tc.Function.Name != "get_colaborador_profile" {
		t.Errorf("name = %q", tc.Function.Name)
	}
	if tc.Function.Arguments != `{"colaborador_id": "abc"}` {
		t.Errorf("arguments = %q, want raw JSON text", tc.Function.Arguments)
	}
}

func TestChat_RateLimitError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limit exceeded"}`, http.StatusTooManyRequests)
	})

	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "oi"}}, nil, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRateLimited(err) {
		t.Errorf("IsRateLimited(%v) = false, want true", err)
	}
}

func TestIsRateLimited_GenericError(t *testing.T) {
	if IsRateLimited(fmt.Errorf("connection refused")) {
		t.Error("generic error should not be rate limited")
	}
	if IsRateLimited(fmt.Errorf("upstream said: rate limit hit")) == false {
		t.Error("message-based detection should catch rate limit text")
	}
	if IsRateLimited(nil) {
		t.Error("nil error should not be rate limited")
	}
}

// sseBody builds a minimal SSE stream from pre-marshalled chunks.
func sseBody(chunks ...string) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString("data: " + c + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func TestChatStream_AccumulatesTextAndUsage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("streaming call should set stream")
		}
		if req.StreamOptions == nil || !req.StreamOptions.IncludeUsage {
			t.Error("streaming call should request usage")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"model":"test-model","choices":[{"delta":{"content":"Bom "}}]}`,
			`{"choices":[{"delta":{"content":"dia!"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":50,"completion_tokens":4}}`,
		))
	})

	var deltas []string
	resp, err := client.ChatStream(context.Background(), []Message{{Role: "user", Content: "oi"}}, nil, 4096, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if resp.Message.Content != "Bom dia!" {
		t.Errorf("content = %q, want %q", resp.Message.Content, "Bom dia!")
	}
	if len(deltas) != 2 || deltas[0] != "Bom " || deltas[1] != "dia!" {
		t.Errorf("deltas = %v", deltas)
	}
	if resp.InputTokens != 50 || resp.OutputTokens != 4 {
		t.Errorf("usage = %d/%d, want 50/4", resp.InputTokens, resp.OutputTokens)
	}
}

func TestChatStream_MergesToolCallFragmentsByIndex(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call-1","type":"function","function":{"name":"log_refeicao","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"refeicao_tipo\":"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"almoco\"}"}},{"index":1,"id":"call-2","function":{"name":"get_cardapio_dia","arguments":"{}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		))
	})

	resp, err := client.ChatStream(context.Background(), []Message{{Role: "user", Content: "registra meu almoço"}}, nil, 0, nil)
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if len(resp.Message.ToolCalls) != 2 {
		t.Fatalf("tool calls = %d, want 2", len(resp.Message.ToolCalls))
	}

	first := resp.Message.ToolCalls[0]
	if first.ID != "call-1" || first.Function.Name != "log_refeicao" {
		t.Errorf("first call = %+v", first)
	}
	if first.Function.Arguments != `{"refeicao_tipo":"almoco"}` {
		t.Errorf("first arguments = %q", first.Function.Arguments)
	}

	second := resp.Message.ToolCalls[1]
	if second.ID != "call-2" || second.Function.Name != "get_cardapio_dia" {
		t.Errorf("second call = %+v", second)
	}
}

func TestChatStream_SkipsMalformedChunks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, sseBody(`{"choices":[{"delta":{"content":"ok"}}]}`))
	})

	resp, err := client.ChatStream(context.Background(), []Message{{Role: "user", Content: "oi"}}, nil, 0, nil)
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}
	if resp.Message.Content != "ok" {
		t.Errorf("content = %q, want %q", resp.Message.Content, "ok")
	}
}
