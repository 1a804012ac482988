package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tadeuscofield/NutriOffShore/internal/config"
	"github.com/tadeuscofield/NutriOffShore/internal/llm"
	"github.com/tadeuscofield/NutriOffShore/internal/prompts"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
	"github.com/tadeuscofield/NutriOffShore/internal/tools"
)

// mockLLM replays a scripted sequence of responses and records every
// call it receives.
type mockLLM struct {
	responses []mockResponse
	calls     []mockCall
}

type mockResponse struct {
	resp *llm.ChatResponse
	err  error
}

type mockCall struct {
	messages  []llm.Message
	tools     []map[string]any
	maxTokens int
	stream    bool
}

func (m *mockLLM) next() (*llm.ChatResponse, error) {
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock exhausted after %d calls", len(m.calls))
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	return r.resp, r.err
}

func (m *mockLLM) Chat(ctx context.Context, messages []llm.Message, toolDefs []map[string]any, maxTokens int) (*llm.ChatResponse, error) {
	m.calls = append(m.calls, mockCall{messages: messages, tools: toolDefs, maxTokens: maxTokens})
	return m.next()
}

func (m *mockLLM) ChatStream(ctx context.Context, messages []llm.Message, toolDefs []map[string]any, maxTokens int, callback llm.StreamCallback) (*llm.ChatResponse, error) {
	m.calls = append(m.calls, mockCall{messages: messages, tools: toolDefs, maxTokens: maxTokens, stream: true})
	resp, err := m.next()
	if err != nil {
		return nil, err
	}
	if resp.Message.Content != "" {
		callback(resp.Message.Content)
	}
	return resp, nil
}

func (m *mockLLM) Ping(ctx context.Context) error { return nil }

func textResponse(content string, in, out int) mockResponse {
	return mockResponse{resp: &llm.ChatResponse{
		Message:      llm.Message{Role: "assistant", Content: content},
		FinishReason: "stop",
		InputTokens:  in,
		OutputTokens: out,
	}}
}

func toolCallResponse(id, name, arguments string) mockResponse {
	return mockResponse{resp: &llm.ChatResponse{
		Message: llm.Message{
			Role: "assistant",
			ToolCalls: []llm.ToolCall{{
				ID:       id,
				Type:     "function",
				Function: llm.FunctionCall{Name: name, Arguments: arguments},
			}},
		},
		FinishReason: "tool_calls",
	}}
}

func newTestService(t *testing.T, mock *mockLLM, cfg config.AgentConfig) (*Service, *store.Store, *store.Colaborador) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	c := &store.Colaborador{
		Matricula:      "PET-9001",
		Nome:           "Ana Costa",
		DataNascimento: "1992-02-10",
		Sexo:           "F",
		AlturaCM:       165,
		NivelAtividade: "moderado",
		TurnoAtual:     "diurno",
		RegimeEmbarque: "14x14",
		MetaPrincipal:  "saude_geral",
	}
	if err := st.CreateColaborador(c); err != nil {
		t.Fatalf("CreateColaborador: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := tools.NewRegistry(st, logger)
	return New(mock, registry, st, cfg, logger), st, c
}

func defaultAgentConfig() config.AgentConfig {
	return config.AgentConfig{
		MaxToolRounds:      8,
		HistoryTokenBudget: 12000,
		MaxTokens:          8192,
		StreamMaxTokens:    4096,
	}
}

func TestProcessarMensagemToolThenAnswer(t *testing.T) {
	mock := &mockLLM{}
	svc, st, c := newTestService(t, mock, defaultAgentConfig())

	mock.responses = []mockResponse{
		toolCallResponse("call-1", "get_colaborador_profile", fmt.Sprintf(`{"colaborador_id":%q}`, c.ID)),
		textResponse("Seu perfil está atualizado.", 150, 20),
	}

	resp, err := svc.ProcessarMensagem(context.Background(), c.ID, "Como está meu perfil?", "")
	if err != nil {
		t.Fatalf("ProcessarMensagem: %v", err)
	}
	if resp.Resposta != "Seu perfil está atualizado." {
		t.Errorf("resposta = %q", resp.Resposta)
	}
	if resp.Tokens != 170 {
		t.Errorf("tokens = %d, want 170", resp.Tokens)
	}
	if len(mock.calls) != 2 {
		t.Fatalf("provider called %d times, want 2", len(mock.calls))
	}

	// The second call carries the tool result appended to history.
	second := mock.calls[1].messages
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "call-1" {
		t.Errorf("last message = %s/%s, want tool result for call-1", last.Role, last.ToolCallID)
	}
	if !strings.Contains(last.Content, "colaborador") {
		t.Errorf("tool result missing profile payload: %q", last.Content)
	}

	// Transcript persists only the user turn and the final answer.
	conversa, err := st.GetConversa(resp.ConversaID)
	if err != nil {
		t.Fatalf("GetConversa: %v", err)
	}
	if len(conversa.Messages) != 2 {
		t.Fatalf("transcript has %d turns, want 2: %v", len(conversa.Messages), conversa.Messages)
	}
	if conversa.Messages[0].Role != "user" || conversa.Messages[1].Role != "assistant" {
		t.Errorf("unexpected transcript roles: %v", conversa.Messages)
	}
	if conversa.TokensUtilizados != 170 {
		t.Errorf("persisted tokens = %d, want 170", conversa.TokensUtilizados)
	}
}

func TestProcessarMensagemRoundsExhaustedForcesSynthesis(t *testing.T) {
	cfg := defaultAgentConfig()
	cfg.MaxToolRounds = 2
	mock := &mockLLM{}
	svc, _, c := newTestService(t, mock, cfg)

	mock.responses = []mockResponse{
		toolCallResponse("call-1", "get_estoque_refeitorio", `{}`),
		toolCallResponse("call-2", "get_estoque_refeitorio", `{}`),
		textResponse("O refeitório está abastecido.", 300, 30),
	}

	resp, err := svc.ProcessarMensagem(context.Background(), c.ID, "Tem comida?", "")
	if err != nil {
		t.Fatalf("ProcessarMensagem: %v", err)
	}
	if resp.Resposta != "O refeitório está abastecido." {
		t.Errorf("resposta = %q", resp.Resposta)
	}
	if len(mock.calls) != 3 {
		t.Fatalf("provider called %d times, want max rounds + 1 synthesis", len(mock.calls))
	}

	// The synthesis call disables tools and appends the nudge.
	synthesis := mock.calls[2]
	if synthesis.tools != nil {
		t.Error("synthesis call should carry no tool catalog")
	}
	var sawNudge bool
	for _, m := range synthesis.messages {
		if m.Role == "user" && m.Content == prompts.SynthesisNudge {
			sawNudge = true
		}
	}
	if !sawNudge {
		t.Error("synthesis call missing the nudge user message")
	}

	// Regular rounds always carry the catalog.
	if mock.calls[0].tools == nil || mock.calls[1].tools == nil {
		t.Error("tool rounds should carry the tool catalog")
	}
}

func TestProcessarMensagemMalformedArgsStillDispatch(t *testing.T) {
	mock := &mockLLM{}
	svc, _, c := newTestService(t, mock, defaultAgentConfig())

	var received map[string]any
	invoked := 0
	svc.registry.Register(&tools.Tool{
		Name:        "inspecionar",
		Description: "test helper",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			invoked++
			received = args
			return map[string]any{"ok": true}, nil
		},
	})

	mock.responses = []mockResponse{
		toolCallResponse("call-1", "inspecionar", `{invalid json`),
		textResponse("Feito.", 10, 5),
	}

	if _, err := svc.ProcessarMensagem(context.Background(), c.ID, "teste", ""); err != nil {
		t.Fatalf("ProcessarMensagem: %v", err)
	}
	if invoked != 1 {
		t.Fatalf("handler invoked %d times, want 1", invoked)
	}
	// Malformed arguments degrade to the principal binding only.
	if received["colaborador_id"] != c.ID {
		t.Errorf("args = %v, want colaborador binding", received)
	}
	if len(received) != 1 {
		t.Errorf("args = %v, want no fields beyond the binding", received)
	}
}

func TestProcessarMensagemEmptySynthesisUsesFallback(t *testing.T) {
	cfg := defaultAgentConfig()
	cfg.MaxToolRounds = 1
	mock := &mockLLM{}
	svc, _, c := newTestService(t, mock, cfg)

	mock.responses = []mockResponse{
		toolCallResponse("call-1", "get_estoque_refeitorio", `{}`),
		textResponse("", 50, 0),
	}

	resp, err := svc.ProcessarMensagem(context.Background(), c.ID, "Tem comida?", "")
	if err != nil {
		t.Fatalf("ProcessarMensagem: %v", err)
	}
	if resp.Resposta != prompts.EmptyResponseFallback {
		t.Errorf("resposta = %q, want the generic fallback", resp.Resposta)
	}
}

func TestProcessarMensagemProviderErrorPropagates(t *testing.T) {
	mock := &mockLLM{}
	svc, st, c := newTestService(t, mock, defaultAgentConfig())

	mock.responses = []mockResponse{
		{err: fmt.Errorf("connection refused")},
	}

	if _, err := svc.ProcessarMensagem(context.Background(), c.ID, "oi", ""); err == nil {
		t.Fatal("want error from provider failure")
	}

	conversas, err := st.ListConversas(c.ID, 10)
	if err != nil {
		t.Fatalf("ListConversas: %v", err)
	}
	if len(conversas) != 0 {
		t.Errorf("conversation persisted despite provider failure: %v", conversas)
	}
}

func TestProcessarMensagemContinuesConversation(t *testing.T) {
	mock := &mockLLM{}
	svc, st, c := newTestService(t, mock, defaultAgentConfig())

	mock.responses = []mockResponse{textResponse("Primeira resposta.", 100, 10)}
	first, err := svc.ProcessarMensagem(context.Background(), c.ID, "Primeira pergunta?", "")
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	mock.responses = []mockResponse{textResponse("Segunda resposta.", 120, 12)}
	second, err := svc.ProcessarMensagem(context.Background(), c.ID, "Segunda pergunta?", first.ConversaID)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.ConversaID != first.ConversaID {
		t.Errorf("conversa id changed: %s -> %s", first.ConversaID, second.ConversaID)
	}

	// The second provider call sees the prior transcript.
	call := mock.calls[1].messages
	var sawPrior bool
	for _, m := range call {
		if m.Role == "assistant" && m.Content == "Primeira resposta." {
			sawPrior = true
		}
	}
	if !sawPrior {
		t.Error("prior transcript missing from provider call")
	}

	conversa, err := st.GetConversa(first.ConversaID)
	if err != nil {
		t.Fatalf("GetConversa: %v", err)
	}
	if len(conversa.Messages) != 4 {
		t.Errorf("transcript has %d turns, want 4", len(conversa.Messages))
	}
	if conversa.TokensUtilizados != 242 {
		t.Errorf("tokens = %d, want 110 + 132", conversa.TokensUtilizados)
	}
}

func TestProcessarMensagemUnknownConversaStartsFresh(t *testing.T) {
	mock := &mockLLM{}
	svc, _, c := newTestService(t, mock, defaultAgentConfig())

	mock.responses = []mockResponse{textResponse("Olá!", 10, 2)}
	resp, err := svc.ProcessarMensagem(context.Background(), c.ID, "oi", "nao-existe")
	if err != nil {
		t.Fatalf("ProcessarMensagem: %v", err)
	}
	if resp.ConversaID == "nao-existe" || resp.ConversaID == "" {
		t.Errorf("want a freshly assigned conversa id, got %q", resp.ConversaID)
	}
}
