// Package agent implements the nutrition agent's orchestration loop:
// provider calls, tool dispatch, history trimming and conversation
// persistence.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tadeuscofield/NutriOffShore/internal/config"
	"github.com/tadeuscofield/NutriOffShore/internal/llm"
	"github.com/tadeuscofield/NutriOffShore/internal/prompts"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
	"github.com/tadeuscofield/NutriOffShore/internal/tools"
)

// Service drives agent turns for authenticated colaboradores.
type Service struct {
	client   llm.Client
	registry *tools.Registry
	store    *store.Store
	logger   *slog.Logger

	maxToolRounds   int
	historyBudget   int
	maxTokens       int
	streamMaxTokens int
}

// New creates the agent service.
func New(client llm.Client, registry *tools.Registry, st *store.Store, cfg config.AgentConfig, logger *slog.Logger) *Service {
	return &Service{
		client:          client,
		registry:        registry,
		store:           st,
		logger:          logger,
		maxToolRounds:   cfg.MaxToolRounds,
		historyBudget:   cfg.HistoryTokenBudget,
		maxTokens:       cfg.MaxTokens,
		streamMaxTokens: cfg.StreamMaxTokens,
	}
}

// Resposta is the blocking-path result of one agent turn.
type Resposta struct {
	Resposta   string `json:"resposta"`
	ConversaID string `json:"conversa_id"`
	Tokens     int    `json:"tokens"`
}

// seedMessages builds the initial history: system prompt, any prior
// transcript, then the new user message. The returned id is the loaded
// conversation's id, or empty when a fresh conversation should be
// created on save.
func (s *Service) seedMessages(colaboradorID, mensagem, conversaID string) ([]llm.Message, string) {
	messages := []llm.Message{
		{Role: "system", Content: prompts.SystemPrompt(colaboradorID)},
	}

	loadedID := ""
	if conversaID != "" {
		conversa, err := s.store.GetConversa(conversaID)
		switch {
		case err == nil:
			loadedID = conversa.ID
			for _, t := range conversa.Messages {
				messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
			}
		case errors.Is(err, store.ErrNotFound):
			s.logger.Warn("conversa não encontrada, iniciando nova", "conversa_id", conversaID)
		default:
			s.logger.Error("erro carregando conversa", "conversa_id", conversaID, "error", err)
		}
	}

	messages = append(messages, llm.Message{Role: "user", Content: mensagem})
	return messages, loadedID
}

// parseToolArgs decodes a tool call's argument text leniently:
// malformed JSON yields an empty argument set so the dispatch still
// happens and the model can recover from the error payload.
func (s *Service) parseToolArgs(name, raw string) map[string]any {
	var args map[string]any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			s.logger.Warn("argumentos de tool malformados", "tool", name, "error", err)
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args
}

// ProcessarMensagem runs one blocking agent turn: up to maxToolRounds
// provider/tool exchanges, then a forced tool-disabled synthesis call
// if no text was produced, then transcript persistence. If even the
// synthesis call yields no text, a generic fallback sentence is
// returned in its place.
func (s *Service) ProcessarMensagem(ctx context.Context, colaboradorID, mensagem, conversaID string) (*Resposta, error) {
	dispatcher := tools.NewDispatcher(s.registry, colaboradorID)
	messages, loadedID := s.seedMessages(colaboradorID, mensagem, conversaID)

	total := 0
	respostaFinal := ""

	for round := 0; round < s.maxToolRounds; round++ {
		trimmed := trimMessages(messages, s.historyBudget)

		resp, err := s.client.Chat(ctx, trimmed, s.registry.List(), s.maxTokens)
		if err != nil {
			s.logger.Error("erro na chamada ao provedor", "round", round, "error", err)
			return nil, fmt.Errorf("provider call: %w", err)
		}
		total += resp.TotalTokens()

		s.logger.Info("round concluído",
			"round", round,
			"finish_reason", resp.FinishReason,
			"content_len", len(resp.Message.Content),
			"tool_calls", len(resp.Message.ToolCalls))

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Message.Content,
			ToolCalls: resp.Message.ToolCalls,
		})
		if resp.Message.Content != "" {
			respostaFinal = resp.Message.Content
		}

		if len(resp.Message.ToolCalls) == 0 {
			break
		}

		for _, tc := range resp.Message.ToolCalls {
			args := s.parseToolArgs(tc.Function.Name, tc.Function.Arguments)
			s.logger.Info("executando tool", "tool", tc.Function.Name)
			result := dispatcher.Dispatch(ctx, tc.Function.Name, args)
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    result,
			})
		}
	}

	if respostaFinal == "" {
		s.logger.Info("sem resposta de texto após rounds de tools, forçando síntese final")
		messages = append(messages, llm.Message{Role: "user", Content: prompts.SynthesisNudge})
		trimmed := trimMessages(messages, s.historyBudget)

		resp, err := s.client.Chat(ctx, trimmed, nil, s.maxTokens)
		if err != nil {
			s.logger.Error("erro na síntese final", "error", err)
		} else {
			total += resp.TotalTokens()
			if resp.Message.Content != "" {
				respostaFinal = resp.Message.Content
				messages = append(messages, llm.Message{Role: "assistant", Content: resp.Message.Content})
			}
		}
	}
	if respostaFinal == "" {
		respostaFinal = prompts.EmptyResponseFallback
	}

	transcript := simplifyTranscript(messages)
	savedID, err := s.store.SaveConversa(loadedID, colaboradorID, transcript, total)
	if err != nil {
		return nil, fmt.Errorf("save conversa: %w", err)
	}

	return &Resposta{
		Resposta:   respostaFinal,
		ConversaID: savedID,
		Tokens:     total,
	}, nil
}

// simplifyTranscript reduces the working history to the persisted
// form: every user turn plus non-empty assistant turns. System and
// tool messages are dropped.
func simplifyTranscript(messages []llm.Message) []store.Turno {
	var out []store.Turno
	for _, m := range messages {
		switch m.Role {
		case "user":
			out = append(out, store.Turno{Role: "user", Content: m.Content})
		case "assistant":
			if m.Content != "" {
				out = append(out, store.Turno{Role: "assistant", Content: m.Content})
			}
		}
	}
	return out
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
