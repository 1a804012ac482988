package agent

import (
	"context"

	"github.com/tadeuscofield/NutriOffShore/internal/llm"
	"github.com/tadeuscofield/NutriOffShore/internal/prompts"
	"github.com/tadeuscofield/NutriOffShore/internal/tools"
)

// Event types emitted on the streaming path.
const (
	EventText     = "text"
	EventToolCall = "tool_call"
	EventError    = "error"
	EventDone     = "done"
)

// Event is one element of the streaming response sequence.
type Event struct {
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
	Tool       string `json:"tool,omitempty"`
	ConversaID string `json:"conversa_id,omitempty"`
}

// ProcessarMensagemStream runs one agent turn emitting events as they
// happen: text deltas while the provider streams, a tool_call event
// before each dispatch, a terminal error event on provider failure and
// a done event carrying the conversation id after persistence.
//
// Failures surface as events rather than a return value. A provider
// failure ends the sequence after a best-effort save of the progress
// made so far; a persistence failure is logged and suppresses the done
// event.
func (s *Service) ProcessarMensagemStream(ctx context.Context, colaboradorID, mensagem, conversaID string, emit func(Event)) {
	dispatcher := tools.NewDispatcher(s.registry, colaboradorID)
	messages, loadedID := s.seedMessages(colaboradorID, mensagem, conversaID)

	hadText := false
	total := 0

	for round := 0; round < s.maxToolRounds; round++ {
		trimmed := trimMessages(messages, s.historyBudget)
		s.logger.Info("stream round", "round", round, "messages", len(trimmed))

		resp, err := s.client.ChatStream(ctx, trimmed, s.registry.List(), s.streamMaxTokens, func(delta string) {
			emit(Event{Type: EventText, Content: delta})
		})
		if err != nil {
			s.logger.Error("erro na chamada ao provedor (stream)", "round", round, "error", err)
			emit(Event{Type: EventError, Content: streamErrorMessage(err)})
			s.salvarParcial(loadedID, colaboradorID, messages, total)
			return
		}
		total += resp.TotalTokens()

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Message.Content,
			ToolCalls: resp.Message.ToolCalls,
		})
		if resp.Message.Content != "" {
			hadText = true
		}

		if len(resp.Message.ToolCalls) == 0 {
			break
		}

		for _, tc := range resp.Message.ToolCalls {
			emit(Event{Type: EventToolCall, Tool: tc.Function.Name})
			args := s.parseToolArgs(tc.Function.Name, tc.Function.Arguments)
			result := dispatcher.Dispatch(ctx, tc.Function.Name, args)
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    result,
			})
		}
	}

	if !hadText {
		s.logger.Info("stream sem texto após rounds de tools, forçando síntese final")
		messages = append(messages, llm.Message{Role: "user", Content: prompts.StreamSynthesisNudge})
		trimmed := trimMessages(messages, s.historyBudget)

		resp, err := s.client.ChatStream(ctx, trimmed, nil, s.streamMaxTokens, func(delta string) {
			hadText = true
			emit(Event{Type: EventText, Content: delta})
		})
		if err != nil {
			s.logger.Error("erro na síntese final (stream)", "error", err)
		} else {
			total += resp.TotalTokens()
			if resp.Message.Content != "" {
				hadText = true
			}
		}
	}

	if !hadText {
		emit(Event{Type: EventText, Content: prompts.EmptyResponseFallback})
	}

	transcript := simplifyTranscript(messages)
	savedID, err := s.store.SaveConversa(loadedID, colaboradorID, transcript, total)
	if err != nil {
		s.logger.Error("erro salvando conversa (stream)", "error", err)
		return
	}
	emit(Event{Type: EventDone, ConversaID: savedID})
}

// salvarParcial persists whatever the turn accumulated before a
// provider failure cut it short. The user message and any completed
// tool rounds are worth keeping even without a final answer.
func (s *Service) salvarParcial(loadedID, colaboradorID string, messages []llm.Message, total int) {
	transcript := simplifyTranscript(messages)
	if _, err := s.store.SaveConversa(loadedID, colaboradorID, transcript, total); err != nil {
		s.logger.Error("erro salvando conversa parcial (stream)", "error", err)
	}
}

// streamErrorMessage maps provider failures to end-user text. Rate
// limiting on the free tier gets its own message.
func streamErrorMessage(err error) string {
	if llm.IsRateLimited(err) {
		return prompts.RateLimitMessage
	}
	return "Erro ao conectar com a IA: " + truncateError(err)
}
