package agent

import (
	"strings"
	"testing"

	"github.com/tadeuscofield/NutriOffShore/internal/llm"
)

func msg(role, content string) llm.Message {
	return llm.Message{Role: role, Content: content}
}

func TestEstimateTokensCountsToolCalls(t *testing.T) {
	m := llm.Message{
		Role:    "assistant",
		Content: "ok",
		ToolCalls: []llm.ToolCall{{
			ID: "call-1",
			Function: llm.FunctionCall{
				Name:      "log_refeicao",
				Arguments: `{"refeicao_tipo":"almoco"}`,
			},
		}},
	}
	// 2 content + 12 name + 26 arguments = 40 chars -> 10 tokens.
	if got := estimateTokens(m); got != 10 {
		t.Errorf("estimateTokens = %d, want 10", got)
	}
}

func TestTrimUnderBudgetIsIdentity(t *testing.T) {
	messages := []llm.Message{
		msg("system", "prompt"),
		msg("user", "oi"),
		msg("assistant", "olá"),
	}
	trimmed := trimMessages(messages, 1000)
	if len(trimmed) != 3 {
		t.Fatalf("got %d messages, want 3 untouched", len(trimmed))
	}
	for i := range messages {
		if trimmed[i].Content != messages[i].Content {
			t.Errorf("message %d changed: %q", i, trimmed[i].Content)
		}
	}
}

func TestTrimKeepsSystemAndDropsOldest(t *testing.T) {
	big := strings.Repeat("x", 400) // 100 tokens each
	messages := []llm.Message{
		msg("system", "sys"),
		msg("user", big),
		msg("assistant", big),
		msg("user", big),
		msg("assistant", big),
		msg("user", big),
	}
	// Budget fits system plus roughly three history messages.
	trimmed := trimMessages(messages, 310)

	if trimmed[0].Role != "system" {
		t.Fatalf("system message not first: %v", trimmed[0].Role)
	}
	// Newest messages survive, chronological order preserved.
	if len(trimmed) != 4 {
		t.Fatalf("got %d messages, want 4", len(trimmed))
	}
	if trimmed[1].Role != "user" || trimmed[2].Role != "assistant" {
		t.Errorf("unexpected order: %s, %s", trimmed[1].Role, trimmed[2].Role)
	}
	if trimmed[len(trimmed)-1].Role != "user" {
		t.Errorf("last message is %s, want the latest user message", trimmed[len(trimmed)-1].Role)
	}
}

func TestTrimAlwaysKeepsLastUserMessage(t *testing.T) {
	huge := strings.Repeat("x", 4000) // 1000 tokens
	messages := []llm.Message{
		msg("system", "sys"),
		msg("assistant", "resposta anterior"),
		msg("user", huge),
	}
	// The last user message alone exceeds the budget but is kept anyway.
	trimmed := trimMessages(messages, 50)

	found := false
	for _, m := range trimmed {
		if m.Role == "user" && m.Content == huge {
			found = true
		}
	}
	if !found {
		t.Error("latest user message was dropped")
	}
}

func TestTrimStopsAtFirstNonFitting(t *testing.T) {
	small := strings.Repeat("a", 40)  // 10 tokens
	large := strings.Repeat("b", 800) // 200 tokens
	messages := []llm.Message{
		msg("system", "sys"),
		msg("user", small),
		msg("assistant", large),
		msg("user", small),
		msg("assistant", small),
	}
	// Walking newest to oldest the large message is the first that does
	// not fit; older small messages are not revisited.
	trimmed := trimMessages(messages, 25)

	for _, m := range trimmed {
		if m.Content == large {
			t.Fatal("large message should have been dropped")
		}
	}
	if len(trimmed) != 3 {
		t.Errorf("got %d messages, want system + two newest", len(trimmed))
	}
}
