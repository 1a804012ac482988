package agent

import "github.com/tadeuscofield/NutriOffShore/internal/llm"

// estimateTokens approximates a message's token cost as one token per
// four characters, counting tool call names and argument text.
func estimateTokens(m llm.Message) int {
	n := len(m.Content)
	for _, tc := range m.ToolCalls {
		n += len(tc.Function.Name) + len(tc.Function.Arguments)
	}
	return (n + 3) / 4
}

func totalTokens(messages []llm.Message) int {
	total := 0
	for _, m := range messages {
		total += estimateTokens(m)
	}
	return total
}

// trimMessages applies a token-aware sliding window. The system
// message (index 0) is always kept, then messages are admitted newest
// first until the budget runs out, stopping at the first message that
// does not fit. The most recent user message is kept even when over
// budget. Chronological order is preserved in the result.
//
// A dropped tool result can leave a kept assistant message referencing
// a tool_call_id with no matching tool message; the provider tolerates
// the orphan reference.
func trimMessages(messages []llm.Message, maxTokens int) []llm.Message {
	if totalTokens(messages) <= maxTokens {
		return messages
	}

	var system *llm.Message
	candidates := messages
	if len(messages) > 0 && messages[0].Role == "system" {
		system = &messages[0]
		candidates = messages[1:]
	}

	lastUserIdx := -1
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].Role == "user" {
			lastUserIdx = i
			break
		}
	}

	budget := maxTokens
	if system != nil {
		budget -= estimateTokens(*system)
	}

	var kept []llm.Message
	keptLastUser := false
	for i := len(candidates) - 1; i >= 0; i-- {
		cost := estimateTokens(candidates[i])
		if budget-cost < 0 {
			break
		}
		kept = append(kept, candidates[i])
		budget -= cost
		if i == lastUserIdx {
			keptLastUser = true
		}
	}

	// Restore chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	if lastUserIdx >= 0 && !keptLastUser {
		kept = append(kept, candidates[lastUserIdx])
	}

	trimmed := make([]llm.Message, 0, len(kept)+1)
	if system != nil {
		trimmed = append(trimmed, *system)
	}
	trimmed = append(trimmed, kept...)
	return trimmed
}
