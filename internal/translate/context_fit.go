package translate

import (
	"github.com/sashabaranov/go-openai"
)

// framingReserve is the constant R reserved for response framing overhead
// in the context-window budget (4.B).
const framingReserve = 256

const truncationMarker = "\n[... truncated ...]"

// fitContextWindow applies the context-window fitting algorithm when
// maxContextWindow is non-nil. It returns the (possibly trimmed) message
// list and the (possibly capped) max_tokens value. When maxContextWindow is
// nil the inputs pass through unchanged.
func fitContextWindow(messages []openai.ChatCompletionMessage, maxTokens int, maxContextWindow *int) ([]openai.ChatCompletionMessage, int) {
	if maxContextWindow == nil {
		return messages, maxTokens
	}
	w := *maxContextWindow

	tokenCap := w - framingReserve
	if tokenCap < framingReserve {
		tokenCap = framingReserve
	}
	if maxTokens > tokenCap {
		maxTokens = tokenCap
	}

	budget := w - maxTokens - framingReserve
	if budget < 0 {
		budget = 0
	}

	if estimateTotalTokens(messages) <= budget {
		return messages, maxTokens
	}

	systemMsgs, rest := splitSystemMessages(messages)

	if estimateTotalTokens(systemMsgs) > w-512 {
		systemMsgs = truncateLastSystemMessage(systemMsgs, w-512)
	}

	systemBudget := estimateTotalTokens(systemMsgs)
	restBudget := budget - systemBudget
	if restBudget < 0 {
		restBudget = 0
	}

	for estimateTotalTokens(rest) > restBudget && len(rest) > 0 {
		rest = rest[1:]
	}

	return append(systemMsgs, rest...), maxTokens
}

func splitSystemMessages(messages []openai.ChatCompletionMessage) (system, rest []openai.ChatCompletionMessage) {
	for _, m := range messages {
		if m.Role == openai.ChatMessageRoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	return system, rest
}

// truncateLastSystemMessage shortens the final system message character-
// wise using a conservative ratio of 2 characters per token, then appends
// the truncation marker.
func truncateLastSystemMessage(system []openai.ChatCompletionMessage, targetTokens int) []openai.ChatCompletionMessage {
	if len(system) == 0 || targetTokens <= 0 {
		return system
	}
	last := len(system) - 1
	maxChars := targetTokens * 2
	text := system[last].Content
	if len(text) <= maxChars {
		return system
	}
	system[last].Content = text[:maxChars] + truncationMarker
	return system
}

// estimateTotalTokens sums the per-message estimate across a message list.
func estimateTotalTokens(messages []openai.ChatCompletionMessage) int {
	total := 0
	for _, m := range messages {
		total += estimateMessageTokens(m)
	}
	return total
}

// estimateMessageTokens is the deterministic, dependency-free heuristic
// from 4.B: max(1, ceil(len(text)*2/5)) characters-to-tokens, plus 2 tokens
// of overhead per structured content part (here, per tool call).
func estimateMessageTokens(m openai.ChatCompletionMessage) int {
	tokens := estimateTextTokens(m.Content)
	tokens += 2 * len(m.ToolCalls)
	return tokens
}

func estimateTextTokens(text string) int {
	n := len(text)
	estimate := (n*2 + 4) / 5 // ceil(n*2/5)
	if estimate < 1 {
		return 1
	}
	return estimate
}
