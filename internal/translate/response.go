package translate

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"

	"claude-adapter-go/internal/anthropic"
)

var finishReasonMap = map[openai.FinishReason]string{
	openai.FinishReasonStop:          "end_turn",
	openai.FinishReasonLength:        "max_tokens",
	openai.FinishReasonToolCalls:     "tool_use",
	openai.FinishReasonContentFilter: "end_turn",
}

// mapFinishReason is total: any non-empty, unrecognized reason maps to
// end_turn; an absent reason maps to nil (4.C).
func mapFinishReason(reason openai.FinishReason) *string {
	if reason == "" {
		return nil
	}
	mapped, ok := finishReasonMap[reason]
	if !ok {
		mapped = "end_turn"
	}
	return &mapped
}

// Response builds the non-streaming MessageResponse from an upstream
// completion (4.C). requestedModel is echoed back verbatim, never the
// concrete upstream model name.
func Response(resp openai.ChatCompletionResponse, requestedModel string) anthropic.MessageResponse {
	var content []anthropic.ContentBlock
	var stopReason *string

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		if choice.Message.Content != "" {
			content = append(content, anthropic.ContentBlock{Type: anthropic.BlockText, Text: choice.Message.Content})
		}
		for _, tc := range choice.Message.ToolCalls {
			content = append(content, anthropic.ContentBlock{
				Type:  anthropic.BlockToolUse,
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: parseToolArguments(tc.Function.Arguments),
			})
		}
		stopReason = mapFinishReason(choice.FinishReason)
	}

	return anthropic.MessageResponse{
		ID:         "msg_" + resp.ID,
		Type:       "message",
		Role:       "assistant",
		Content:    content,
		Model:      requestedModel,
		StopReason: stopReason,
		Usage:      convertUsage(resp.Usage),
	}
}

// parseToolArguments parses a JSON-encoded arguments string into a raw
// input object. A parse failure never fails the request: it falls back to
// {"raw": <original string>}.
func parseToolArguments(args string) json.RawMessage {
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(args), &probe); err == nil {
		return probe
	}
	fallback, _ := json.Marshal(map[string]string{"raw": args})
	return fallback
}

func convertUsage(u openai.Usage) anthropic.Usage {
	usage := anthropic.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
	}
	if u.PromptTokensDetails != nil && u.PromptTokensDetails.CachedTokens > 0 {
		cached := u.PromptTokensDetails.CachedTokens
		usage.CacheReadInputTokens = &cached
	}
	return usage
}
