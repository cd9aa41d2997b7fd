package translate

import (
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestFitContextWindow_NoLimitPassesThrough(t *testing.T) {
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}}
	got, maxTokens := fitContextWindow(msgs, 100, nil)
	if len(got) != 1 || maxTokens != 100 {
		t.Errorf("expected passthrough, got %v maxTokens=%d", got, maxTokens)
	}
}

func TestFitContextWindow_CapsMaxTokens(t *testing.T) {
	w := 4096
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "short message"}}
	_, maxTokens := fitContextWindow(msgs, 8000, &w)
	if maxTokens > w-framingReserve {
		t.Errorf("maxTokens %d exceeds cap %d", maxTokens, w-framingReserve)
	}
	if maxTokens != 3840 {
		t.Errorf("maxTokens = %d, want 3840 (4096-256)", maxTokens)
	}
}

func TestFitContextWindow_DropsOldestMessages(t *testing.T) {
	w := 4096
	var msgs []openai.ChatCompletionMessage
	for i := 0; i < 200; i++ {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: strings.Repeat("word ", 50),
		})
	}
	got, maxTokens := fitContextWindow(msgs, 8000, &w)

	budget := w - maxTokens - framingReserve
	if estimateTotalTokens(got) > budget {
		t.Errorf("remaining estimate %d exceeds budget %d", estimateTotalTokens(got), budget)
	}
	if len(got) >= len(msgs) {
		t.Errorf("expected messages to be dropped, got %d of %d", len(got), len(msgs))
	}
	// The retained messages must be the most recent suffix.
	if len(got) > 0 && got[len(got)-1].Content != msgs[len(msgs)-1].Content {
		t.Errorf("retained tail does not match the most recent message")
	}
}

func TestFitContextWindow_KeepsSystemMessagesInOrder(t *testing.T) {
	w := 4096
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "sys"},
	}
	for i := 0; i < 200; i++ {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: strings.Repeat("word ", 50),
		})
	}
	got, _ := fitContextWindow(msgs, 8000, &w)
	if len(got) == 0 || got[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("system message must be retained first, got %v", got)
	}
}

func TestEstimateTextTokens(t *testing.T) {
	if got := estimateTextTokens(""); got != 1 {
		t.Errorf("empty string estimate = %d, want 1 (max(1,...))", got)
	}
	if got := estimateTextTokens("hello"); got != 2 {
		t.Errorf("estimateTextTokens(hello) = %d, want 2 (ceil(5*2/5))", got)
	}
}
