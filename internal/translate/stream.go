package translate

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"claude-adapter-go/internal/anthropic"
)

// EventSink receives one re-framed Anthropic SSE event. eventType is one of
// the anthropic.Event* constants; payload is the event's JSON body.
// Implementations are responsible for the wire framing
// (`event: TYPE\ndata: JSON\n\n`) and for flushing to the client.
type EventSink func(eventType string, payload interface{}) error

type blockKind int

const (
	kindText blockKind = iota
	kindToolUse
)

type openBlock struct {
	kind blockKind
}

type streamState struct {
	blocks       []openBlock
	toolIndex    map[int]int // upstream tool-call delta index -> block position
	usage        *anthropic.Usage
	finishedOnce bool
}

// rawChunk mirrors an upstream SSE data frame loosely enough to detect a
// heterogeneous {"error": {...}} payload that a strongly-typed OpenAI
// response struct would silently drop (see SPEC_FULL.md 4.D).
type rawChunk struct {
	Choices []rawChoice     `json:"choices"`
	Usage   *rawUsage       `json:"usage"`
	Error   json.RawMessage `json:"error,omitempty"`
}

type rawChoice struct {
	Delta        rawDelta `json:"delta"`
	FinishReason string   `json:"finish_reason"`
}

type rawDelta struct {
	Content   string              `json:"content"`
	ToolCalls []rawToolCallDelta  `json:"tool_calls"`
}

type rawToolCallDelta struct {
	Index    int `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type rawUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type rawErrorObject struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Stream re-frames an upstream OpenAI-shaped SSE body (4.D) into Anthropic
// SSE events, delivered one at a time to emit. It never returns an error
// for malformed upstream content — upstream failures are converted to a
// terminal error event per step 2b. The only errors Stream returns are
// from emit itself (a client write failure / cancellation), in which case
// the caller should tear down the upstream read.
func Stream(body io.Reader, requestID, requestedModel string, emit EventSink) error {
	state := &streamState{toolIndex: make(map[int]int)}

	if err := emitMessageStart(requestID, requestedModel, emit); err != nil {
		return err
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return finishNormally(state, emit)
		}

		var chunk rawChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // malformed JSON in an individual chunk is silently skipped
		}

		if errObj, isError := apiErrorShape(chunk.Error); isError {
			return emitErrorTail(state, errObj.Message, emit)
		}

		if chunk.Usage != nil {
			state.usage = &anthropic.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			if err := emitTextDelta(state, choice.Delta.Content, emit); err != nil {
				return err
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			if err := emitToolCallDelta(state, tc, emit); err != nil {
				return err
			}
		}
		if choice.FinishReason != "" && !state.finishedOnce {
			state.finishedOnce = true
			if err := closeAllBlocks(state, emit); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return emitErrorTail(state, err.Error(), emit)
	}
	return finishNormally(state, emit)
}

func apiErrorShape(raw json.RawMessage) (rawErrorObject, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return rawErrorObject{}, false
	}
	var obj rawErrorObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return rawErrorObject{}, false
	}
	if obj.Message == "" && obj.Type == "" {
		return rawErrorObject{}, false
	}
	return obj, true
}

func emitMessageStart(requestID, requestedModel string, emit EventSink) error {
	skeleton := anthropic.MessageResponse{
		ID:      requestID,
		Type:    "message",
		Role:    "assistant",
		Content: []anthropic.ContentBlock{},
		Model:   requestedModel,
		Usage:   anthropic.Usage{},
	}
	return emit(anthropic.EventMessageStart, anthropic.MessageStartEvent{
		Type:    anthropic.EventMessageStart,
		Message: skeleton,
	})
}

func emitTextDelta(state *streamState, text string, emit EventSink) error {
	if len(state.blocks) == 0 || state.blocks[len(state.blocks)-1].kind != kindText {
		index := len(state.blocks)
		state.blocks = append(state.blocks, openBlock{kind: kindText})
		if err := emit(anthropic.EventContentBlockStart, anthropic.ContentBlockStartEvent{
			Type:         anthropic.EventContentBlockStart,
			Index:        index,
			ContentBlock: anthropic.ContentBlock{Type: anthropic.BlockText, Text: ""},
		}); err != nil {
			return err
		}
	}
	index := len(state.blocks) - 1
	return emit(anthropic.EventContentBlockDelta, anthropic.ContentBlockDeltaEvent{
		Type:  anthropic.EventContentBlockDelta,
		Index: index,
		Delta: anthropic.TextDelta{Type: "text_delta", Text: text},
	})
}

func emitToolCallDelta(state *streamState, tc rawToolCallDelta, emit EventSink) error {
	blockIdx, known := state.toolIndex[tc.Index]
	if !known {
		blockIdx = len(state.blocks)
		state.blocks = append(state.blocks, openBlock{kind: kindToolUse})
		state.toolIndex[tc.Index] = blockIdx
		if err := emit(anthropic.EventContentBlockStart, anthropic.ContentBlockStartEvent{
			Type:  anthropic.EventContentBlockStart,
			Index: blockIdx,
			ContentBlock: anthropic.ContentBlock{
				Type:  anthropic.BlockToolUse,
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: json.RawMessage("{}"),
			},
		}); err != nil {
			return err
		}
	}
	if tc.Function.Arguments == "" {
		return nil
	}
	return emit(anthropic.EventContentBlockDelta, anthropic.ContentBlockDeltaEvent{
		Type:  anthropic.EventContentBlockDelta,
		Index: blockIdx,
		Delta: anthropic.InputJSONDelta{Type: "input_json_delta", PartialJSON: tc.Function.Arguments},
	})
}

func closeAllBlocks(state *streamState, emit EventSink) error {
	for i := range state.blocks {
		if err := emit(anthropic.EventContentBlockStop, anthropic.ContentBlockStopEvent{
			Type:  anthropic.EventContentBlockStop,
			Index: i,
		}); err != nil {
			return err
		}
	}
	return nil
}

func finishNormally(state *streamState, emit EventSink) error {
	if state.usage != nil {
		stopReason := "end_turn"
		if err := emit(anthropic.EventMessageDelta, anthropic.MessageDeltaEvent{
			Type:  anthropic.EventMessageDelta,
			Delta: anthropic.MessageDeltaPayload{StopReason: &stopReason, StopSequence: nil},
			Usage: *state.usage,
		}); err != nil {
			return err
		}
	}
	return emit(anthropic.EventMessageStop, anthropic.MessageStopEvent{Type: anthropic.EventMessageStop})
}

func emitErrorTail(state *streamState, message string, emit EventSink) error {
	index := len(state.blocks)
	state.blocks = append(state.blocks, openBlock{kind: kindText})

	if err := emit(anthropic.EventContentBlockStart, anthropic.ContentBlockStartEvent{
		Type:         anthropic.EventContentBlockStart,
		Index:        index,
		ContentBlock: anthropic.ContentBlock{Type: anthropic.BlockText, Text: "Error: " + message},
	}); err != nil {
		return err
	}
	if err := emit(anthropic.EventContentBlockStop, anthropic.ContentBlockStopEvent{
		Type:  anthropic.EventContentBlockStop,
		Index: index,
	}); err != nil {
		return err
	}

	stopReason := "error"
	usage := anthropic.Usage{}
	if state.usage != nil {
		usage = *state.usage
	}
	if err := emit(anthropic.EventMessageDelta, anthropic.MessageDeltaEvent{
		Type:  anthropic.EventMessageDelta,
		Delta: anthropic.MessageDeltaPayload{StopReason: &stopReason, StopSequence: nil},
		Usage: usage,
	}); err != nil {
		return err
	}
	return emit(anthropic.EventMessageStop, anthropic.MessageStopEvent{Type: anthropic.EventMessageStop})
}
