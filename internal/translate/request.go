// Package translate implements the bidirectional protocol translation
// described in 4.B (request), 4.C (non-streaming response), and 4.D
// (streaming re-framer).
package translate

import (
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"

	"claude-adapter-go/internal/anthropic"
	"claude-adapter-go/internal/tools"
)

// claudeCodeIdentifier is the only literal textual rewrite the translator
// performs on the system prompt.
const claudeCodeIdentifier = "You are Claude Code, Anthropic's official CLI for Claude."

const adapterBrandedIdentifier = "You are an AI coding assistant speaking through claude-adapter-go, a local Anthropic-to-OpenAI translation gateway."

// ToolFormat selects how tool calls are represented to the upstream model.
type ToolFormat string

const (
	ToolFormatNative ToolFormat = "native"
	ToolFormatXML    ToolFormat = "xml"
)

// Options carries the per-request configuration the translator needs
// beyond the MessageRequest itself.
type Options struct {
	ConcreteModel    string
	ToolFormat       ToolFormat
	MaxContextWindow *int // nil means unbounded
}

// Request builds the upstream ChatRequest from a validated MessageRequest.
func Request(req *anthropic.MessageRequest, opts Options) openai.ChatCompletionRequest {
	dedup := tools.NewIDDedupContext()

	systemText := buildSystemText(req.System)
	systemText = strings.ReplaceAll(systemText, claudeCodeIdentifier, adapterBrandedIdentifier)

	if opts.ToolFormat == ToolFormatXML && len(req.Tools) > 0 && !tools.HasXMLToolInstructions(systemText) {
		contract := tools.GenerateXMLToolInstructions(req.Tools)
		if systemText != "" {
			systemText = systemText + "\n" + contract
		} else {
			systemText = contract
		}
	}

	var messages []openai.ChatCompletionMessage
	if systemText != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemText,
		})
	}

	for _, m := range req.Messages {
		messages = append(messages, convertMessage(m, opts.ToolFormat, dedup)...)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 1 {
		maxTokens = 32
	}

	var temperature float32
	hasTemperature := req.Temperature != nil
	if hasTemperature {
		temperature = float32(*req.Temperature)
	}
	if opts.ToolFormat == ToolFormatXML {
		temperature = 0
		hasTemperature = true
	}

	messages, maxTokens = fitContextWindow(messages, maxTokens, opts.MaxContextWindow)

	out := openai.ChatCompletionRequest{
		Model:     opts.ConcreteModel,
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    req.Stream,
	}
	if hasTemperature {
		out.Temperature = temperature
	}
	if req.TopP != nil {
		out.TopP = float32(*req.TopP)
	}
	if len(req.StopSequences) > 0 {
		out.Stop = req.StopSequences
	}
	if req.Stream {
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	if opts.ToolFormat == ToolFormatNative {
		if len(req.Tools) > 0 {
			out.Tools = convertToolsToSDK(req.Tools)
		}
		if req.ToolChoice != nil {
			out.ToolChoice = tools.ConvertToolChoice(req.ToolChoice)
		}
	}

	return out
}

func buildSystemText(system *anthropic.TextOrBlocks) string {
	if system == nil {
		return ""
	}
	if system.IsString {
		return system.Text
	}
	parts := make([]string, 0, len(system.Blocks))
	for _, b := range system.Blocks {
		if b.Type == anthropic.BlockText {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func convertMessage(m anthropic.Message, format ToolFormat, dedup *tools.IDDedupContext) []openai.ChatCompletionMessage {
	switch m.Role {
	case "user":
		return convertUserMessage(m, format, dedup)
	case "assistant":
		return convertAssistantMessage(m, format, dedup)
	default:
		return nil
	}
}

func convertUserMessage(m anthropic.Message, format ToolFormat, dedup *tools.IDDedupContext) []openai.ChatCompletionMessage {
	if m.Content.IsString {
		return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: m.Content.Text}}
	}

	var textParts []string
	var toolMessages []openai.ChatCompletionMessage
	var xmlToolOutputs []string

	for _, block := range m.Content.Blocks {
		switch block.Type {
		case anthropic.BlockText:
			textParts = append(textParts, block.Text)
		case anthropic.BlockToolResult:
			resolvedID := dedup.Consume(block.ToolUseID)
			content := toolResultText(block)
			if block.IsError {
				content = "Error: " + content
			}
			if format == ToolFormatXML {
				xmlToolOutputs = append(xmlToolOutputs, "<tool_output>\n"+content+"\n</tool_output>")
			} else {
				toolMessages = append(toolMessages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    content,
					ToolCallID: resolvedID,
				})
			}
		}
	}

	var out []openai.ChatCompletionMessage
	combinedText := strings.Join(textParts, "\n")
	if format == ToolFormatXML && len(xmlToolOutputs) > 0 {
		if combinedText != "" {
			combinedText = combinedText + "\n" + strings.Join(xmlToolOutputs, "\n")
		} else {
			combinedText = strings.Join(xmlToolOutputs, "\n")
		}
	}
	if combinedText != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: combinedText})
	}
	out = append(out, toolMessages...)
	return out
}

func toolResultText(block anthropic.ContentBlock) string {
	if len(block.Content) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(block.Content, &asString); err == nil {
		return asString
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(block.Content, &parts); err == nil {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			texts = append(texts, p.Text)
		}
		return strings.Join(texts, "\n")
	}
	return string(block.Content)
}

func convertAssistantMessage(m anthropic.Message, format ToolFormat, dedup *tools.IDDedupContext) []openai.ChatCompletionMessage {
	if m.Content.IsString {
		if isAssistantPrefill(m.Content.Text) {
			return nil
		}
		return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleAssistant, Content: m.Content.Text}}
	}

	var textParts []string
	var toolCalls []openai.ToolCall

	for _, block := range m.Content.Blocks {
		switch block.Type {
		case anthropic.BlockText:
			textParts = append(textParts, block.Text)
		case anthropic.BlockToolUse:
			id := dedup.Encounter(block.ID)
			args := "{}"
			if len(block.Input) > 0 {
				args = string(block.Input)
			}
			if format == ToolFormatXML {
				textParts = append(textParts, "<tool_code name=\""+block.Name+"\">\n"+args+"\n</tool_code>")
			} else {
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   id,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      block.Name,
						Arguments: args,
					},
				})
			}
		}
	}

	text := strings.Join(textParts, "\n")
	if text == "" && len(toolCalls) == 0 {
		return nil
	}
	return []openai.ChatCompletionMessage{{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   text,
		ToolCalls: toolCalls,
	}}
}

var prefillShortlist = map[string]bool{
	"{": true, "[": true, "```": true, `{"`: true, "[{": true,
	"<": true, "<tool_code": true, "<tool_code>": true,
}

// isAssistantPrefill recognizes assistant turns that amount to a "prefill"
// seed the upstream does not support: very short fragments or the start of
// an unterminated tool_code block.
func isAssistantPrefill(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= 2 {
		return true
	}
	if prefillShortlist[trimmed] {
		return true
	}
	if strings.HasPrefix(trimmed, "<tool_code") && !strings.Contains(trimmed, "</tool_code>") {
		return true
	}
	return false
}

func convertToolsToSDK(defs []anthropic.ToolDefinition) []openai.Tool {
	converted := tools.ConvertTools(defs)
	out := make([]openai.Tool, 0, len(converted))
	for _, c := range converted {
		fn := c["function"].(map[string]interface{})
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn["name"].(string),
				Description: fn["description"].(string),
				Parameters:  fn["parameters"],
			},
		})
	}
	return out
}
