package tools

import (
	"strings"
	"testing"

	"claude-adapter-go/internal/anthropic"
)

func TestGenerateXMLToolInstructions_Empty(t *testing.T) {
	if got := GenerateXMLToolInstructions(nil); got != "" {
		t.Errorf("empty tools list must yield empty contract, got %q", got)
	}
}

func TestGenerateXMLToolInstructions_ListsTools(t *testing.T) {
	defs := []anthropic.ToolDefinition{
		{Name: "read_file", Description: "Reads a file", InputSchema: []byte(`{"type":"object"}`)},
	}
	got := GenerateXMLToolInstructions(defs)

	if !strings.Contains(got, "read_file") {
		t.Errorf("contract missing tool name: %q", got)
	}
	if !strings.Contains(got, "<tool_code name=") {
		t.Errorf("contract missing tool_code example")
	}
	if !HasXMLToolInstructions(got) {
		t.Errorf("HasXMLToolInstructions should detect its own output")
	}
}

func TestHasXMLToolInstructions_FalseWithoutMarker(t *testing.T) {
	if HasXMLToolInstructions("you are a helpful assistant") {
		t.Errorf("plain prompt must not be detected as carrying the contract")
	}
}
