package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"claude-adapter-go/internal/anthropic"
)

const xmlToolCallingFormatMarker = "# TOOL CALLING FORMAT"

// GenerateXMLToolInstructions renders the prompt contract injected into the
// system message for backends without native function calling (4.E). An
// empty tools list yields an empty string — no contract is injected.
func GenerateXMLToolInstructions(defs []anthropic.ToolDefinition) string {
	if len(defs) == 0 {
		return ""
	}

	var toolDefs []string
	for _, d := range defs {
		schema := prettyJSON(d.InputSchema)
		toolDefs = append(toolDefs, fmt.Sprintf("- **%s**: %s\n  Parameters: %s", d.Name, html.EscapeString(d.Description), schema))
	}
	toolsList := strings.Join(toolDefs, "\n\n")

	return xmlToolCallingFormatMarker + `

You are required to use tools to fetch information or perform actions.
To invoke a tool, you MUST use the following EXACT XML format.
ANY deviation from this format will cause the tool call to fail.

<tool_code name="TOOL_NAME">
{"argument_name": "value"}
</tool_code>

## CRITICAL EXECUTION RULES:
1. **NO Markdown**: Do NOT wrap the XML in ` + "```xml" + ` or ` + "```" + ` code blocks. Output the raw XML tags directly.
2. **Valid JSON**: The content between the tags MUST be valid, parseable JSON.
   - Use double quotes for keys and string values.
   - No trailing commas.
   - No comments using // or /*.
3. **Exact Name Match**: The ` + "`name`" + ` attribute MUST match a tool name from the "Available Tools" list exactly (case-sensitive).
4. **No Nested Content**: The JSON parameters must be the direct child of ` + "`tool_code`" + `. Do not nest another ` + "`tool`" + ` or ` + "`function`" + ` tag inside.
5. **Thinking**: If you need to think or explain your reasoning, do so in text BEFORE the ` + "`<tool_code>`" + ` block. Do NOT put thoughts inside the tool code.
6. **Multiple Tools**: You may call multiple tools in sequence by outputting multiple ` + "`<tool_code>`" + ` blocks.
7. **Tool Outputs**: Tool results will be provided to you in the following format:
<tool_output>
{result_json_or_text}
</tool_output>

## EXAMPLE (Correct):
Thinking: I need to read the file.
<tool_code name="Read">
{"file_path": "src/utils.go"}
</tool_code>

## EXAMPLES (Incorrect - DO NOT USE):
Wrapped in code blocks:
` + "```xml" + `
<tool_code name="Read">...</tool_code>
` + "```" + `

Nested tags:
<tool_code><tool name="Read">...</tool></tool_code>

Invalid JSON (keys not quoted):
<tool_code name="Read">
{file_path: "src/utils.go"}
</tool_code>

## Available Tools:

` + toolsList + "\n"
}

// HasXMLToolInstructions reports whether systemPrompt already carries the
// XML tool-calling contract, so the request translator never injects it
// twice.
func HasXMLToolInstructions(systemPrompt string) bool {
	return strings.Contains(systemPrompt, xmlToolCallingFormatMarker) && strings.Contains(systemPrompt, "<tool_code")
}

func prettyJSON(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "  ", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
