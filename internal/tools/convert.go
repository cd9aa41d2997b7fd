package tools

import (
	"encoding/json"

	"claude-adapter-go/internal/anthropic"
)

// ConvertToolChoice maps an Anthropic tool_choice value to the OpenAI
// shape. "auto" -> "auto", "any" -> "required", {type:tool,name} ->
// {type:function,function:{name}}, anything else -> "auto".
func ConvertToolChoice(choice *anthropic.ToolChoiceValue) interface{} {
	if choice == nil {
		return nil
	}
	switch choice.Mode {
	case "auto":
		return "auto"
	case "any":
		return "required"
	case "tool":
		return map[string]interface{}{
			"type": "function",
			"function": map[string]string{
				"name": choice.Name,
			},
		}
	default:
		return "auto"
	}
}

// ConvertTools builds the native-mode {type:function, function:{...}}
// entries for each declared ToolDefinition. The JSON Schema in
// ToolDefinition.InputSchema is passed through unmodified as the
// function's parameters — no Go struct validates or reshapes it, matching
// the spec's "arbitrary JSON Schema object" contract.
func ConvertTools(defs []anthropic.ToolDefinition) []map[string]interface{} {
	if len(defs) == 0 {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(defs))
	for _, d := range defs {
		var params interface{} = map[string]interface{}{}
		if len(d.InputSchema) > 0 {
			params = json.RawMessage(d.InputSchema)
		}
		out = append(out, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  params,
			},
		})
	}
	return out
}
