// Package anthropic defines the wire types for the Anthropic Messages API
// surface the gateway serves: requests and responses it parses and emits,
// not a client of the real Anthropic API.
package anthropic

import "encoding/json"

// ContentBlockType tags the variant carried by a ContentBlock.
type ContentBlockType string

const (
	BlockText       ContentBlockType = "text"
	BlockToolUse    ContentBlockType = "tool_use"
	BlockToolResult ContentBlockType = "tool_result"
)

// ContentBlock is a tagged union over the three block kinds the gateway
// understands. Only one of the type-specific fields is populated, selected
// by Type. Image/vision blocks are out of scope and are never produced;
// if encountered on input they are ignored rather than rejected.
type ContentBlock struct {
	Type ContentBlockType `json:"type"`

	// TextBlock
	Text string `json:"text,omitempty"`

	// ToolUseBlock
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// ToolResultBlock
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// TextOrBlocks carries a field that is either a bare JSON string or an
// ordered array of objects, the shape MessageRequest.System and
// Message.Content both take. Exactly one of Text/Blocks is meaningful,
// selected by IsString.
type TextOrBlocks struct {
	IsString bool
	Text     string
	Blocks   []ContentBlock
}

// UnmarshalJSON accepts either a JSON string or a JSON array.
func (t *TextOrBlocks) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		t.IsString = true
		return json.Unmarshal(data, &t.Text)
	}
	t.IsString = false
	return json.Unmarshal(data, &t.Blocks)
}

// MarshalJSON renders back whichever form was parsed, or a string when
// constructed programmatically with IsString set.
func (t TextOrBlocks) MarshalJSON() ([]byte, error) {
	if t.IsString {
		return json.Marshal(t.Text)
	}
	return json.Marshal(t.Blocks)
}

// Message is one turn of conversation, role user or assistant.
type Message struct {
	Role    string       `json:"role"`
	Content TextOrBlocks `json:"content"`
}

// ToolDefinition describes a tool the client is offering for the model to
// invoke.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolChoiceValue is either the bare strings "auto"/"any" or an object
// naming a specific tool.
type ToolChoiceValue struct {
	Mode string `json:"-"` // "auto", "any", "tool", or "" when absent
	Name string `json:"-"`
}

// UnmarshalJSON accepts a bare string or {"type":"tool","name":...}.
func (c *ToolChoiceValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Mode = s
		return nil
	}
	var obj struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Mode = obj.Type
	c.Name = obj.Name
	return nil
}

// MessageRequest is the inbound body of POST /v1/messages.
type MessageRequest struct {
	Model         string           `json:"model"`
	MaxTokens     int              `json:"max_tokens"`
	Messages      []Message        `json:"messages"`
	System        *TextOrBlocks    `json:"system,omitempty"`
	Temperature   *float64         `json:"temperature,omitempty"`
	TopP          *float64         `json:"top_p,omitempty"`
	StopSequences []string         `json:"stop_sequences,omitempty"`
	Stream        bool             `json:"stream,omitempty"`
	Tools         []ToolDefinition `json:"tools,omitempty"`
	ToolChoice    *ToolChoiceValue `json:"tool_choice,omitempty"`
}

// Usage reports token accounting for a single request/response pair.
type Usage struct {
	InputTokens          int  `json:"input_tokens"`
	OutputTokens         int  `json:"output_tokens"`
	CacheReadInputTokens *int `json:"cache_read_input_tokens,omitempty"`
}

// MessageResponse is the non-streaming reply body.
type MessageResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *string        `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// ErrorBody is the JSON error envelope returned for non-2xx responses.
type ErrorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
