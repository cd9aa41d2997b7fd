package anthropic

// Event names carried on the SSE "event:" line.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
)

// MessageStartEvent opens a stream with a skeletal message: empty content,
// zero usage, null stop_reason.
type MessageStartEvent struct {
	Type    string          `json:"type"`
	Message MessageResponse `json:"message"`
}

// ContentBlockStartEvent announces a newly opened content block at a
// stable index.
type ContentBlockStartEvent struct {
	Type         string       `json:"type"`
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

// TextDelta and InputJSONDelta are the two delta payload shapes carried by
// ContentBlockDeltaEvent.Delta.
type TextDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type InputJSONDelta struct {
	Type        string `json:"type"`
	PartialJSON string `json:"partial_json"`
}

// ContentBlockDeltaEvent carries an incremental update to an open block.
// Delta holds either a TextDelta or an InputJSONDelta.
type ContentBlockDeltaEvent struct {
	Type  string      `json:"type"`
	Index int         `json:"index"`
	Delta interface{} `json:"delta"`
}

// ContentBlockStopEvent closes a previously opened block; no further
// deltas are valid for it afterward.
type ContentBlockStopEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// MessageDeltaPayload carries the final stop_reason/stop_sequence and the
// terminal usage snapshot.
type MessageDeltaPayload struct {
	StopReason   *string `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

type MessageDeltaEvent struct {
	Type  string              `json:"type"`
	Delta MessageDeltaPayload `json:"delta"`
	Usage Usage               `json:"usage"`
}

// MessageStopEvent always terminates the stream, even on an error path.
type MessageStopEvent struct {
	Type string `json:"type"`
}
