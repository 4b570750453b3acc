package types

// AnswerSource tags where an answer to a question came from
type AnswerSource string

const (
	AnswerSourceKnowledge AnswerSource = "knowledge"
	AnswerSourceAI        AnswerSource = "ai"
)

// String returns the string representation of the answer source
func (s AnswerSource) String() string {
	return string(s)
}

// StreamEventType is the kind of an event in a streamed answer
type StreamEventType string

const (
	StreamEventStart       StreamEventType = "start"
	StreamEventTitle       StreamEventType = "title"
	StreamEventDescription StreamEventType = "description"
	StreamEventStep        StreamEventType = "step"
	StreamEventTips        StreamEventType = "tips"
	StreamEventRelated     StreamEventType = "related"
	StreamEventChunk       StreamEventType = "chunk"
	StreamEventDone        StreamEventType = "done"
	StreamEventError       StreamEventType = "error"
)

// String returns the string representation of the event type
func (t StreamEventType) String() string {
	return string(t)
}

// IsTerminal reports whether no event may follow one of type t
func (t StreamEventType) IsTerminal() bool {
	return t == StreamEventDone || t == StreamEventError
}
