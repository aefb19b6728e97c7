package domain

// AnswerEventType discriminates events on a streamed answer.
type AnswerEventType string

// Answer event types.
const (
	// AnswerDelta carries an incremental fragment of answer text.
	AnswerDelta AnswerEventType = "delta"

	// AnswerDone marks the end of the stream.
	AnswerDone AnswerEventType = "done"

	// AnswerError carries an upstream or credential error. It is
	// always the last event on the stream.
	AnswerError AnswerEventType = "error"
)

// AnswerEvent is one unit of a streamed answer. Events are transient
// and never persisted.
type AnswerEvent struct {
	// Type discriminates the event.
	Type AnswerEventType

	// Content is the text fragment for delta events. The first delta
	// of every stream is synthetic and empty, signalling that
	// generation has started.
	Content string

	// Err describes the failure for error events.
	Err string
}

// Delta builds a delta event carrying a text fragment.
func Delta(content string) AnswerEvent {
	return AnswerEvent{Type: AnswerDelta, Content: content}
}

// Done builds the terminal event.
func Done() AnswerEvent {
	return AnswerEvent{Type: AnswerDone}
}

// ErrorEvent builds an error event.
func ErrorEvent(msg string) AnswerEvent {
	return AnswerEvent{Type: AnswerError, Err: msg}
}
