package domain

import "context"

// DocumentPayload is an encoded reference document ready for inline
// attachment to a generation request. Payload is the base64-encoded file
// content; MIMEType is the declared media type of the source file.
type DocumentPayload struct {
	Payload  string `json:"payload"`
	MIMEType string `json:"mimeType"`
}

// StreamSink receives incremental response text during streaming generation.
// It is invoked once per received chunk, in arrival order; concatenating the
// chunks yields exactly the assembled response text.
type StreamSink func(chunk string)

// QuizGenerator produces a validated card set for a topic, optionally
// grounded on a reference document. Implementations must fail fast, without
// any network call, when no credential is configured, and must never retry a
// failed call.
type QuizGenerator interface {
	// Generate waits for the complete response and returns the parsed cards.
	Generate(ctx context.Context, topic string, doc *DocumentPayload) ([]Card, error)

	// GenerateStream yields response text to sink as it arrives, then
	// parses the assembled text. sink may be nil.
	GenerateStream(ctx context.Context, topic string, doc *DocumentPayload, sink StreamSink) ([]Card, error)
}
