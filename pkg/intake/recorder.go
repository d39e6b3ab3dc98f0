package intake

import "context"

// Recorder persists WriteRequests and reports exactly one Outcome per request.
type Recorder interface {
	// Record blocks until the request reaches a terminal Outcome.
	Record(ctx context.Context, req WriteRequest) Outcome

	// Submit starts the write and returns a channel that receives the Outcome
	// once and is then closed.
	Submit(ctx context.Context, req WriteRequest) <-chan Outcome
}
