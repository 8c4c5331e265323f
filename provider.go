package scribe

import "context"

// Provider is a strategy pattern interface for language model backends.
// Complete sends a request and blocks until the full reply is available or
// ctx is done.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Response is a finished model reply.
type Response struct {
	Text       string
	StopReason StopReason
	// RawStopReason is the provider's own stop reason string.
	RawStopReason string
	Usage         Usage
}
