// Package provider wraps the remote messaging provider's push API. The wire
// protocol is not modelled here beyond a minimal JSON POST; callers see a
// Gateway that either delivered a message or returned an opaque error.
package provider

import (
	"context"
	"fmt"
)

// DefaultBatchLimit is the provider's maximum recipient count per batch-push
// call. The dispatcher never hands a Gateway a larger chunk.
const DefaultBatchLimit = 150

// Gateway is the outbound push transport. Errors are opaque: rate limits,
// invalid recipients and transport failures all surface the same way and the
// engine treats them uniformly as "dispatch failed".
type Gateway interface {
	// PushBatch delivers text to up to DefaultBatchLimit recipients in one call.
	PushBatch(ctx context.Context, recipientIDs []string, text string) error
	// PushOne delivers text to a single recipient.
	PushOne(ctx context.Context, recipientID string, text string) error
}

// Error is a provider-reported failure. Code is whatever the provider
// returned (HTTP status for the HTTP gateway); the engine does not inspect it.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}
