package engine

import (
	"context"

	"github.com/driplinehq/dripline-backend/internal/provider"
)

// ChunkResult is the outcome of one batch-push call.
type ChunkResult struct {
	RecipientIDs []string
	Err          error
}

// DispatchOutcome reports per-chunk results. Callers map successful chunks
// back to the entities they must mark; a failed chunk's recipients are
// simply left unmarked.
type DispatchOutcome struct {
	Chunks []ChunkResult
}

// DeliveredIDs returns every recipient in a chunk that succeeded.
func (o DispatchOutcome) DeliveredIDs() []string {
	ids := []string{}
	for _, c := range o.Chunks {
		if c.Err == nil {
			ids = append(ids, c.RecipientIDs...)
		}
	}
	return ids
}

// Failed reports whether any chunk failed.
func (o DispatchOutcome) Failed() bool {
	return o.FirstError() != nil
}

func (o DispatchOutcome) FirstError() error {
	for _, c := range o.Chunks {
		if c.Err != nil {
			return c.Err
		}
	}
	return nil
}

// Dispatcher partitions a recipient list into provider-sized chunks and
// pushes them sequentially. A chunk failure is recorded and the remaining
// chunks still go out; each chunk is its own unit of work.
type Dispatcher struct {
	ChunkSize int
}

func NewDispatcher(chunkSize int) *Dispatcher {
	if chunkSize <= 0 {
		chunkSize = provider.DefaultBatchLimit
	}
	return &Dispatcher{ChunkSize: chunkSize}
}

func (d *Dispatcher) Dispatch(ctx context.Context, gw provider.Gateway, recipientIDs []string, text string) DispatchOutcome {
	outcome := DispatchOutcome{}
	for start := 0; start < len(recipientIDs); start += d.ChunkSize {
		end := start + d.ChunkSize
		if end > len(recipientIDs) {
			end = len(recipientIDs)
		}
		chunk := recipientIDs[start:end]

		// Cancellation is honored between chunks only: an in-flight push is
		// allowed to finish so a chunk is never half-committed by us.
		if err := ctx.Err(); err != nil {
			outcome.Chunks = append(outcome.Chunks, ChunkResult{RecipientIDs: chunk, Err: err})
			continue
		}

		err := gw.PushBatch(ctx, chunk, text)
		outcome.Chunks = append(outcome.Chunks, ChunkResult{RecipientIDs: chunk, Err: err})
	}
	return outcome
}
