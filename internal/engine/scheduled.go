package engine

import (
	"context"
	"time"

	"github.com/driplinehq/dripline-backend/internal/events"
	"github.com/driplinehq/dripline-backend/internal/model"
	"github.com/driplinehq/dripline-backend/internal/provider"
	"github.com/driplinehq/dripline-backend/internal/segment"
)

// EvaluateScheduledSends dispatches every pending send whose fire time has
// passed. It runs every cycle; there is no daily guard here.
//
// Each send transitions exactly once, to sent or to error, and the
// transitions are independent: one send's failure never blocks or rolls
// back another's success. An errored send is terminal and must be
// re-created by an operator; auto-retrying a human-authored broadcast
// risks delivering it twice.
func (e *Engine) EvaluateScheduledSends(ctx context.Context, gw provider.Gateway, now time.Time) (EvaluationReport, error) {
	report := EvaluationReport{}

	due, err := e.Sends.ListDue(now.UTC())
	if err != nil {
		return report, err
	}

	for i := range due {
		send := &due[i]
		report.Evaluated++

		ids, err := e.resolveTarget(send)
		if err != nil {
			// Directory read failure, not a provider failure: leave the send
			// pending so the next cycle picks it up again.
			e.Log.Error().Err(err).Str("send", send.ID).Msg("failed to resolve send target")
			continue
		}

		delivered, dispatchErr := e.dispatchSend(ctx, gw, send, ids)
		if dispatchErr != nil {
			report.Failures++
			e.Log.Warn().Err(dispatchErr).Str("send", send.ID).Msg("scheduled send failed")
			if err := e.Sends.MarkError(send.ID, dispatchErr.Error()); err != nil {
				e.Log.Error().Err(err).Str("send", send.ID).Msg("failed to mark send error")
			}
			e.publish(events.KindScheduledSend, send.ID, delivered, dispatchErr)
			continue
		}

		deliveredAt := time.Now().UTC()
		if err := e.Sends.MarkSent(send.ID, deliveredAt); err != nil {
			// Provider accepted the push but the status write failed. The
			// send stays pending and will be dispatched again next cycle;
			// that duplicate risk is preferred over silently dropping it.
			e.Log.Error().Err(err).Str("send", send.ID).Msg("failed to mark send sent")
			continue
		}
		if err := e.Sends.AppendHistory(send.ID, delivered, send.MessageText, deliveredAt); err != nil {
			e.Log.Error().Err(err).Str("send", send.ID).Msg("failed to append send history")
		}
		report.Dispatched += delivered
		e.publish(events.KindScheduledSend, send.ID, delivered, nil)
	}

	return report, nil
}

// resolveTarget maps the send to concrete recipient IDs: the single target
// for an addressed send, or the segment resolution otherwise.
func (e *Engine) resolveTarget(send *model.ScheduledSend) ([]string, error) {
	if send.Targeted() {
		return []string{send.RecipientID}, nil
	}
	recipients, err := e.Recipients.ListAll()
	if err != nil {
		return nil, err
	}
	return segment.Resolve(recipients, *send.Segment), nil
}

// dispatchSend pushes the message and returns how many recipients the
// provider accepted.
func (e *Engine) dispatchSend(ctx context.Context, gw provider.Gateway, send *model.ScheduledSend, ids []string) (int, error) {
	if send.Targeted() {
		if err := gw.PushOne(ctx, send.RecipientID, send.MessageText); err != nil {
			return 0, err
		}
		return 1, nil
	}

	if len(ids) == 0 {
		// Valid outcome: the segment matched nobody. The send completes as
		// sent with zero recipients rather than staying pending forever.
		return 0, nil
	}

	outcome := e.Dispatcher.Dispatch(ctx, gw, ids, send.MessageText)
	if outcome.Failed() {
		return len(outcome.DeliveredIDs()), outcome.FirstError()
	}
	return len(ids), nil
}
