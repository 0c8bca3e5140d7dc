package engine

import (
	"context"
	"time"

	"github.com/driplinehq/dripline-backend/internal/events"
	"github.com/driplinehq/dripline-backend/internal/provider"
)

const markerDateLayout = "2006-01-02"

// EvaluateDripSteps runs the enrollment-offset campaign for "today" in the
// reference timezone, at most once per calendar day.
//
// The daily marker is a guard on the evaluation pass, not a per-step lock:
// if one step's dispatch fails, the pass does not re-run that day. Duplicate
// protection is independent of the marker and rests entirely on each
// recipient's sent-steps set, so a same-day restart with a reset marker
// still never double-sends.
func (e *Engine) EvaluateDripSteps(ctx context.Context, gw provider.Gateway, now time.Time) (EvaluationReport, error) {
	report := EvaluationReport{}

	today := now.In(e.Zone).Format(markerDateLayout)
	last, err := e.Marker.LastStepCheckDate()
	if err != nil {
		return report, err
	}
	if last == today {
		report.Skipped = true
		return report, nil
	}

	steps, err := e.Steps.ListAll()
	if err != nil {
		return report, err
	}

	for _, step := range steps {
		report.Evaluated++

		ids, err := e.dripTargets(now, step.DaysAfter)
		if err != nil {
			e.Log.Error().Err(err).Str("step", step.ID).Msg("failed to load drip targets")
			report.Failures++
			continue
		}
		if len(ids) == 0 {
			continue
		}

		outcome := e.Dispatcher.Dispatch(ctx, gw, ids, step.MessageText)
		for _, chunk := range outcome.Chunks {
			if chunk.Err != nil {
				// No retry within the day: the once-per-day guard means these
				// recipients' target date will not recur, so this miss is
				// permanent. Surface it loudly.
				e.Log.Error().Err(chunk.Err).
					Str("step", step.ID).
					Int("days_after", step.DaysAfter).
					Int("recipients", len(chunk.RecipientIDs)).
					Msg("drip chunk dispatch failed, recipients will not be retried")
				report.Failures++
				continue
			}

			// Persist per chunk, immediately: a later chunk's failure must
			// not lose the marks of recipients already delivered.
			for _, id := range chunk.RecipientIDs {
				if err := e.Recipients.MarkStepSent(id, step.DaysAfter); err != nil {
					e.Log.Error().Err(err).
						Str("recipient", id).
						Int("days_after", step.DaysAfter).
						Msg("failed to mark step sent; re-marking is idempotent")
					continue
				}
				report.Dispatched++
			}
		}
		e.publish(events.KindDripStep, step.ID, len(outcome.DeliveredIDs()), outcome.FirstError())
	}

	// The marker advances after the pass regardless of per-step outcomes.
	if err := e.Marker.SetLastStepCheckDate(today); err != nil {
		return report, err
	}
	return report, nil
}

// dripTargets resolves the recipients due for a step offset: everyone whose
// enrollment date (reference timezone) is exactly daysAfter days ago and who
// has not received that step yet.
func (e *Engine) dripTargets(now time.Time, daysAfter int) ([]string, error) {
	local := now.In(e.Zone)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.Zone).
		AddDate(0, 0, -daysAfter)
	dayEnd := dayStart.AddDate(0, 0, 1)

	enrolled, err := e.Recipients.ListEnrolledBetween(dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, r := range enrolled {
		if r.SentSteps.Has(daysAfter) {
			continue
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}
