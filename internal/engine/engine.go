// Package engine is the delivery core: every scheduler tick it evaluates
// due drip steps and due scheduled sends, chunks the resulting recipient
// lists to the provider's batch limit, pushes them, and commits outcomes
// back to the directory and catalog.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/driplinehq/dripline-backend/internal/events"
	"github.com/driplinehq/dripline-backend/internal/provider"
	"github.com/driplinehq/dripline-backend/internal/repository"
)

// GatewayFactory yields the gateway for one cycle. The factory re-reads the
// credentials snapshot on every call, so a rotated token is picked up at the
// next tick without restarting the process.
type GatewayFactory func() provider.Gateway

type Engine struct {
	Recipients repository.RecipientRepositoryInterface
	Steps      repository.DripStepRepositoryInterface
	Sends      repository.ScheduledSendRepositoryInterface
	Marker     repository.RunMarkerRepositoryInterface

	Gateway    GatewayFactory
	Dispatcher *Dispatcher
	Events     events.Publisher

	// Zone is the reference timezone for calendar-day math and "due" checks.
	Zone *time.Location
	Log  zerolog.Logger
}

// RunCycle executes one evaluation cycle to completion: drip steps first,
// then scheduled sends, sequentially. The two evaluators touch disjoint
// entity sets, so the order is a convention, not a correctness requirement.
// Panics and evaluator errors are contained here; the scheduler always gets
// its next tick.
func (e *Engine) RunCycle(ctx context.Context, now time.Time) CycleReport {
	defer func() {
		if r := recover(); r != nil {
			e.Log.Error().Interface("panic", r).Msg("evaluation cycle panicked")
		}
	}()

	started := time.Now()
	gw := e.Gateway()
	report := CycleReport{}

	drip, err := e.EvaluateDripSteps(ctx, gw, now)
	if err != nil {
		e.Log.Error().Err(err).Msg("drip-step evaluation failed")
	}
	report.Drip = drip

	scheduled, err := e.EvaluateScheduledSends(ctx, gw, now)
	if err != nil {
		e.Log.Error().Err(err).Msg("scheduled-send evaluation failed")
	}
	report.Scheduled = scheduled

	e.Log.Info().
		Int("drip_steps", report.Drip.Evaluated).
		Int("drip_dispatched", report.Drip.Dispatched).
		Bool("drip_skipped", report.Drip.Skipped).
		Int("sends_due", report.Scheduled.Evaluated).
		Int("sends_dispatched", report.Scheduled.Dispatched).
		Int("failures", report.Drip.Failures+report.Scheduled.Failures).
		Dur("took", time.Since(started)).
		Msg("evaluation cycle finished")

	return report
}

func (e *Engine) publish(kind, entityID string, recipients int, err error) {
	if e.Events == nil {
		return
	}
	report := events.DeliveryReport{
		Kind:       kind,
		EntityID:   entityID,
		Recipients: recipients,
		Succeeded:  err == nil,
		At:         time.Now().UTC(),
	}
	if err != nil {
		report.Error = err.Error()
	}
	e.Events.Publish(report)
}
