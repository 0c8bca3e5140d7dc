package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/driplinehq/dripline-backend/internal/model"
)

// enrolled 10:00 local on the given calendar day in the reference timezone
func localDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, testZone)
}

func TestDripWelcomeScenario(t *testing.T) {
	env := newTestEnv(150)
	env.steps.steps = []model.DripStep{{ID: "step-1", DaysAfter: 1, MessageText: "Welcome!"}}
	env.addRecipient("U1", localDay(2026, time.August, 10), nil)

	dayOne := time.Date(2026, time.August, 11, 9, 30, 0, 0, testZone)

	// Day 1: the step fires for the recipient enrolled yesterday.
	report, err := env.engine.EvaluateDripSteps(context.Background(), env.gateway, dayOne)
	if err != nil {
		t.Fatal(err)
	}
	if report.Dispatched != 1 {
		t.Fatalf("expected 1 dispatched, got %d", report.Dispatched)
	}
	if got := env.gateway.batchCount(); got != 1 {
		t.Fatalf("expected 1 batch call, got %d", got)
	}
	if !env.recipients.recs["U1"].SentSteps.Has(1) {
		t.Error("expected step offset 1 in sent steps")
	}

	// Same day again: the daily marker makes the whole pass a no-op.
	report, err = env.engine.EvaluateDripSteps(context.Background(), env.gateway, dayOne.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !report.Skipped {
		t.Error("expected second same-day evaluation to be skipped")
	}
	if got := env.gateway.batchCount(); got != 1 {
		t.Fatalf("expected no additional provider calls, got %d total", got)
	}

	// Day 2: no step matches this recipient anymore.
	dayTwo := dayOne.AddDate(0, 0, 1)
	report, err = env.engine.EvaluateDripSteps(context.Background(), env.gateway, dayTwo)
	if err != nil {
		t.Fatal(err)
	}
	if report.Dispatched != 0 {
		t.Fatalf("expected no dispatches on day 2, got %d", report.Dispatched)
	}
	if got := env.gateway.batchCount(); got != 1 {
		t.Fatalf("expected no additional provider calls, got %d total", got)
	}
}

func TestDripDedupeSurvivesMarkerReset(t *testing.T) {
	env := newTestEnv(150)
	env.steps.steps = []model.DripStep{{ID: "step-1", DaysAfter: 1, MessageText: "Welcome!"}}
	env.addRecipient("U1", localDay(2026, time.August, 10), nil, 1) // already received

	now := time.Date(2026, time.August, 11, 12, 0, 0, 0, testZone)
	env.marker.date = "" // marker bypassed, e.g. engine restarted with a fresh DB row

	report, err := env.engine.EvaluateDripSteps(context.Background(), env.gateway, now)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped {
		t.Fatal("marker was reset, pass should run")
	}
	if got := env.gateway.batchCount(); got != 0 {
		t.Fatalf("dedupe failed: %d provider calls for an already-sent step", got)
	}
}

func TestDripPartialChunkFailureIsolated(t *testing.T) {
	env := newTestEnv(2)
	env.steps.steps = []model.DripStep{{ID: "step-3", DaysAfter: 3, MessageText: "How is it going?"}}
	enrolled := localDay(2026, time.August, 8)
	env.addRecipient("U1", enrolled, nil)
	env.addRecipient("U2", enrolled, nil)
	env.addRecipient("U3", enrolled, nil)

	// First chunk fails, second succeeds.
	env.gateway.batchErr = func(call int, _ []string) error {
		if call == 0 {
			return errors.New("rate limited")
		}
		return nil
	}

	now := time.Date(2026, time.August, 11, 8, 0, 0, 0, testZone)
	report, err := env.engine.EvaluateDripSteps(context.Background(), env.gateway, now)
	if err != nil {
		t.Fatal(err)
	}
	if report.Failures != 1 {
		t.Fatalf("expected 1 failed chunk, got %d", report.Failures)
	}
	if report.Dispatched != 1 {
		t.Fatalf("expected 1 recipient marked (last chunk), got %d", report.Dispatched)
	}
	if got := env.gateway.batchCount(); got != 2 {
		t.Fatalf("a chunk failure must not abort later chunks; got %d calls", got)
	}

	marked := 0
	for _, r := range env.recipients.recs {
		if r.SentSteps.Has(3) {
			marked++
		}
	}
	if marked != 1 {
		t.Fatalf("expected exactly the successful chunk's recipient marked, got %d", marked)
	}

	// The daily marker still advances so the pass does not rerun today.
	if env.marker.date != now.In(testZone).Format("2006-01-02") {
		t.Errorf("marker not advanced, got %q", env.marker.date)
	}
}

func TestDripMultipleStepsIndependent(t *testing.T) {
	env := newTestEnv(150)
	env.steps.steps = []model.DripStep{
		{ID: "step-1", DaysAfter: 1, MessageText: "Welcome!"},
		{ID: "step-3", DaysAfter: 3, MessageText: "Checking in"},
	}
	env.addRecipient("A", localDay(2026, time.August, 10), nil) // due for step 1
	env.addRecipient("B", localDay(2026, time.August, 8), nil)  // due for step 3

	now := time.Date(2026, time.August, 11, 7, 0, 0, 0, testZone)
	report, err := env.engine.EvaluateDripSteps(context.Background(), env.gateway, now)
	if err != nil {
		t.Fatal(err)
	}
	if report.Evaluated != 2 || report.Dispatched != 2 {
		t.Fatalf("expected both steps to fire once each, got evaluated=%d dispatched=%d",
			report.Evaluated, report.Dispatched)
	}
	if !env.recipients.recs["A"].SentSteps.Has(1) || !env.recipients.recs["B"].SentSteps.Has(3) {
		t.Error("sent-step marks missing")
	}
}
