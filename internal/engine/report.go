package engine

// EvaluationReport summarizes one evaluator pass.
type EvaluationReport struct {
	// Evaluated counts drip steps or due scheduled sends examined.
	Evaluated int
	// Dispatched counts recipients the provider accepted.
	Dispatched int
	// Failures counts failed chunks (drip) or sends moved to error (scheduled).
	Failures int
	// Skipped is set when the drip evaluator's once-per-day guard fired.
	Skipped bool
}

// CycleReport aggregates one scheduler tick.
type CycleReport struct {
	Drip      EvaluationReport
	Scheduled EvaluationReport
}
