package runlog

import (
	"context"
	"time"
)

// Run statuses. A run starts Pending and is moved to exactly one terminal
// status by the ingestion orchestrator.
const (
	StatusPending = "Pending"
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// Mutation log taxonomy. Every mutated entity gets the same tagged entry
// shape instead of a per-table log schema.
const (
	EntityLocation   = "location"
	EntityPrediction = "prediction"

	OperationInsert = "insert"

	OutcomeSuccess = "Success"
	OutcomeFailed  = "Failed"
)

// Run represents one ingestion pipeline execution.
type Run struct {
	ID           int64
	Status       string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// APICall is an append-only record of one external provider call.
type APICall struct {
	RunID        int64
	Method       string
	URL          string
	Status       int
	ErrorMessage string
}

// Mutation is an append-only record of one database write attempt.
type Mutation struct {
	RunID        int64
	EntityKind   string
	EntityID     int64
	Operation    string
	Status       string
	ErrorMessage string
}

// CallLogger records external provider calls against the active run.
type CallLogger interface {
	LogAPICall(ctx context.Context, call APICall) error
}

// MutationLogger records database writes against the active run.
type MutationLogger interface {
	LogMutation(ctx context.Context, m Mutation) error
}

// Outcome maps an operation error to a mutation log status.
func Outcome(err error) (status, message string) {
	if err != nil {
		return OutcomeFailed, err.Error()
	}
	return OutcomeSuccess, ""
}
