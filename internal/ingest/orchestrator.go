package ingest

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	obsmetrics "weathertrack/internal/observability/metrics"
	predictionsrepo "weathertrack/internal/predictions/postgres"
	"weathertrack/internal/provider/accuweather"
	"weathertrack/internal/runlog"
)

// ForecastFetcher fetches raw hourly forecasts per location.
type ForecastFetcher interface {
	Fetch12Hour(ctx context.Context, runID int64, keys map[string]string) (map[string][]accuweather.HourlyRecord, error)
}

// LocationReconciler resolves forecasted location names to dimension ids,
// inserting unknown ones.
type LocationReconciler interface {
	Ensure(ctx context.Context, runID int64, names []string) (map[string]int64, error)
}

// PredictionWriter persists prediction rows.
type PredictionWriter interface {
	InsertBatch(ctx context.Context, rows []predictionsrepo.Prediction) (int64, int64, error)
}

// RunStore owns run lifecycle rows and the correlated mutation log.
type RunStore interface {
	CreateRun(ctx context.Context) (int64, error)
	FinishRun(ctx context.Context, runID int64, status, errMsg string) error
	LogMutation(ctx context.Context, m runlog.Mutation) error
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the current UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Orchestrator sequences one ingestion pipeline invocation and is the only
// writer of a run's terminal status.
type Orchestrator struct {
	fetcher    ForecastFetcher
	reconciler LocationReconciler
	writer     PredictionWriter
	runs       RunStore
	keys       map[string]string
	metrics    *obsmetrics.Metrics
	logger     *log.Logger
	clock      Clock
}

// NewOrchestrator constructs an orchestrator. keys is the locationName ->
// providerKey mapping from the key source; metrics and logger may be nil.
func NewOrchestrator(
	fetcher ForecastFetcher,
	reconciler LocationReconciler,
	writer PredictionWriter,
	runs RunStore,
	keys map[string]string,
	metrics *obsmetrics.Metrics,
	logger *log.Logger,
	clock Clock,
) (*Orchestrator, error) {
	if fetcher == nil || reconciler == nil || writer == nil || runs == nil {
		return nil, errors.New("orchestrator: nil dependency")
	}
	if keys == nil {
		keys = map[string]string{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Orchestrator{
		fetcher:    fetcher,
		reconciler: reconciler,
		writer:     writer,
		runs:       runs,
		keys:       keys,
		metrics:    metrics,
		logger:     logger,
		clock:      clock,
	}, nil
}

// Run executes one ingestion invocation: open a Pending run, fetch and
// transform forecasts, reconcile locations, persist predictions, then set
// exactly one terminal run status. Per-location failures are logged and do
// not abort sibling locations; only an error escaping the whole pipeline
// fails the run. Already committed inserts stay committed either way.
func (o *Orchestrator) Run(ctx context.Context) (int64, error) {
	if o == nil {
		return 0, errors.New("orchestrator: nil")
	}
	started := o.clock.Now()
	runID, err := o.runs.CreateRun(ctx)
	if err != nil {
		return 0, err
	}
	o.logf("event=ingest_run_start run_id=%d locations=%d", runID, len(o.keys))

	if err := o.execute(ctx, runID); err != nil {
		if finishErr := o.runs.FinishRun(ctx, runID, runlog.StatusFailed, err.Error()); finishErr != nil {
			o.logf("event=ingest_run_finalize_failed run_id=%d error=%v", runID, finishErr)
		}
		o.observeRun(runlog.StatusFailed, o.clock.Now().Sub(started))
		o.logf("event=ingest_run_failed run_id=%d error=%v", runID, err)
		return runID, err
	}

	if err := o.runs.FinishRun(ctx, runID, runlog.StatusSuccess, ""); err != nil {
		o.logf("event=ingest_run_finalize_failed run_id=%d error=%v", runID, err)
	}
	o.observeRun(runlog.StatusSuccess, o.clock.Now().Sub(started))
	o.logf("event=ingest_run_success run_id=%d", runID)
	return runID, nil
}

func (o *Orchestrator) execute(ctx context.Context, runID int64) error {
	raw, err := o.fetcher.Fetch12Hour(ctx, runID, o.keys)
	if err != nil {
		return err
	}
	readings := Transform(raw, o.clock.Now())

	names := make([]string, 0, len(readings))
	for name := range readings {
		names = append(names, name)
	}
	sort.Strings(names)

	ids, err := o.reconciler.Ensure(ctx, runID, names)
	if err != nil {
		return err
	}

	for _, name := range names {
		locationID, ok := ids[name]
		if !ok {
			o.logf("event=ingest_location_skipped run_id=%d location=%s reason=unresolved", runID, name)
			continue
		}
		o.persistLocation(ctx, runID, name, locationID, readings[name])
	}
	return nil
}

// persistLocation writes one location's readings as a single multi-row
// insert and logs the batch outcome. Failures stay local to the location.
func (o *Orchestrator) persistLocation(ctx context.Context, runID int64, name string, locationID int64, readings []Reading) {
	if len(readings) == 0 {
		return
	}
	rows := make([]predictionsrepo.Prediction, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, predictionsrepo.Prediction{
			LocationID:      locationID,
			ForecastForHour: reading.ForecastForHour,
			ForecastMadeAt:  reading.ObservedAt,
			Temperature:     reading.TemperatureC,
		})
	}

	inserted, lastID, err := o.writer.InsertBatch(ctx, rows)
	status, message := runlog.Outcome(err)
	if logErr := o.runs.LogMutation(ctx, runlog.Mutation{
		RunID:        runID,
		EntityKind:   runlog.EntityPrediction,
		EntityID:     lastID,
		Operation:    runlog.OperationInsert,
		Status:       status,
		ErrorMessage: message,
	}); logErr != nil {
		o.logf("event=ingest_mutation_log_failed run_id=%d location=%s error=%v", runID, name, logErr)
	}
	if err != nil {
		o.logf("event=ingest_insert_failed run_id=%d location=%s error=%v", runID, name, err)
		return
	}
	if o.metrics != nil {
		o.metrics.PredictionsInserted.Add(float64(inserted))
	}
	o.logf("event=ingest_location_persisted run_id=%d location=%s rows=%d", runID, name, inserted)
}

func (o *Orchestrator) observeRun(status string, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.RunsTotal.WithLabelValues(status).Inc()
	o.metrics.RunDuration.Observe(elapsed.Seconds())
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}
