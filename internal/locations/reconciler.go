package locations

import (
	"context"
	"errors"
	"log"

	obsmetrics "weathertrack/internal/observability/metrics"
	"weathertrack/internal/runlog"
)

// Store is the location dimension access the reconciler needs.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	Insert(ctx context.Context, name, providerKey string) (int64, error)
	IDByName(ctx context.Context, name string) (int64, bool, error)
}

// Reconciler ensures every forecasted location exists in the dimension table
// before predictions reference it.
type Reconciler struct {
	store     Store
	mutations runlog.MutationLogger
	keys      map[string]string
	metrics   *obsmetrics.Metrics
	logger    *log.Logger
}

// WithMetrics counts created locations.
func (r *Reconciler) WithMetrics(m *obsmetrics.Metrics) *Reconciler {
	if r != nil {
		r.metrics = m
	}
	return r
}

// NewReconciler constructs a reconciler. keys is the locationName ->
// providerKey mapping from the key source.
func NewReconciler(store Store, mutations runlog.MutationLogger, keys map[string]string, logger *log.Logger) (*Reconciler, error) {
	if store == nil {
		return nil, errors.New("reconciler: nil store")
	}
	if keys == nil {
		keys = map[string]string{}
	}
	return &Reconciler{store: store, mutations: mutations, keys: keys, logger: logger}, nil
}

// Ensure inserts each unknown location name exactly once and resolves every
// name to its id. Names that cannot be resolved are omitted from the result;
// the caller decides what to do with their readings. Re-running with known
// names performs no writes.
func (r *Reconciler) Ensure(ctx context.Context, runID int64, names []string) (map[string]int64, error) {
	if r == nil {
		return nil, errors.New("reconciler: nil")
	}
	ids := make(map[string]int64, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		known, err := r.store.Exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !known {
			insertedID, insertErr := r.store.Insert(ctx, name, r.keys[name])
			status, message := runlog.Outcome(insertErr)
			r.logMutation(ctx, runlog.Mutation{
				RunID:        runID,
				EntityKind:   runlog.EntityLocation,
				EntityID:     insertedID,
				Operation:    runlog.OperationInsert,
				Status:       status,
				ErrorMessage: message,
			})
			if insertErr != nil {
				r.logf("location insert failed: run_id=%d location=%s error=%v", runID, name, insertErr)
				continue
			}
			if r.metrics != nil {
				r.metrics.LocationsCreated.Inc()
			}
		}

		locationID, ok, err := r.lookupWithRetry(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logf("location lookup empty after retry: run_id=%d location=%s", runID, name)
			continue
		}
		ids[name] = locationID
	}
	return ids, nil
}

// lookupWithRetry retries a missed lookup once before giving up; a second
// miss is an empty result, not an error.
func (r *Reconciler) lookupWithRetry(ctx context.Context, name string) (int64, bool, error) {
	locationID, ok, err := r.store.IDByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return locationID, true, nil
	}
	return r.store.IDByName(ctx, name)
}

func (r *Reconciler) logMutation(ctx context.Context, m runlog.Mutation) {
	if r.mutations == nil {
		return
	}
	if err := r.mutations.LogMutation(ctx, m); err != nil {
		r.logf("mutation log failed: run_id=%d error=%v", m.RunID, err)
	}
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
