package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/shared"
)

// Recorder persists and exports the metadata of every AI generator call.
// Either sink may be nil.
type Recorder struct {
	store     *Store
	collector *Collector
	logger    *zap.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(store *Store, collector *Collector, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, collector: collector, logger: logger}
}

// RecordAgent implements shared.AgentRecorder. Storage failures are logged, never returned.
func (r *Recorder) RecordAgent(meta shared.AgentMeta, err error) {
	if r.collector != nil {
		r.collector.ObserveAgent(meta, err)
	}
	if err != nil {
		r.logger.Warn("agent call failed",
			zap.String("agent", meta.AgentName),
			zap.Duration("latency", meta.Latency),
			zap.Error(err))
	}
	if r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if storeErr := r.store.RecordMeta(ctx, meta, err == nil); storeErr != nil {
		r.logger.Error("failed to record execution metric", zap.String("agent", meta.AgentName), zap.Error(storeErr))
	}
}
