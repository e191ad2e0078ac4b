package pipeline

import (
	"log"
	"sync"
	"time"

	"go-prison-stats/internal/model"
	"go-prison-stats/internal/store"
)

// RunTracker records stage metrics and errors of one report run. It is safe
// to read metrics from another goroutine while the run is in flight.
type RunTracker struct {
	RunID   string
	metrics *model.RunMetrics
	mu      sync.RWMutex
	persist bool
}

// NewRunTracker creates a tracker; progress is also written to the store
// when one is initialised.
func NewRunTracker(runID string) *RunTracker {
	return &RunTracker{
		RunID:   runID,
		persist: store.Enabled(),
		metrics: &model.RunMetrics{
			RunID:     runID,
			Status:    model.StatusRunning,
			StartTime: time.Now(),
			Stages:    []model.StageMetrics{},
			Errors:    []model.ErrorDetail{},
		},
	}
}

// begin marks a tracker created by the caller as running
func (rt *RunTracker) begin() {
	rt.mu.Lock()
	rt.metrics.Status = model.StatusRunning
	rt.metrics.EndTime = nil
	rt.mu.Unlock()
}

// StartStage marks the start of a stage with the number of input rows
func (rt *RunTracker) StartStage(stage string, rowsIn int) {
	rt.mu.Lock()
	sm := model.StageMetrics{
		Stage:     stage,
		Status:    model.StatusRunning,
		StartTime: time.Now(),
		RowsIn:    rowsIn,
	}
	rt.metrics.Stages = append(rt.metrics.Stages, sm)
	rt.mu.Unlock()

	log.Printf("🚀 Stage %s started (%d rows in)", stage, rowsIn)
	rt.save(sm)
}

// EndStage completes the most recent run of a stage
func (rt *RunTracker) EndStage(stage string, rowsOut int) {
	rt.finishStage(stage, model.StatusCompleted, rowsOut)
}

// RecordError stores an error against a stage and marks that stage failed.
func (rt *RunTracker) RecordError(stage string, err error) {
	if err == nil {
		return
	}
	detail := model.ErrorDetail{
		Timestamp: time.Now(),
		Stage:     stage,
		ErrorType: errorType(err),
		Message:   err.Error(),
	}

	rt.mu.Lock()
	rt.metrics.Errors = append(rt.metrics.Errors, detail)
	if sm := rt.stage(stage); sm != nil {
		sm.ErrorCount++
	}
	rt.mu.Unlock()

	log.Printf("❌ Stage %s failed: %v", stage, err)
	rt.finishStage(stage, model.StatusFailed, 0)

	if rt.persist {
		if e := store.SaveReportError(rt.RunID, stage, detail.ErrorType, err); e != nil {
			log.Printf("⚠️ Failed to persist error: %v", e)
		}
	}
}

// AddCoerced counts values the aggregator treated as zero
func (rt *RunTracker) AddCoerced(n int) {
	rt.mu.Lock()
	rt.metrics.Coerced += n
	rt.mu.Unlock()
}

// Complete marks the run completed
func (rt *RunTracker) Complete() {
	rt.finish(model.StatusCompleted)
}

// Fail marks the run failed
func (rt *RunTracker) Fail() {
	rt.finish(model.StatusFailed)
}

// GetMetrics returns a copy of the current metrics
func (rt *RunTracker) GetMetrics() model.RunMetrics {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	m := *rt.metrics
	m.Stages = append([]model.StageMetrics(nil), rt.metrics.Stages...)
	m.Errors = append([]model.ErrorDetail(nil), rt.metrics.Errors...)
	if m.EndTime == nil {
		m.Duration = time.Since(m.StartTime)
	}
	return m
}

func (rt *RunTracker) finishStage(stage, status string, rowsOut int) {
	rt.mu.Lock()
	sm := rt.stage(stage)
	if sm == nil || sm.EndTime != nil {
		rt.mu.Unlock()
		return
	}
	now := time.Now()
	sm.EndTime = &now
	sm.Duration = now.Sub(sm.StartTime)
	sm.Status = status
	sm.RowsOut = rowsOut
	snapshot := *sm
	rt.mu.Unlock()

	if status == model.StatusCompleted {
		log.Printf("✅ Stage %s completed in %v (%d rows out)", stage, snapshot.Duration, rowsOut)
	}
	rt.save(snapshot)
}

func (rt *RunTracker) finish(status string) {
	rt.mu.Lock()
	now := time.Now()
	rt.metrics.EndTime = &now
	rt.metrics.Duration = now.Sub(rt.metrics.StartTime)
	rt.metrics.Status = status
	rt.mu.Unlock()

	if rt.persist {
		if err := store.UpdateReportStatus(rt.RunID, status); err != nil {
			log.Printf("⚠️ Failed to update report status: %v", err)
		}
	}
}

// stage returns the latest entry for name; callers hold the lock
func (rt *RunTracker) stage(name string) *model.StageMetrics {
	for i := len(rt.metrics.Stages) - 1; i >= 0; i-- {
		if rt.metrics.Stages[i].Stage == name {
			return &rt.metrics.Stages[i]
		}
	}
	return nil
}

func (rt *RunTracker) save(sm model.StageMetrics) {
	if !rt.persist {
		return
	}
	if err := store.SaveStageProgress(rt.RunID, sm); err != nil {
		log.Printf("⚠️ Failed to persist stage progress: %v", err)
	}
}
