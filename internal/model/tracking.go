package model

import "time"

// Run statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Stage names, in pipeline order
const (
	StageLoad      = "load"
	StageFilter    = "filter"
	StageTransform = "transform"
	StageAggregate = "aggregate"
	StageRender    = "render"
	StageExport    = "export"
	StageDisplay   = "display"
)

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	Stage      string        `json:"stage"`
	Status     string        `json:"status"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	Duration   time.Duration `json:"duration"`
	RowsIn     int           `json:"rows_in"`
	RowsOut    int           `json:"rows_out"`
	ErrorCount int           `json:"error_count"`
}

// ErrorDetail represents a detailed error with context
type ErrorDetail struct {
	Timestamp time.Time `json:"timestamp"`
	Stage     string    `json:"stage"`
	ErrorType string    `json:"error_type"`
	Message   string    `json:"message"`
}

// RunMetrics represents overall metrics of one report run
type RunMetrics struct {
	RunID     string         `json:"run_id"`
	Status    string         `json:"status"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Stages    []StageMetrics `json:"stages"`
	Coerced   int            `json:"coerced_values"`
	Errors    []ErrorDetail  `json:"errors"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "database", "csv", "json", "xlsx", "parquet"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
