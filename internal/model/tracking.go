package model

import "time"

// StageMetrics captures timing and volume for one stage of an audit run
// (clouds, checks or stores).
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	WorkerCount      int           `json:"worker_count"`
	RecordsDelivered int64         `json:"records_delivered"`
	ErrorCount       int64         `json:"error_count"`
}

// AuditMetrics summarizes a whole audit run.
type AuditMetrics struct {
	RecordsDelivered int64                   `json:"records_delivered"`
	EventsDelivered  int64                   `json:"events_delivered"`
	ErrorCount       int64                   `json:"error_count"`
	ProcessingTime   time.Duration           `json:"processing_time"`
	StageMetrics     map[string]StageMetrics `json:"stage_metrics"`
}

// ErrorDetail is one recorded worker or plugin failure with its context.
type ErrorDetail struct {
	Stage     string    `json:"stage"`
	Worker    string    `json:"worker"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
