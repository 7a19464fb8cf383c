package types

import "time"

// PipelineHealth is the full payload served by the status endpoint.
type PipelineHealth struct {
	Timestamp time.Time      `json:"timestamp"`
	Runtime   RuntimeHealth  `json:"runtime"`
	Database  DatabaseHealth `json:"database"`
	Pipeline  PipelineStats  `json:"pipeline"`
}

// RuntimeHealth contains process runtime metrics.
type RuntimeHealth struct {
	Status        string  `json:"status"` // healthy, degraded
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// DatabaseHealth contains database connectivity and table counts.
type DatabaseHealth struct {
	Status        string    `json:"status"`
	Pool          PoolStats `json:"pool"`
	ActiveAlarms  int64     `json:"active_alarms"`
	HistoryAlarms int64     `json:"history_alarms"`
}

// PoolStats contains pgxpool connection pool statistics.
type PoolStats struct {
	TotalConnections    int32 `json:"total_connections"`
	IdleConnections     int32 `json:"idle_connections"`
	AcquiredConnections int32 `json:"acquired_connections"`
	MaxConnections      int32 `json:"max_connections"`
}

// PipelineStats counts message outcomes since process start.
type PipelineStats struct {
	Received      uint64     `json:"received"`
	Kept          uint64     `json:"kept"`
	Dropped       uint64     `json:"dropped"`
	Errors        uint64     `json:"errors"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}
