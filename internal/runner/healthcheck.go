package runner

import (
	"context"
	"time"
)

// HealthCheckResult reports target connectivity.
type HealthCheckResult struct {
	Timestamp    string `json:"timestamp"`
	TargetDBType string `json:"target_db_type"`
	Connected    bool   `json:"connected"`
	LatencyMs    int64  `json:"latency_ms"`
	Error        string `json:"error,omitempty"`
	Healthy      bool   `json:"healthy"`
}

// HealthCheck pings the target with a 30 second budget.
func (r *Runner) HealthCheck(ctx context.Context) *HealthCheckResult {
	result := &HealthCheckResult{
		Timestamp:    time.Now().Format(time.RFC3339),
		TargetDBType: r.writer.DBType(),
	}

	const checkTimeout = 30 * time.Second
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := r.writer.Ping(checkCtx); err != nil {
		result.Error = err.Error()
	} else {
		result.Connected = true
	}
	result.LatencyMs = time.Since(start).Milliseconds()
	result.Healthy = result.Connected
	return result
}
