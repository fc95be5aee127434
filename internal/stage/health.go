package stage

import "context"

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// HealthChecker is implemented by stages that can report readiness without
// doing work. The runner consults it before executing a stage so
// misconfiguration fails fast instead of mid-pipeline.
type HealthChecker interface {
	HealthCheck(ctx context.Context) Health
}
