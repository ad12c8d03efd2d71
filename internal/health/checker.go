// Package health runs the diagnostics behind 'oneway doctor': can the
// configured endpoints be reached and can the credential store be read.
//
// Example usage:
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewEndpointChecker("graphql", cfg.Endpoints.GraphQL, nil))
//	manager.AddChecker(health.NewStoreChecker(store))
//
//	report := manager.Check(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    ...
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency of the client.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "graphql-endpoint".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result represents the result of a health check.
type Result struct {
	Name    string         `json:"name" yaml:"name"`
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency" yaml:"latency"`
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

func Healthy(message string) *Result   { return NewResult(StatusHealthy, message) }
func Degraded(message string) *Result  { return NewResult(StatusDegraded, message) }
func Unhealthy(message string) *Result { return NewResult(StatusUnhealthy, message) }
