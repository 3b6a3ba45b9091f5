// Package health aggregates liveness checks for the badge API.
package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkTimeout bounds each individual dependency check.
const checkTimeout = 2 * time.Second

// Check is one named dependency check.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Report is the aggregate health payload.
type Report struct {
	Status    string        `json:"status"`
	Version   string        `json:"version,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// Checker runs dependency checks and aggregates a report.
type Checker struct {
	version string
	checks  []Check
}

// NewChecker creates a checker. version is reported verbatim.
func NewChecker(version string, checks ...Check) *Checker {
	return &Checker{version: version, checks: checks}
}

// Run executes every check and aggregates the report. Status is "ok" only
// when every check passed.
func (c *Checker) Run(ctx context.Context) Report {
	report := Report{
		Status:    "ok",
		Version:   c.version,
		Timestamp: time.Now().UTC(),
	}

	for _, check := range c.checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		start := time.Now()
		err := check.Fn(checkCtx)
		cancel()

		result := CheckResult{
			Name:     check.Name,
			Healthy:  err == nil,
			Duration: time.Since(start).String(),
		}
		if err != nil {
			result.Error = err.Error()
			report.Status = "degraded"
		}
		report.Checks = append(report.Checks, result)
	}

	return report
}

// Healthy reports whether the report carries no failed checks.
func (r Report) Healthy() bool {
	return r.Status == "ok"
}

// RedisCheck builds a connectivity check over the given client.
func RedisCheck(client *redis.Client) Check {
	return Check{
		Name: "redis",
		Fn: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
