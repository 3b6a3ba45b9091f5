package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/health"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/httpapi"
)

// Health serves the liveness report.
func Health(checker *health.Checker) httpapi.Handler {
	return func(ctx context.Context, _ *httpapi.Request) (*httpapi.Response, error) {
		report := checker.Run(ctx)

		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}

		body, err := json.Marshal(report)
		if err != nil {
			return nil, err
		}

		return httpapi.NewResponse(status).
			WithHeader("Content-Type", "application/json").
			WithHeader("Cache-Control", "no-store").
			WithBody(body), nil
	}
}
