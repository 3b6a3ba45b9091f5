package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/httpapi"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/results"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/util"
)

// ingestPayload is the body of a test-result submission. Repository
// identity comes from the route, never from the body.
type ingestPayload struct {
	Passed    int        `json:"passed"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Total     int        `json:"total"`
	URL       string     `json:"url_html,omitempty"`
	Commit    string     `json:"commit,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// IngestResults stores a submitted test run as the branch's latest. The
// route is protected; the router has already authenticated the caller by
// the time this runs.
func IngestResults(store results.Store, logger observability.Logger) httpapi.Handler {
	return func(ctx context.Context, req *httpapi.Request) (*httpapi.Response, error) {
		var payload ingestPayload
		if err := json.Unmarshal(req.Body, &payload); err != nil {
			return jsonError(http.StatusBadRequest, "invalid JSON body"), nil
		}

		run := &results.TestRun{
			Platform:   req.Param("platform"),
			Owner:      req.Param("owner"),
			Repo:       req.Param("repo"),
			Branch:     req.Param("branch"),
			Passed:     payload.Passed,
			Failed:     payload.Failed,
			Skipped:    payload.Skipped,
			Total:      payload.Total,
			URL:        payload.URL,
			Commit:     payload.Commit,
			RecordedAt: time.Now().UTC(),
		}
		if payload.Timestamp != nil {
			run.Timestamp = *payload.Timestamp
		} else {
			run.Timestamp = run.RecordedAt
		}

		if err := store.PutLatest(ctx, run); err != nil {
			if errors.Is(err, util.ErrInvalidInput) {
				return jsonError(http.StatusBadRequest, "invalid test counts"), nil
			}
			logger.Error("failed to store test run",
				observability.String("repo", run.Owner+"/"+run.Repo),
				observability.Error(err))
			return jsonError(http.StatusServiceUnavailable, "storage unavailable"), nil
		}

		body, err := json.Marshal(map[string]string{"status": "stored"})
		if err != nil {
			return nil, err
		}
		return httpapi.NewResponse(http.StatusCreated).
			WithHeader("Content-Type", "application/json").
			WithBody(body), nil
	}
}

// RedirectToResults sends the caller to the latest run's HTML page. With
// no stored run (or a run without a page) it falls back to the
// repository's hosting page so the link never dead-ends.
func RedirectToResults(store results.Store, logger observability.Logger) httpapi.Handler {
	return func(ctx context.Context, req *httpapi.Request) (*httpapi.Response, error) {
		platform := req.Param("platform")
		owner := req.Param("owner")
		repo := req.Param("repo")

		location := fallbackRepoURL(platform, owner, repo)

		run, err := store.GetLatest(ctx, platform, owner, repo, req.Param("branch"))
		if err == nil && run.URL != "" {
			location = run.URL
		} else if err != nil && !errors.Is(err, util.ErrNotFound) {
			logger.Warn("test run lookup failed for redirect",
				observability.String("repo", owner+"/"+repo),
				observability.Error(err))
		}

		return httpapi.NewResponse(http.StatusFound).
			WithHeader("Location", location).
			WithHeader("Cache-Control", "no-store"), nil
	}
}

func fallbackRepoURL(platform, owner, repo string) string {
	switch platform {
	case "gitlab":
		return fmt.Sprintf("https://gitlab.com/%s/%s/-/pipelines", owner, repo)
	default:
		return fmt.Sprintf("https://github.com/%s/%s/actions", owner, repo)
	}
}

func jsonError(status int, message string) *httpapi.Response {
	body, _ := json.Marshal(util.ErrorBody{Error: message})
	return httpapi.NewResponse(status).
		WithHeader("Content-Type", "application/json").
		WithBody(body)
}
