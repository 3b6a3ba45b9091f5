package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/badge"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/health"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/httpapi"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/packages"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/results"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/routing"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/util"
)

// fakeResultsStore is an in-memory results.Store for handler tests.
type fakeResultsStore struct {
	runs   map[string]*results.TestRun
	putErr error
	getErr error
}

func newFakeResultsStore() *fakeResultsStore {
	return &fakeResultsStore{runs: make(map[string]*results.TestRun)}
}

func (s *fakeResultsStore) PutLatest(_ context.Context, run *results.TestRun) error {
	if s.putErr != nil {
		return s.putErr
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
	}
	s.runs[results.Key(run.Platform, run.Owner, run.Repo, run.Branch)] = run
	return nil
}

func (s *fakeResultsStore) GetLatest(_ context.Context, platform, owner, repo, branch string) (*results.TestRun, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	run, ok := s.runs[results.Key(platform, owner, repo, branch)]
	if !ok {
		return nil, util.ErrNotFound
	}
	return run, nil
}

func (s *fakeResultsStore) Close() error { return nil }

// fixedVersionSource answers every lookup with the same version or error.
type fixedVersionSource struct {
	version string
	err     error
}

func (s fixedVersionSource) LatestVersion(context.Context, string, string) (string, error) {
	return s.version, s.err
}

func decodeBadge(t *testing.T, resp *httpapi.Response) badge.Badge {
	t.Helper()
	var payload badge.Badge
	require.NoError(t, json.Unmarshal(resp.Body, &payload))
	return payload
}

func TestPackageBadge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		source      fixedVersionSource
		wantMessage string
		wantColor   string
		wantIsError bool
	}{
		{
			name:        "latest version",
			source:      fixedVersionSource{version: "2.1.0"},
			wantMessage: "v2.1.0",
			wantColor:   badge.ColorBlue,
		},
		{
			name:        "package missing",
			source:      fixedVersionSource{err: packages.ErrPackageNotFound},
			wantMessage: "not found",
			wantColor:   badge.ColorLightGrey,
			wantIsError: true,
		},
		{
			name:        "registry down",
			source:      fixedVersionSource{err: errors.New("timeout")},
			wantMessage: "unavailable",
			wantColor:   badge.ColorLightGrey,
			wantIsError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			registry := packages.NewRegistry(map[string]packages.VersionSource{"nuget": tt.source})
			handler := PackageBadge(registry, observability.NopLogger())

			resp, err := handler(context.Background(), &httpapi.Request{
				Params: map[string]string{"provider": "nuget", "package": "LocalStack.Client"},
			})
			require.NoError(t, err)

			// Badge endpoints always answer 200 so the image renders.
			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.Contains(t, resp.Header.Get("Cache-Control"), "max-age=300")

			payload := decodeBadge(t, resp)
			assert.Equal(t, 1, payload.SchemaVersion)
			assert.Equal(t, "nuget", payload.Label)
			assert.Equal(t, tt.wantMessage, payload.Message)
			assert.Equal(t, tt.wantColor, payload.Color)
			assert.Equal(t, tt.wantIsError, payload.IsError)
		})
	}
}

func TestPackageBadge_UnknownProvider(t *testing.T) {
	t.Parallel()

	registry := packages.NewRegistry(map[string]packages.VersionSource{})
	handler := PackageBadge(registry, observability.NopLogger())

	resp, err := handler(context.Background(), &httpapi.Request{
		Params: map[string]string{"provider": "npm", "package": "left-pad"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	payload := decodeBadge(t, resp)
	assert.Equal(t, "not found", payload.Message)
	assert.True(t, payload.IsError)
}

func testBadgeRequest() *httpapi.Request {
	return &httpapi.Request{
		Params: map[string]string{
			"platform": "github",
			"owner":    "localstack-dotnet",
			"repo":     "localstack-dotnet-client",
			"branch":   "master",
		},
	}
}

func TestTestBadge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		run         *results.TestRun
		wantMessage string
		wantColor   string
	}{
		{
			name:        "all passing",
			run:         &results.TestRun{Passed: 120, Total: 120},
			wantMessage: "120 passed",
			wantColor:   badge.ColorGreen,
		},
		{
			name:        "failures win",
			run:         &results.TestRun{Passed: 100, Failed: 3, Total: 103},
			wantMessage: "100 passed, 3 failed",
			wantColor:   badge.ColorRed,
		},
		{
			name:        "only skipped",
			run:         &results.TestRun{Skipped: 7, Total: 7},
			wantMessage: "7 skipped",
			wantColor:   badge.ColorOrange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeResultsStore()
			run := tt.run
			run.Platform, run.Owner, run.Repo, run.Branch = "github", "localstack-dotnet", "localstack-dotnet-client", "master"
			require.NoError(t, store.PutLatest(context.Background(), run))

			resp, err := TestBadge(store, observability.NopLogger())(context.Background(), testBadgeRequest())
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, resp.Status)
			payload := decodeBadge(t, resp)
			assert.Equal(t, "tests", payload.Label)
			assert.Equal(t, tt.wantMessage, payload.Message)
			assert.Equal(t, tt.wantColor, payload.Color)
		})
	}
}

func TestTestBadge_NoStoredRun(t *testing.T) {
	t.Parallel()

	resp, err := TestBadge(newFakeResultsStore(), observability.NopLogger())(context.Background(), testBadgeRequest())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	payload := decodeBadge(t, resp)
	assert.Equal(t, "not found", payload.Message)
	assert.True(t, payload.IsError)
}

func TestTestBadge_StoreFailure(t *testing.T) {
	t.Parallel()

	store := newFakeResultsStore()
	store.getErr = errors.New("redis: connection refused")

	resp, err := TestBadge(store, observability.NopLogger())(context.Background(), testBadgeRequest())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	payload := decodeBadge(t, resp)
	assert.Equal(t, "unavailable", payload.Message)
	assert.True(t, payload.IsError)
}

func ingestRequest(body string) *httpapi.Request {
	req := testBadgeRequest()
	req.Method = http.MethodPost
	req.Body = []byte(body)
	return req
}

func TestIngestResults_Stores(t *testing.T) {
	t.Parallel()

	store := newFakeResultsStore()
	handler := IngestResults(store, observability.NopLogger())

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"passed":10,"failed":1,"skipped":2,"total":13,"url_html":"https://github.com/o/r/runs/7","commit":"abc123","timestamp":%q}`,
		ts.Format(time.RFC3339))

	resp, err := handler(context.Background(), ingestRequest(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.JSONEq(t, `{"status":"stored"}`, string(resp.Body))

	stored, err := store.GetLatest(context.Background(), "github", "localstack-dotnet", "localstack-dotnet-client", "master")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Passed)
	assert.Equal(t, 1, stored.Failed)
	assert.Equal(t, "https://github.com/o/r/runs/7", stored.URL)
	assert.Equal(t, ts, stored.Timestamp)
	assert.False(t, stored.RecordedAt.IsZero())
}

func TestIngestResults_DefaultsTimestamp(t *testing.T) {
	t.Parallel()

	store := newFakeResultsStore()
	handler := IngestResults(store, observability.NopLogger())

	resp, err := handler(context.Background(), ingestRequest(`{"passed":5,"total":5}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status)

	stored, err := store.GetLatest(context.Background(), "github", "localstack-dotnet", "localstack-dotnet-client", "master")
	require.NoError(t, err)
	assert.Equal(t, stored.RecordedAt, stored.Timestamp)
}

func TestIngestResults_InvalidJSON(t *testing.T) {
	t.Parallel()

	resp, err := IngestResults(newFakeResultsStore(), observability.NopLogger())(context.Background(), ingestRequest(`{not json`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, string(resp.Body), "invalid JSON")
}

func TestIngestResults_InvalidCounts(t *testing.T) {
	t.Parallel()

	resp, err := IngestResults(newFakeResultsStore(), observability.NopLogger())(context.Background(), ingestRequest(`{"passed":-1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, string(resp.Body), "invalid test counts")
}

func TestIngestResults_StoreUnavailable(t *testing.T) {
	t.Parallel()

	store := newFakeResultsStore()
	store.putErr = errors.New("redis: connection refused")

	resp, err := IngestResults(store, observability.NopLogger())(context.Background(), ingestRequest(`{"passed":1,"total":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

func TestRedirectToResults(t *testing.T) {
	t.Parallel()

	store := newFakeResultsStore()
	require.NoError(t, store.PutLatest(context.Background(), &results.TestRun{
		Platform: "github",
		Owner:    "localstack-dotnet",
		Repo:     "localstack-dotnet-client",
		Branch:   "master",
		Passed:   1,
		Total:    1,
		URL:      "https://github.com/o/r/actions/runs/42",
	}))

	resp, err := RedirectToResults(store, observability.NopLogger())(context.Background(), testBadgeRequest())
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "https://github.com/o/r/actions/runs/42", resp.Header.Get("Location"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestRedirectToResults_Fallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		platform string
		want     string
	}{
		{platform: "github", want: "https://github.com/localstack-dotnet/localstack-dotnet-client/actions"},
		{platform: "gitlab", want: "https://gitlab.com/localstack-dotnet/localstack-dotnet-client/-/pipelines"},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			t.Parallel()

			req := testBadgeRequest()
			req.Params["platform"] = tt.platform

			resp, err := RedirectToResults(newFakeResultsStore(), observability.NopLogger())(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusFound, resp.Status)
			assert.Equal(t, tt.want, resp.Header.Get("Location"))
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	passing := health.NewChecker("test", health.Check{
		Name: "redis",
		Fn:   func(context.Context) error { return nil },
	})

	resp, err := Health(passing)(context.Background(), &httpapi.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), `"status":"ok"`)

	failing := health.NewChecker("test", health.Check{
		Name: "redis",
		Fn:   func(context.Context) error { return errors.New("connection refused") },
	})

	resp, err = Health(failing)(context.Background(), &httpapi.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Contains(t, string(resp.Body), `"status":"degraded"`)
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	table, err := Routes(Deps{
		Checker:  health.NewChecker("test"),
		Registry: packages.NewRegistry(nil),
		Results:  newFakeResultsStore(),
	})
	require.NoError(t, err)

	resolver := routing.NewResolver(table)

	tests := []struct {
		path     string
		method   string
		want     string
		wantAuth bool
	}{
		{path: "/health", method: http.MethodGet, want: "health"},
		{path: "/badges/packages/nuget/LocalStack.Client", method: http.MethodGet, want: "package_badge"},
		{path: "/badges/packages/github/localstack-dotnet/LocalStack.Client", method: http.MethodGet, want: "package_badge_org"},
		{path: "/badges/tests/github/owner/repo/master", method: http.MethodGet, want: "test_badge"},
		{path: "/tests/results/github/owner/repo/master", method: http.MethodPost, want: "ingest_results", wantAuth: true},
		{path: "/redirect/test-results/github/owner/repo/master", method: http.MethodGet, want: "redirect_results"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			values := resolver.AcquireValues()
			defer resolver.ReleaseValues(values)

			desc, ok := resolver.TryResolve(tt.method, tt.path, values)
			require.True(t, ok, "expected %s %s to resolve", tt.method, tt.path)
			assert.Equal(t, tt.want, desc.Name)
			assert.Equal(t, tt.wantAuth, desc.RequiresAuth)
		})
	}
}
