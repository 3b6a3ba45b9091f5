package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/badge"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/httpapi"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/packages"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/results"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/util"
)

// Badge endpoints always answer 200 with a shields payload; failures show
// up as grey error badges, because a non-200 would break the rendered
// image on the consuming README.
const (
	packageBadgeCacheControl = "public, max-age=300, s-maxage=300"
	testBadgeCacheControl    = "public, max-age=60, s-maxage=60"
)

// PackageBadge renders the latest-version badge for a registry package.
// The org route parameter is empty on the two-segment variant.
func PackageBadge(registry *packages.Registry, logger observability.Logger) httpapi.Handler {
	return func(ctx context.Context, req *httpapi.Request) (*httpapi.Response, error) {
		provider := req.Param("provider")
		org := req.Param("org")
		name := req.Param("package")

		label := provider

		version, err := registry.LatestVersion(ctx, provider, org, name)
		if err != nil {
			var payload badge.Badge
			switch {
			case errors.Is(err, packages.ErrPackageNotFound), errors.Is(err, packages.ErrUnknownProvider):
				payload = badge.NotFound(label)
			default:
				logger.Warn("package version lookup failed",
					observability.String("provider", provider),
					observability.String("package", name),
					observability.Error(err))
				payload = badge.Unavailable(label)
			}
			return badgeResponse(payload, packageBadgeCacheControl), nil
		}

		return badgeResponse(badge.New(label, "v"+version, badge.ColorBlue), packageBadgeCacheControl), nil
	}
}

// TestBadge renders the latest test-run badge for a repository branch.
func TestBadge(store results.Store, logger observability.Logger) httpapi.Handler {
	return func(ctx context.Context, req *httpapi.Request) (*httpapi.Response, error) {
		run, err := store.GetLatest(ctx,
			req.Param("platform"), req.Param("owner"), req.Param("repo"), req.Param("branch"))
		if err != nil {
			var payload badge.Badge
			if errors.Is(err, util.ErrNotFound) {
				payload = badge.NotFound("tests")
			} else {
				logger.Warn("test run lookup failed",
					observability.String("repo", req.Param("owner")+"/"+req.Param("repo")),
					observability.Error(err))
				payload = badge.Unavailable("tests")
			}
			return badgeResponse(payload, testBadgeCacheControl), nil
		}

		return badgeResponse(testRunBadge(run), testBadgeCacheControl), nil
	}
}

// testRunBadge summarizes a run as a badge: green when everything passed,
// red when anything failed, orange when tests only skipped.
func testRunBadge(run *results.TestRun) badge.Badge {
	switch {
	case run.Failed > 0:
		return badge.New("tests",
			fmt.Sprintf("%d passed, %d failed", run.Passed, run.Failed), badge.ColorRed)
	case run.Passed == 0 && run.Skipped > 0:
		return badge.New("tests",
			fmt.Sprintf("%d skipped", run.Skipped), badge.ColorOrange)
	default:
		return badge.New("tests",
			fmt.Sprintf("%d passed", run.Passed), badge.ColorGreen)
	}
}

func badgeResponse(payload badge.Badge, cacheControl string) *httpapi.Response {
	return httpapi.NewResponse(http.StatusOK).
		WithHeader("Content-Type", "application/json").
		WithHeader("Cache-Control", cacheControl).
		WithBody(payload.JSON())
}
