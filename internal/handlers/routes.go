package handlers

import (
	"fmt"
	"net/http"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/health"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/httpapi"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/packages"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/results"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/routing"
)

// Deps are the collaborators the endpoints need.
type Deps struct {
	Checker  *health.Checker
	Registry *packages.Registry
	Results  results.Store
	Logger   observability.Logger
}

// Routes builds the immutable route table. Declaration order is match
// order, so the three-segment package badge route precedes the
// two-segment one.
func Routes(deps Deps) (*routing.Table[httpapi.Handler], error) {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	type route struct {
		name         string
		method       string
		template     string
		requiresAuth bool
		handler      httpapi.Handler
	}

	declarations := []route{
		{
			name:     "health",
			method:   http.MethodGet,
			template: "/health",
			handler:  Health(deps.Checker),
		},
		{
			name:     "package_badge_org",
			method:   http.MethodGet,
			template: "/badges/packages/{provider}/{org}/{package}",
			handler:  PackageBadge(deps.Registry, logger),
		},
		{
			name:     "package_badge",
			method:   http.MethodGet,
			template: "/badges/packages/{provider}/{package}",
			handler:  PackageBadge(deps.Registry, logger),
		},
		{
			name:     "test_badge",
			method:   http.MethodGet,
			template: "/badges/tests/{platform}/{owner}/{repo}/{branch}",
			handler:  TestBadge(deps.Results, logger),
		},
		{
			name:         "ingest_results",
			method:       http.MethodPost,
			template:     "/tests/results/{platform}/{owner}/{repo}/{branch}",
			requiresAuth: true,
			handler:      IngestResults(deps.Results, logger),
		},
		{
			name:     "redirect_results",
			method:   http.MethodGet,
			template: "/redirect/test-results/{platform}/{owner}/{repo}/{branch}",
			handler:  RedirectToResults(deps.Results, logger),
		},
	}

	descriptors := make([]routing.Descriptor[httpapi.Handler], 0, len(declarations))
	for _, decl := range declarations {
		var pattern routing.Pattern
		if decl.template == "/health" {
			pattern = routing.NewExactPattern(decl.template)
		} else {
			compiled, err := routing.NewTemplatePattern(decl.template)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", decl.name, err)
			}
			pattern = compiled
		}

		descriptors = append(descriptors, routing.Descriptor[httpapi.Handler]{
			Name:         decl.name,
			Method:       decl.method,
			RequiresAuth: decl.requiresAuth,
			Handler:      decl.handler,
			Pattern:      pattern,
		})
	}

	return routing.NewTable(descriptors)
}
