package packages

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// DefaultNuGetBaseURL is the NuGet v3 flat-container endpoint.
const DefaultNuGetBaseURL = "https://api.nuget.org/v3-flatcontainer"

// NuGetSource resolves versions from the NuGet v3 flat-container API.
// NuGet has no organization scope; org is ignored.
type NuGetSource struct {
	baseURL string
	client  *http.Client
	logger  observability.Logger
}

// NewNuGetSource creates a NuGet version source. An empty baseURL uses the
// public registry.
func NewNuGetSource(baseURL string, logger observability.Logger) *NuGetSource {
	if baseURL == "" {
		baseURL = DefaultNuGetBaseURL
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &NuGetSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// LatestVersion returns the newest published version of the package. The
// flat-container index lists versions oldest first.
func (s *NuGetSource) LatestVersion(ctx context.Context, _, name string) (string, error) {
	url := s.baseURL + "/" + strings.ToLower(name) + "/index.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build nuget request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("nuget lookup failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nuget lookup returned %d for %s", resp.StatusCode, name)
	}

	var index struct {
		Versions []string `json:"versions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		return "", fmt.Errorf("failed to decode nuget index: %w", err)
	}
	if len(index.Versions) == 0 {
		return "", fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}

	return index.Versions[len(index.Versions)-1], nil
}
