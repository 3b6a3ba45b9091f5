package packages

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// DefaultGitHubBaseURL is the GitHub REST API endpoint.
const DefaultGitHubBaseURL = "https://api.github.com"

// GitHubSource resolves NuGet-type package versions published to GitHub
// Packages. Lookups require a token with read:packages scope.
type GitHubSource struct {
	baseURL string
	token   string
	client  *http.Client
	logger  observability.Logger
}

// NewGitHubSource creates a GitHub Packages version source. An empty
// baseURL uses the public API.
func NewGitHubSource(baseURL, token string, logger observability.Logger) *GitHubSource {
	if baseURL == "" {
		baseURL = DefaultGitHubBaseURL
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &GitHubSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// LatestVersion returns the newest package version in the organization.
// GitHub orders versions newest first.
func (s *GitHubSource) LatestVersion(ctx context.Context, org, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/orgs/%s/packages/nuget/%s/versions?per_page=1",
		s.baseURL, url.PathEscape(org), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github lookup failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s/%s", ErrPackageNotFound, org, name)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github lookup returned %d for %s/%s", resp.StatusCode, org, name)
	}

	var versions []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&versions); err != nil {
		return "", fmt.Errorf("failed to decode github versions: %w", err)
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrPackageNotFound, org, name)
	}

	return versions[0].Name, nil
}
