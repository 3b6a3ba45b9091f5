package results

import (
	"context"
	"fmt"
	"time"
)

// TestRun is one recorded test run for a repository branch.
type TestRun struct {
	Platform string `json:"platform"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	Branch   string `json:"branch"`

	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`

	// URL is the HTML page of the run, used by the redirect endpoint.
	URL    string `json:"url_html,omitempty"`
	Commit string `json:"commit,omitempty"`

	// Timestamp is when the run executed, supplied by the caller.
	Timestamp time.Time `json:"timestamp"`

	// RecordedAt is when the run was stored.
	RecordedAt time.Time `json:"recorded_at"`
}

// Validate checks the run for inconsistent counts.
func (r *TestRun) Validate() error {
	if r.Passed < 0 || r.Failed < 0 || r.Skipped < 0 || r.Total < 0 {
		return fmt.Errorf("test counts must be non-negative")
	}
	if r.Total != 0 && r.Passed+r.Failed+r.Skipped > r.Total {
		return fmt.Errorf("passed+failed+skipped exceeds total")
	}
	return nil
}

// Passing reports whether the run had no failures.
func (r *TestRun) Passing() bool {
	return r.Failed == 0
}

// Key builds the storage key for a repository branch.
func Key(platform, owner, repo, branch string) string {
	return "RESULT#" + platform + "/" + owner + "/" + repo + "#" + branch
}

// Store persists the latest test run per repository branch.
type Store interface {
	// PutLatest overwrites the stored run for the run's branch.
	PutLatest(ctx context.Context, run *TestRun) error

	// GetLatest returns the stored run for the branch, or
	// util.ErrNotFound when none exists.
	GetLatest(ctx context.Context, platform, owner, repo, branch string) (*TestRun, error)

	// Close releases store resources.
	Close() error
}
