// Package results stores the latest test run per repository branch. Badge
// handlers read it to render test badges and redirect to the run's HTML
// page; the protected ingestion endpoint writes it. Only the most recent
// run per (platform, owner, repo, branch) is kept.
package results
