package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/config"
)

// CORSPolicy holds pre-computed cross-origin response header values. The
// router applies the policy to every response and uses it to answer
// preflight requests; allowed methods are per-path, so the router supplies
// them at apply time.
type CORSPolicy struct {
	allowOrigins     map[string]bool
	wildcardPatterns []string
	allowAllOrigins  bool
	allowHeaders     string
	exposeHeaders    string
	maxAge           string
	allowCredentials bool
}

// NewCORSPolicy compiles a cross-origin policy from config.
func NewCORSPolicy(cfg config.CORSConfig) *CORSPolicy {
	allowOrigins := make(map[string]bool)
	var wildcardPatterns []string
	allowAllOrigins := false

	for _, origin := range cfg.AllowOrigins {
		switch {
		case origin == "*":
			allowAllOrigins = true
		case strings.HasPrefix(origin, "*."):
			wildcardPatterns = append(wildcardPatterns, origin)
		default:
			allowOrigins[origin] = true
		}
	}

	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return &CORSPolicy{
		allowOrigins:     allowOrigins,
		wildcardPatterns: wildcardPatterns,
		allowAllOrigins:  allowAllOrigins,
		allowHeaders:     strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders:    strings.Join(cfg.ExposeHeaders, ", "),
		maxAge:           maxAge,
		allowCredentials: cfg.AllowCredentials,
	}
}

// OriginAllowed reports whether origin passes the policy.
func (p *CORSPolicy) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if p.allowAllOrigins || p.allowOrigins[origin] {
		return true
	}
	for _, pattern := range p.wildcardPatterns {
		if matchWildcardOrigin(origin, pattern) {
			return true
		}
	}
	return false
}

// matchWildcardOrigin matches "https://sub.example.com" against a pattern
// like "*.example.com". At least one subdomain label is required.
func matchWildcardOrigin(origin, pattern string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	suffix := pattern[1:]

	host := origin
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	return len(host) > len(suffix) && strings.HasSuffix(host, suffix)
}

// Apply sets cross-origin headers on header. allowMethods is the
// comma-joined method list for the request's path.
func (p *CORSPolicy) Apply(header http.Header, origin, allowMethods string) {
	if p.OriginAllowed(origin) {
		// Echo the specific origin; required when credentials are allowed.
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Vary", "Origin")
	}
	if allowMethods != "" {
		header.Set("Access-Control-Allow-Methods", allowMethods)
	}
	if p.allowHeaders != "" {
		header.Set("Access-Control-Allow-Headers", p.allowHeaders)
	}
	if p.exposeHeaders != "" {
		header.Set("Access-Control-Expose-Headers", p.exposeHeaders)
	}
	if p.allowCredentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.maxAge != "" {
		header.Set("Access-Control-Max-Age", p.maxAge)
	}
}
