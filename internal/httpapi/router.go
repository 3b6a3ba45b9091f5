package httpapi

import (
	"context"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/auth/hmac"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/middleware"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/routing"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/util"
)

// maxBodyBytes caps how much request body the router will read. Badge
// result payloads are small; anything larger is rejected.
const maxBodyBytes = 1 << 20

// Authenticator validates a protected request. Satisfied by
// *hmac.Authenticator; tests substitute fakes.
type Authenticator interface {
	Authenticate(ctx context.Context, req hmac.Request) hmac.Result
}

// Router dispatches requests against an immutable route table. It is safe
// for concurrent use; all of its state is built at construction time and
// read-only afterwards.
type Router struct {
	resolver      *routing.Resolver[Handler]
	authenticator Authenticator
	cors          *middleware.CORSPolicy
	logger        observability.Logger
}

// RouterOption is a functional option for configuring the router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger.
func WithRouterLogger(logger observability.Logger) RouterOption {
	return func(rt *Router) {
		rt.logger = logger
	}
}

// WithCORSPolicy sets the cross-origin policy applied to every response.
func WithCORSPolicy(policy *middleware.CORSPolicy) RouterOption {
	return func(rt *Router) {
		rt.cors = policy
	}
}

// WithAuthenticator sets the authenticator consulted for protected routes.
// Without one, every protected route answers 401.
func WithAuthenticator(authenticator Authenticator) RouterOption {
	return func(rt *Router) {
		rt.authenticator = authenticator
	}
}

// NewRouter creates a router over the given route table.
func NewRouter(table *routing.Table[Handler], opts ...RouterOption) *Router {
	rt := &Router{
		resolver: routing.NewResolver(table),
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(rt)
	}

	return rt
}

// ServeHTTP implements http.Handler.
//
// Dispatch order: preflight short-circuit, resolution, 404/405, optional
// authentication, handler invocation. The cross-origin policy is applied
// to every response, error responses included, and a handler panic becomes
// a generic 500 without leaking details to the caller.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	origin := r.Header.Get("Origin")
	requestID := observability.RequestIDFromContext(r.Context())

	routeName := "unmatched"
	capture := util.NewStatusCapturingResponseWriter(w)
	allow := rt.allowMethods(r.URL.Path)

	defer func() {
		if rec := recover(); rec != nil {
			rt.logger.Error("handler panic",
				observability.String("path", r.URL.Path),
				observability.String("request_id", requestID),
				observability.Any("panic", rec),
				observability.String("stack", string(debug.Stack())))
			if !capture.HeaderWritten {
				rt.applyCORS(capture, origin, allow)
				util.WriteError(capture, http.StatusInternalServerError, "internal server error")
			}
		}
		observeRequest(routeName, r.Method, capture.StatusCode, time.Since(start))
	}()

	if r.Method == http.MethodOptions {
		routeName = "preflight"
		rt.preflight(capture, origin, allow)
		return
	}

	values := rt.resolver.AcquireValues()
	desc, ok := rt.resolver.TryResolve(r.Method, r.URL.Path, values)
	if !ok {
		rt.resolver.ReleaseValues(values)
		rt.miss(capture, r, origin, allow)
		return
	}

	routeName = desc.Name
	params := values.Materialize()
	rt.resolver.ReleaseValues(values)

	body, err := readBody(r)
	if err != nil {
		rt.applyCORS(capture, origin, allow)
		util.WriteError(capture, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if desc.RequiresAuth {
		if !rt.authenticate(capture, r, origin, allow, params, body) {
			return
		}
	}

	req := &Request{
		Method:    r.Method,
		Path:      r.URL.Path,
		Header:    r.Header,
		Body:      body,
		Params:    params,
		RequestID: requestID,
	}

	resp, err := desc.Handler(r.Context(), req)
	if err != nil {
		rt.logger.Error("handler failed",
			observability.String("route", desc.Name),
			observability.String("request_id", requestID),
			observability.Error(err))
		rt.applyCORS(capture, origin, allow)
		util.WriteError(capture, http.StatusInternalServerError, "internal server error")
		return
	}

	rt.writeResponse(capture, r, origin, allow, resp)
}

// allowMethods returns a memoized view of the methods allowed on path.
// Every response consults the Allow list at most once, so the table is
// re-scanned at most once per request.
func (rt *Router) allowMethods(path string) func() []string {
	var methods []string
	computed := false
	return func() []string {
		if !computed {
			methods = rt.resolver.AllowedMethods(path)
			computed = true
		}
		return methods
	}
}

// preflight answers an OPTIONS request with the methods allowed on the
// path. An OPTIONS request for a path with no routes is a 404.
func (rt *Router) preflight(w http.ResponseWriter, origin string, allow func() []string) {
	if !hasNonOptions(allow()) {
		rt.applyCORS(w, origin, allow)
		util.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	joined := strings.Join(allow(), ", ")
	w.Header().Set("Allow", joined)
	if rt.cors != nil {
		rt.cors.Apply(w.Header(), origin, joined)
	}
	w.WriteHeader(http.StatusNoContent)
}

// miss distinguishes 405 (path exists under another method) from 404.
func (rt *Router) miss(w http.ResponseWriter, r *http.Request, origin string, allow func() []string) {
	rt.applyCORS(w, origin, allow)

	if hasNonOptions(allow()) {
		missErr := util.NewMethodNotAllowedError(r.Method, r.URL.Path, allow())
		rt.logger.Debug("request missed route table", observability.Error(missErr))
		w.Header().Set("Allow", strings.Join(missErr.Allowed, ", "))
		util.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rt.logger.Debug("request missed route table",
		observability.Error(util.NewRouteNotFoundError(r.Method, r.URL.Path)))
	util.WriteError(w, http.StatusNotFound, "not found")
}

// authenticate runs the authenticator for a protected route and writes the
// rejection response on failure. The handler is never invoked unless this
// returns true.
func (rt *Router) authenticate(w http.ResponseWriter, r *http.Request, origin string, allow func() []string, params map[string]string, body []byte) bool {
	if rt.authenticator == nil {
		rt.applyCORS(w, origin, allow)
		util.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}

	result := rt.authenticator.Authenticate(r.Context(), hmac.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Header:     r.Header,
		Body:       body,
		Repository: repositoryFromParams(params),
	})

	switch result.Outcome {
	case hmac.OutcomeAuthenticated:
		return true
	case hmac.OutcomeTransientFailure:
		rt.applyCORS(w, origin, allow)
		w.Header().Set("Retry-After", "1")
		util.WriteError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	default:
		// The response never says which check failed.
		rt.applyCORS(w, origin, allow)
		util.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
}

func (rt *Router) writeResponse(w http.ResponseWriter, r *http.Request, origin string, allow func() []string, resp *Response) {
	if resp == nil {
		resp = NewResponse(http.StatusNoContent)
	}

	for key, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}
	rt.applyCORS(w, origin, allow)

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	// HEAD responses carry headers only.
	if r.Method != http.MethodHead && len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func (rt *Router) applyCORS(w http.ResponseWriter, origin string, allow func() []string) {
	if rt.cors == nil {
		return
	}
	rt.cors.Apply(w.Header(), origin, strings.Join(allow(), ", "))
}

// repositoryFromParams builds the "{platform}/{owner}/{repo}" secret
// identity from route parameters.
func repositoryFromParams(params map[string]string) string {
	return params["platform"] + "/" + params["owner"] + "/" + params["repo"]
}

func hasNonOptions(methods []string) bool {
	for _, m := range methods {
		if m != http.MethodOptions {
			return true
		}
	}
	return false
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return body, nil
}
