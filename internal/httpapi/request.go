package httpapi

import (
	"context"
	"net/http"
)

// Request is the immutable snapshot a handler receives. It is built once
// by the router after resolution and authentication; handlers must not
// mutate it.
type Request struct {
	// Method is the original request method (HEAD is not folded to GET
	// here; folding only affects route matching).
	Method string

	// Path is the raw request path.
	Path string

	// Header holds the request headers.
	Header http.Header

	// Body is the fully read request body. Empty slice for bodyless
	// requests.
	Body []byte

	// Params holds the route parameters extracted during resolution.
	// Nil when the matched pattern has no parameters.
	Params map[string]string

	// RequestID is the correlation ID assigned by the request ID
	// middleware, if any.
	RequestID string
}

// Param returns the named route parameter, or "" when absent.
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// Response is what a handler returns. The router writes it out verbatim
// after applying the cross-origin policy.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a response with an initialized header map.
func NewResponse(status int) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
	}
}

// WithHeader sets a response header and returns the response.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// WithBody sets the response body and returns the response.
func (r *Response) WithBody(body []byte) *Response {
	r.Body = body
	return r
}

// Handler processes one request. A returned error becomes a generic 500;
// handlers that want a specific error status return a Response carrying it.
type Handler func(ctx context.Context, req *Request) (*Response, error)
