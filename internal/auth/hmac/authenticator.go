package hmac

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/nonce"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
	"github.com/localstack-dotnet/badge-smith-sub002/internal/secrets"
)

// authTracer is the OTEL tracer used for authentication operations.
var authTracer = otel.Tracer("badgeapi/auth")

// signaturePrefix is the required scheme prefix on the signature header.
const signaturePrefix = "sha256="

// DefaultClockSkew is the maximum allowed difference between the declared
// request timestamp and server time.
const DefaultClockSkew = 5 * time.Minute

// Outcome classifies an authentication attempt.
type Outcome int

const (
	// OutcomeAuthenticated means every check passed and the nonce was consumed.
	OutcomeAuthenticated Outcome = iota

	// OutcomeInvalidSignature covers a missing or malformed signature header,
	// an unknown repository secret, and a signature mismatch.
	OutcomeInvalidSignature

	// OutcomeExpiredTimestamp covers a missing, unparseable, or out-of-window
	// timestamp header.
	OutcomeExpiredTimestamp

	// OutcomeReplayedNonce covers a missing nonce header and a nonce that was
	// already consumed.
	OutcomeReplayedNonce

	// OutcomeTransientFailure means a backing store could not answer; the
	// request is neither accepted nor proven invalid.
	OutcomeTransientFailure
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeInvalidSignature:
		return "invalid_signature"
	case OutcomeExpiredTimestamp:
		return "expired_timestamp"
	case OutcomeReplayedNonce:
		return "replayed_nonce"
	case OutcomeTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of an authentication attempt.
type Result struct {
	Outcome Outcome

	// Repository is set only when Outcome is OutcomeAuthenticated.
	Repository string

	// Reason is a short operator-facing explanation. It is logged, never
	// returned to callers, so it can name the failing check precisely.
	Reason string
}

// Authenticated builds a successful result for repository.
func Authenticated(repository string) Result {
	return Result{Outcome: OutcomeAuthenticated, Repository: repository}
}

// Request is the subset of an inbound request the authenticator inspects.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte

	// Repository identifies whose signing secret verifies this request,
	// in the form "{platform}/{owner}/{repo}". It comes from the matched
	// route's parameters, not from any header.
	Repository string
}

// Config holds the header names and freshness window for authentication.
type Config struct {
	SignatureHeader string
	TimestampHeader string
	NonceHeader     string
	ClockSkew       time.Duration
}

// DefaultConfig returns the default authentication configuration.
func DefaultConfig() Config {
	return Config{
		SignatureHeader: "X-Signature",
		TimestampHeader: "X-Timestamp",
		NonceHeader:     "X-Nonce",
		ClockSkew:       DefaultClockSkew,
	}
}

// Authenticator validates signed requests.
type Authenticator struct {
	config  Config
	secrets secrets.Provider
	nonces  *nonce.Service
	logger  observability.Logger
	now     func() time.Time
}

// AuthenticatorOption is a functional option for configuring the authenticator.
type AuthenticatorOption func(*Authenticator)

// WithAuthenticatorLogger sets the logger.
func WithAuthenticatorLogger(logger observability.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		a.now = now
	}
}

// NewAuthenticator creates an HMAC authenticator.
func NewAuthenticator(cfg Config, secretProvider secrets.Provider, nonces *nonce.Service, opts ...AuthenticatorOption) *Authenticator {
	if cfg.SignatureHeader == "" {
		cfg.SignatureHeader = "X-Signature"
	}
	if cfg.TimestampHeader == "" {
		cfg.TimestampHeader = "X-Timestamp"
	}
	if cfg.NonceHeader == "" {
		cfg.NonceHeader = "X-Nonce"
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = DefaultClockSkew
	}

	a := &Authenticator{
		config:  cfg,
		secrets: secretProvider,
		nonces:  nonces,
		logger:  observability.NopLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Authenticate validates the request's signature, timestamp, and nonce.
//
// Checks run cheapest-first and the nonce is consumed last, so a request
// that fails signature or timestamp validation never burns its nonce. On
// context cancellation or store failure the result is
// OutcomeTransientFailure, never OutcomeAuthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, req Request) Result {
	start := a.now()
	ctx, span := authTracer.Start(ctx, "auth.authenticate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("auth.repository", req.Repository),
			attribute.String("http.method", req.Method),
		),
	)
	defer span.End()

	result := a.authenticate(ctx, req)

	span.SetAttributes(attribute.String("auth.outcome", result.Outcome.String()))
	recordAttempt(result.Outcome, a.now().Sub(start))

	if result.Outcome != OutcomeAuthenticated {
		a.logger.Info("authentication rejected",
			observability.String("repository", req.Repository),
			observability.String("outcome", result.Outcome.String()),
			observability.String("reason", result.Reason))
	}

	return result
}

func (a *Authenticator) authenticate(ctx context.Context, req Request) Result {
	supplied, result, ok := a.extractSignature(req.Header)
	if !ok {
		return result
	}

	timestamp, result, ok := a.extractTimestamp(req.Header)
	if !ok {
		return result
	}

	nonceValue := req.Header.Get(a.config.NonceHeader)
	if nonceValue == "" {
		return Result{Outcome: OutcomeReplayedNonce, Reason: "nonce header missing"}
	}

	secret, err := a.secrets.GetSecret(ctx, req.Repository)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) || errors.Is(err, secrets.ErrInvalidPath) {
			return Result{Outcome: OutcomeInvalidSignature, Reason: "no signing secret for repository"}
		}
		return Result{Outcome: OutcomeTransientFailure, Reason: "secret lookup failed: " + err.Error()}
	}

	computed := ComputeSignature(secret.Value, req.Method, req.Path, req.Header.Get(a.config.TimestampHeader), req.Body)
	if !hmac.Equal(supplied, computed) {
		return Result{Outcome: OutcomeInvalidSignature, Reason: "signature mismatch"}
	}

	status, err := a.nonces.ValidateAndMark(ctx, req.Repository, nonceValue, timestamp)
	if err != nil {
		return Result{Outcome: OutcomeTransientFailure, Reason: "nonce store failed: " + err.Error()}
	}
	if status == nonce.StatusAlreadyUsed {
		return Result{Outcome: OutcomeReplayedNonce, Reason: "nonce already consumed"}
	}

	return Authenticated(req.Repository)
}

// extractSignature parses the signature header into raw HMAC bytes.
func (a *Authenticator) extractSignature(header http.Header) ([]byte, Result, bool) {
	value := header.Get(a.config.SignatureHeader)
	if value == "" {
		return nil, Result{Outcome: OutcomeInvalidSignature, Reason: "signature header missing"}, false
	}
	if !strings.HasPrefix(value, signaturePrefix) {
		return nil, Result{Outcome: OutcomeInvalidSignature, Reason: "signature scheme not sha256"}, false
	}
	raw, err := hex.DecodeString(value[len(signaturePrefix):])
	if err != nil || len(raw) != sha256.Size {
		return nil, Result{Outcome: OutcomeInvalidSignature, Reason: "signature not valid hex"}, false
	}
	return raw, Result{}, true
}

// extractTimestamp parses the Unix-seconds timestamp header and checks it
// against the clock-skew window.
func (a *Authenticator) extractTimestamp(header http.Header) (time.Time, Result, bool) {
	value := header.Get(a.config.TimestampHeader)
	if value == "" {
		return time.Time{}, Result{Outcome: OutcomeExpiredTimestamp, Reason: "timestamp header missing"}, false
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, Result{Outcome: OutcomeExpiredTimestamp, Reason: "timestamp not unix seconds"}, false
	}

	timestamp := time.Unix(seconds, 0)
	skew := a.now().Sub(timestamp)
	if skew < 0 {
		skew = -skew
	}
	if skew > a.config.ClockSkew {
		return time.Time{}, Result{Outcome: OutcomeExpiredTimestamp, Reason: "timestamp outside skew window"}, false
	}
	return timestamp, Result{}, true
}

// ComputeSignature computes the HMAC-SHA256 signature over the canonical
// request representation:
//
//	METHOD \n PATH \n TIMESTAMP \n hex(SHA256(body))
//
// Exported so that test helpers and clients can produce matching signatures.
func ComputeSignature(secret []byte, method, path, timestamp string, body []byte) []byte {
	bodyHash := sha256.Sum256(body)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strings.ToUpper(method)))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(path))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(hex.EncodeToString(bodyHash[:])))
	return mac.Sum(nil)
}

// EncodeSignature renders a raw HMAC as the header value format
// "sha256=<hex>". Exported for test helpers and clients.
func EncodeSignature(raw []byte) string {
	return signaturePrefix + hex.EncodeToString(raw)
}
