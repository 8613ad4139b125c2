// Package ferrors provides the engine's unified error taxonomy.
package ferrors

import (
	"fmt"
	"net/http"
)

// Kind is the closed set of error kinds that cross component boundaries.
// The LLM gateway and its provider adapters normalize their failures into
// one of these. The storage adapters (postgres, redis, milvus) return plain
// wrapped errors with no Kind, and As reports such an error as
// PROVIDER_ERROR.
type Kind string

const (
	KindConfig              Kind = "CONFIG"
	KindTimeout             Kind = "TIMEOUT"
	KindRateLimit           Kind = "RATE_LIMIT"
	KindAuth                Kind = "AUTH"
	KindContextOverflow     Kind = "CONTEXT_OVERFLOW"
	KindProviderError       Kind = "PROVIDER_ERROR"
	KindNetwork             Kind = "NETWORK"
	KindStorage             Kind = "STORAGE"
	KindParse               Kind = "PARSE"
	KindValidation          Kind = "VALIDATION"
	KindConsistencyBlock    Kind = "CONSISTENCY_BLOCK"
	KindNotFound            Kind = "NOT_FOUND"
	KindConcurrencyConflict Kind = "CONCURRENCY_CONFLICT"
	KindCancelled           Kind = "CANCELLED"
)

// retryable is the set of kinds the LLM gateway will retry with backoff.
var retryable = map[Kind]bool{
	KindTimeout:       true,
	KindRateLimit:     true,
	KindNetwork:       true,
	KindProviderError: true,
}

// Retryable reports whether a failure of this kind should be retried by
// the gateway's backoff policy. AUTH and CONTEXT_OVERFLOW are deliberately
// excluded: retrying them can never succeed.
func (k Kind) Retryable() bool {
	return retryable[k]
}

// Error is the engine's structured error type. It carries a Kind for
// programmatic routing, a human message, and optionally the error it wraps.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches additional non-sensitive context to the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap annotates an existing error with a Kind, normalizing it for callers
// that only ever want to branch on the closed Kind set.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// As extracts an *Error from err, normalizing anything else to
// PROVIDER_ERROR so callers can always branch on Kind.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return Wrap(err, KindProviderError, "unclassified error")
}

// Retryable is safe to call on a plain error: non-Error values are treated
// as not retryable.
func Retryable(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind.Retryable()
}

// ClassifyHTTPStatus maps a provider's HTTP status code to the engine's
// closed failure-kind set. Lives here rather than in the llm gateway
// package so every provider adapter can call it without importing back
// into the package that imports them.
func ClassifyHTTPStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	case status == 408:
		return KindTimeout
	case status >= 500:
		return KindProviderError
	case status == 413:
		return KindContextOverflow
	default:
		return KindProviderError
	}
}

// HTTPStatus is a convenience mapping kept for the benefit of an HTTP
// collaborator layered on top of this engine; the engine itself never
// serves HTTP.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation, KindParse:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConcurrencyConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindContextOverflow:
		return http.StatusRequestEntityTooLarge
	case KindCancelled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common conditions.
var (
	ErrNotFound            = New(KindNotFound, "resource not found")
	ErrValidation          = New(KindValidation, "validation failed")
	ErrConcurrencyConflict = New(KindConcurrencyConflict, "concurrency conflict")
	ErrCancelled           = New(KindCancelled, "operation cancelled")
)
