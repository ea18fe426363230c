// Package errors defines the typed error taxonomy used across the legal
// compliance backend. Handlers translate an AppError into an HTTP status and
// a stable code; pipeline stages translate it into a terminal SSE error
// event.
package errors

import (
	"fmt"
	"net/http"
)

// Kind names one error category from the propagation taxonomy. Kinds do not
// map one-to-one to Go types: several Kinds share the AppError struct and are
// distinguished by this field alone.
type Kind string

const (
	KindEmptyInput            Kind = "EmptyInput"
	KindUnsupportedFormat     Kind = "UnsupportedFormat"
	KindTooLarge              Kind = "TooLarge"
	KindInvalidConversationID Kind = "InvalidConversationId"
	KindInvalidID             Kind = "InvalidId"
	KindInvalidModelType      Kind = "InvalidModelType"
	KindUnauthenticated       Kind = "Unauthenticated"
	KindForbidden             Kind = "Forbidden"
	KindSessionNotFound       Kind = "SessionNotFound"
	KindReviewNotFound        Kind = "ReviewNotFound"
	KindDocumentNotFound      Kind = "DocumentNotFound"
	KindEmbeddingUnavailable  Kind = "EmbeddingUnavailable"
	KindEmbeddingBadRequest   Kind = "EmbeddingBadRequest"
	KindModelUnavailable      Kind = "ModelUnavailable"
	KindModelTimeout          Kind = "ModelTimeout"
	KindVectorStoreUnavailable Kind = "VectorStoreUnavailable"
	KindParseFailure          Kind = "ParseFailure"
	KindLLMResponseUnparseable Kind = "LLMResponseUnparseable"
	KindAlreadyClaimed       Kind = "AlreadyClaimed"
	KindConfigError          Kind = "ConfigError"
	KindInvariant            Kind = "Invariant"
	KindEmptyDocument        Kind = "EmptyDocument"
	KindNotImplemented       Kind = "NotImplemented"
)

// retryable upstream kinds, per §7: retried with backoff for idempotent ops.
var retryableKinds = map[Kind]bool{
	KindEmbeddingUnavailable:   true,
	KindModelUnavailable:       true,
	KindVectorStoreUnavailable: true,
}

// AppError is the single error type returned across component boundaries.
type AppError struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Retryable reports whether the error's kind is eligible for automatic
// backoff-retry on an idempotent caller-side operation (search, embed).
func (e *AppError) Retryable() bool { return retryableKinds[e.Kind] }

func new(kind Kind, status int, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Status: status, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, status int, cause error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Status: status, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func NewBadRequestError(kind Kind, format string, args ...any) *AppError {
	return new(kind, http.StatusBadRequest, format, args...)
}

func NewUnauthorizedError(format string, args ...any) *AppError {
	return new(KindUnauthenticated, http.StatusUnauthorized, format, args...)
}

func NewForbiddenError(format string, args ...any) *AppError {
	return new(KindForbidden, http.StatusForbidden, format, args...)
}

func NewNotFoundError(kind Kind, format string, args ...any) *AppError {
	return new(kind, http.StatusNotFound, format, args...)
}

func NewUpstreamError(kind Kind, cause error, format string, args ...any) *AppError {
	return wrap(kind, http.StatusBadGateway, cause, format, args...)
}

func NewPipelineError(kind Kind, cause error, format string, args ...any) *AppError {
	return wrap(kind, http.StatusUnprocessableEntity, cause, format, args...)
}

func NewInternalServerError(cause error, format string, args ...any) *AppError {
	return wrap(KindInvariant, http.StatusInternalServerError, cause, format, args...)
}

func NewConfigError(format string, args ...any) *AppError {
	return new(KindConfigError, http.StatusInternalServerError, format, args...)
}

func NewNotImplementedError(format string, args ...any) *AppError {
	return new(KindNotImplemented, http.StatusNotImplemented, format, args...)
}

// As extracts an *AppError from err, or nil if err is not (or does not wrap) one.
func As(err error) *AppError {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ae, ok := err.(*AppError); ok {
			return ae
		}
		u, ok := err.(unwrapper)
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
