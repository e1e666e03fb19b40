package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Kind classifies every failure the pipeline can produce. API kinds map
// one-to-one onto the upstream status codes; the remaining kinds cover the
// local failure modes (date parsing, report I/O, configuration, transport).
type Kind string

const (
	KindBadRequest         Kind = "bad_request"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindUnprocessable      Kind = "unprocessable"
	KindServiceUnavailable Kind = "service_unavailable"
	KindTransport          Kind = "transport"
	KindUnknown            Kind = "unknown"
	KindDateParse          Kind = "date_parse"
	KindIO                 Kind = "io"
	KindConfiguration      Kind = "configuration"
)

// AppError wraps an errbuilder error with the pipeline's classification and,
// for API failures, the upstream status code.
type AppError struct {
	*errbuilder.ErrBuilder
	Kind       Kind `json:"kind"`
	StatusCode int  `json:"status_code,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// Fatal reports whether the error must halt the whole run. Only an
// authentication failure is fatal; everything else is reported and skipped.
func (e *AppError) Fatal() bool {
	return e.Kind == KindUnauthorized
}

// ClassifyStatus maps an API status code onto an error Kind. Every non-2xx
// response gets a kind; nothing is silently dropped.
func ClassifyStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnprocessableEntity:
		return KindUnprocessable
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

func codeFor(kind Kind) errbuilder.ErrCode {
	switch kind {
	case KindBadRequest, KindUnprocessable:
		return errbuilder.CodeInvalidArgument
	case KindUnauthorized:
		return errbuilder.CodeUnauthenticated
	case KindForbidden:
		return errbuilder.CodePermissionDenied
	case KindNotFound:
		return errbuilder.CodeNotFound
	case KindServiceUnavailable, KindTransport:
		return errbuilder.CodeUnavailable
	case KindConfiguration:
		return errbuilder.CodeFailedPrecondition
	case KindIO, KindDateParse:
		return errbuilder.CodeInternal
	default:
		return errbuilder.CodeUnknown
	}
}

// NewAPIError builds a classified error for a non-2xx API response. Detail is
// the message extracted from the response body, or a generic per-status string.
func NewAPIError(statusCode int, detail string) *AppError {
	kind := ClassifyStatus(statusCode)

	errMap := errbuilder.ErrorMap{}
	errMap.Set("status_code", fmt.Errorf("%d", statusCode))

	builder := errbuilder.New().
		WithCode(codeFor(kind)).
		WithMsg(detail).
		WithDetails(errbuilder.NewErrDetails(errMap))

	return &AppError{ErrBuilder: builder, Kind: kind, StatusCode: statusCode}
}

// NewTransportError wraps a network-layer fault. Transport failures are
// recoverable per target, never fatal.
func NewTransportError(cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg("transport failure").
		WithCause(cause)

	return &AppError{ErrBuilder: builder, Kind: KindTransport}
}

// NewDateParseError marks one alert whose timestamp field is missing or
// malformed. The alert is skipped; the target and the run continue.
func NewDateParseError(field, value string) *AppError {
	errMap := errbuilder.ErrorMap{}
	errMap.Set(field, errors.New(value))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("unparsable timestamp in %q", field)).
		WithDetails(errbuilder.NewErrDetails(errMap))

	return &AppError{ErrBuilder: builder, Kind: KindDateParse}
}

// NewIOError wraps a report emission failure.
func NewIOError(msg string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(cause)

	return &AppError{ErrBuilder: builder, Kind: KindIO}
}

// NewConfigurationError wraps a configuration loading or validation failure.
func NewConfigurationError(msg string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(msg)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return &AppError{ErrBuilder: builder, Kind: KindConfiguration}
}

// ToAppError converts any error into an AppError so the aggregator has one
// uniform decision point for fatal-vs-recoverable handling.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return NewTransportError(err)
}

// IsFatal reports whether err must halt the whole run.
func IsFatal(err error) bool {
	appErr := ToAppError(err)
	return appErr != nil && appErr.Fatal()
}
