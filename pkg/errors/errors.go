package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, client-visible classification of a failure.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeConflict          Code = "CONFLICT"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeStorage           Code = "STORAGE_ERROR"
)

// Metadata describes how a code is surfaced over HTTP. ExposeMessage lets the
// caller's message replace PublicMessage in responses.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	ExposeMessage  bool
}

var metadataByCode = map[Code]Metadata{}

func register(code Code, status int, public string, opts ...func(*Metadata)) {
	meta := Metadata{HTTPStatus: status, PublicMessage: public}
	for _, opt := range opts {
		opt(&meta)
	}
	metadataByCode[code] = meta
}

func retryable(m *Metadata)   { m.Retryable = true }
func withDetails(m *Metadata) { m.DetailsAllowed = true }
func exposed(m *Metadata)     { m.ExposeMessage = true }

func init() {
	register(CodeValidation, http.StatusBadRequest, "validation failed", withDetails, exposed)
	register(CodeNotFound, http.StatusNotFound, "resource not found", exposed)
	register(CodeProductNotFound, http.StatusNotFound, "product not found", withDetails, exposed)
	register(CodeInsufficientStock, http.StatusConflict, "insufficient stock", withDetails, exposed)
	register(CodeConflict, http.StatusConflict, "conflict detected", exposed)
	register(CodeIdempotency, http.StatusConflict, "idempotency key reused", withDetails, exposed)
	register(CodeInternal, http.StatusInternalServerError, "internal server error")
	// A failed transaction rolls back completely, so the caller may retry.
	register(CodeStorage, http.StatusServiceUnavailable, "storage unavailable", retryable)
}

// MetadataFor returns the HTTP mapping for code, treating unknown codes as internal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// PublicMessage is the text safe to return to clients for this error.
func (e *Error) PublicMessage() string {
	meta := MetadataFor(e.Code())
	if meta.ExposeMessage && e.Message() != "" {
		return e.message
	}
	return meta.PublicMessage
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether err carries a typed error with the given code anywhere in its chain.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// As returns the outermost typed error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HTTPStatus maps any error to the status it would be served with.
func HTTPStatus(err error) int {
	return MetadataFor(As(err).Code()).HTTPStatus
}
