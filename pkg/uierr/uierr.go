// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

// Package uierr provides typed errors for the KubeBeaver UI. Every failure
// surfaced to a page or fragment carries a code so handlers can pick the
// right status and the retry layer can tell transient from permanent.
package uierr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode classifies UI errors for display and recovery decisions.
type ErrorCode string

const (
	// CodeInternal indicates an internal error in the UI itself.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates a bad form value or query parameter.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates the backend has no such record.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeBackend indicates the backend answered with a server error,
	// typically because the cluster or the LLM behind it failed.
	CodeBackend ErrorCode = "BACKEND_ERROR"

	// CodeTimeout indicates a backend call exceeded its deadline.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeUnavailable indicates the backend could not be reached at all.
	CodeUnavailable ErrorCode = "UNAVAILABLE"

	// CodeConfig indicates invalid or missing configuration.
	CodeConfig ErrorCode = "CONFIG_ERROR"
)

// Error is a typed error with context for logging and display. It implements
// the error interface and unwraps to its cause.
type Error struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]any
	Recoverable bool
	StatusCode  int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message     string         `json:"message"`
		Code        string         `json:"code"`
		Recoverable bool           `json:"recoverable"`
		Context     map[string]any `json:"context,omitempty"`
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Recoverable: e.Recoverable,
		Context:     e.Context,
	})
}

// New creates a typed error with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *Error {
	return &Error{
		Code:        code,
		Message:     msg,
		Err:         cause,
		Recoverable: codeRecoverable(code),
		StatusCode:  codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRecoverable overrides whether the retry layer may retry this error.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

// As attempts to view err as a typed *Error, wrapping unknown errors as
// internal. Returns nil for nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if ue, ok := err.(*Error); ok {
		return ue
	}
	return New(CodeInternal, "wrapped error", err)
}

// FromStatusCode maps a backend HTTP status to an error code. The backend
// reports bad requests as 400, missing records as 404 and cluster or LLM
// failures as 502.
func FromStatusCode(status int) ErrorCode {
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CodeTimeout
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
		return CodeBackend
	case status >= 400 && status < 500:
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeBackend, CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// codeRecoverable marks the transient codes: timeouts, unreachable backend
// and upstream 5xx are retry candidates, everything else is not.
func codeRecoverable(code ErrorCode) bool {
	switch code {
	case CodeTimeout, CodeUnavailable, CodeBackend:
		return true
	}
	return false
}
