// Package domain defines entities, ports, and the error classification
// policy shared by every adapter.
package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrKind labels a classified failure.
type ErrKind string

const (
	KindNetwork         ErrKind = "network"
	KindTimeout         ErrKind = "timeout"
	KindRateLimited     ErrKind = "rate_limited"
	KindServerFault     ErrKind = "server_fault"
	KindValidationFault ErrKind = "validation_fault"
	KindUnknown         ErrKind = "unknown"
)

// ClassifiedError annotates a raw failure with a kind and a retryability
// decision. The original error is preserved for logging and errors.Is checks;
// it is never shown verbatim to end users.
type ClassifiedError struct {
	Kind      ErrKind
	Retryable bool
	Err       error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s (retryable=%t): %v", e.Kind, e.Retryable, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// StatusError carries an HTTP status from an adapter to the classifier.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("status %d", e.Code)
}

// retryableStatuses per the classification policy: request timeout, provider
// rate limit, and transient server faults.
var retryableStatuses = map[int]bool{408: true, 429: true, 500: true, 502: true, 503: true, 504: true}

// Classify maps a raw failure to a ClassifiedError. Pure; checked in order,
// first match wins:
//  1. a "timed out" message (or a context deadline) → Timeout, retryable
//  2. connection refused/reset, socket and dial failures → Network, retryable
//  3. HTTP 408/429/500/502/503/504 → RateLimited (429) or ServerFault, retryable
//  4. any other 4xx → ValidationFault, not retryable
//  5. anything else → Unknown, not retryable
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timed out") || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Kind: KindTimeout, Retryable: true, Err: err}
	}

	if isNetworkErr(err) {
		return &ClassifiedError{Kind: KindNetwork, Retryable: true, Err: err}
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == 429:
			return &ClassifiedError{Kind: KindRateLimited, Retryable: true, Err: err}
		case retryableStatuses[se.Code]:
			return &ClassifiedError{Kind: KindServerFault, Retryable: true, Err: err}
		case se.Code >= 400 && se.Code < 500:
			return &ClassifiedError{Kind: KindValidationFault, Retryable: false, Err: err}
		}
	}

	if errors.Is(err, ErrInvalidArgument) {
		return &ClassifiedError{Kind: KindValidationFault, Retryable: false, Err: err}
	}

	return &ClassifiedError{Kind: KindUnknown, Retryable: false, Err: err}
}

func isNetworkErr(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
