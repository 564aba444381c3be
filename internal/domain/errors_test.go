package domain_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

func TestClassify_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, domain.Classify(nil))
}

func TestClassify_Table(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		err       error
		kind      domain.ErrKind
		retryable bool
	}{
		{"timed out message", errors.New("request timed out after 30s"), domain.KindTimeout, true},
		{"deadline exceeded", context.DeadlineExceeded, domain.KindTimeout, true},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), domain.KindTimeout, true},
		{"conn refused", syscall.ECONNREFUSED, domain.KindNetwork, true},
		{"conn reset", fmt.Errorf("write: %w", syscall.ECONNRESET), domain.KindNetwork, true},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("no route to host")}, domain.KindNetwork, true},
		{"status 429", &domain.StatusError{Code: 429}, domain.KindRateLimited, true},
		{"status 408", &domain.StatusError{Code: 408}, domain.KindServerFault, true},
		{"status 500", &domain.StatusError{Code: 500}, domain.KindServerFault, true},
		{"status 502", &domain.StatusError{Code: 502}, domain.KindServerFault, true},
		{"status 503", &domain.StatusError{Code: 503}, domain.KindServerFault, true},
		{"status 504", &domain.StatusError{Code: 504}, domain.KindServerFault, true},
		{"status 400", &domain.StatusError{Code: 400, Body: "bad request"}, domain.KindValidationFault, false},
		{"status 404", &domain.StatusError{Code: 404}, domain.KindValidationFault, false},
		{"status 422", &domain.StatusError{Code: 422}, domain.KindValidationFault, false},
		{"invalid argument sentinel", fmt.Errorf("%w: transcript too short", domain.ErrInvalidArgument), domain.KindValidationFault, false},
		{"unknown", errors.New("something odd"), domain.KindUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ce := domain.Classify(tc.err)
			require.NotNil(t, ce)
			assert.Equal(t, tc.kind, ce.Kind)
			assert.Equal(t, tc.retryable, ce.Retryable)
			assert.ErrorIs(t, ce, tc.err)
		})
	}
}

func TestClassify_PreClassifiedPassthrough(t *testing.T) {
	t.Parallel()
	orig := &domain.ClassifiedError{Kind: domain.KindValidationFault, Retryable: false, Err: errors.New("empty completion")}
	got := domain.Classify(fmt.Errorf("outer: %w", orig))
	assert.Same(t, orig, got)
}

func TestClassify_TimeoutBeatsStatus(t *testing.T) {
	t.Parallel()
	// A status error whose body mentions a timeout is still a timeout.
	err := fmt.Errorf("gateway: %w", &domain.StatusError{Code: 502, Body: "upstream timed out"})
	ce := domain.Classify(err)
	assert.Equal(t, domain.KindTimeout, ce.Kind)
	assert.True(t, ce.Retryable)
}

func TestStatusError_Error(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "status 503", (&domain.StatusError{Code: 503}).Error())
	assert.Equal(t, "status 429: slow down", (&domain.StatusError{Code: 429, Body: "slow down"}).Error())
}

func TestClassifiedError_Unwrap(t *testing.T) {
	t.Parallel()
	inner := errors.New("boom")
	ce := &domain.ClassifiedError{Kind: domain.KindUnknown, Err: inner}
	assert.ErrorIs(t, ce, inner)
	assert.Contains(t, ce.Error(), "unknown")
	assert.Contains(t, ce.Error(), "retryable=false")
}
