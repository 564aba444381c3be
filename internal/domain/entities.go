package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrInternal          = errors.New("internal error")
)

// Summary is the structured output of a summarization call.
type Summary struct {
	Content     string
	Model       string
	TokensUsed  int
	PromptEst   int
	Cached      bool
	GeneratedAt time.Time
}

// SummaryRecord is a persisted summary for the history endpoint.
type SummaryRecord struct {
	ID             string
	TranscriptHash string
	Content        string
	Model          string
	TokensUsed     int
	CreatedAt      time.Time
}

// EmailMessage is the caller-facing shape of an outbound summary email.
// Recipients must be non-empty and syntactically valid; the mail adapter
// rejects anything else before touching the transport.
type EmailMessage struct {
	Recipients []string
	Subject    string
	Summary    string
	SenderName string
}

// EmailReceipt is returned by the mail adapter on a successful send.
type EmailReceipt struct {
	MessageID  string
	Recipients []string
	SentAt     time.Time
}

// SummarizeOptions tune a single summarization call.
// Zero values fall back to configured defaults.
type SummarizeOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// AIClient (port)

type AIClient interface {
	// GenerateSummary returns the provider's completion for the transcript.
	// An empty completion is a validation fault even on a 2xx response.
	GenerateSummary(ctx Context, transcript, customPrompt string, opts SummarizeOptions) (Summary, error)
}

// Mailer (port)

type Mailer interface {
	SendSummaryEmail(ctx Context, msg EmailMessage) (EmailReceipt, error)
}

// SummaryRepository (port) — optional history sink.

type SummaryRepository interface {
	Create(ctx Context, rec SummaryRecord) (string, error)
	ListRecent(ctx Context, limit int) ([]SummaryRecord, error)
}

// Context is an alias to keep domain signatures decoupled from std context.
type Context = context.Context
