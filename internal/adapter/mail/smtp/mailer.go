// Package smtp implements the summary mailer over an SMTP relay.
package smtp

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/go-playground/validator/v10"
	mail "github.com/wneessen/go-mail"

	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/observability"
	"github.com/fairyhunter13/meeting-summarizer/internal/config"
	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
	"github.com/fairyhunter13/meeting-summarizer/internal/resilience"
)

// Caller-safe bounds applied before composing.
const (
	maxSubjectLen    = 100
	maxSenderNameLen = 50
)

// Mailer implements domain.Mailer against an SMTP relay.
type Mailer struct {
	cfg     config.Config
	client  *mail.Client
	policy  resilience.Policy
	timeout time.Duration
	stats   *observability.CallStats
	vld     *validator.Validate

	mu         sync.Mutex
	lastSentAt time.Time
}

// New constructs a Mailer. The SMTP connection is dialed per send; only the
// client configuration is prepared here.
func New(cfg config.Config, stats *observability.CallStats) (*Mailer, error) {
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("%w: SMTP_HOST and SMTP_FROM required", domain.ErrInvalidArgument)
	}
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	maxAttempts, baseDelay := cfg.EmailRetry()
	return &Mailer{
		cfg:     cfg,
		client:  client,
		policy:  resilience.Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Jitter: cfg.RetryJitter},
		timeout: cfg.EmailTimeout,
		stats:   stats,
		vld:     validator.New(),
	}, nil
}

// SendSummaryEmail validates and sends msg. Invalid recipients are rejected
// before the timeout guard or retry engine ever run, so no transport work
// starts for a bad request. Delivery is at-least-once: a timeout racing the
// relay's accept can yield a duplicate send on retry.
func (m *Mailer) SendSummaryEmail(ctx domain.Context, em domain.EmailMessage) (domain.EmailReceipt, error) {
	if err := m.validateRecipients(em.Recipients); err != nil {
		return domain.EmailReceipt{}, err
	}

	subject := truncate(em.Subject, maxSubjectLen)
	if subject == "" {
		subject = "Meeting Summary"
	}
	sender := truncate(em.SenderName, maxSenderNameLen)

	onAttempt := func(index int, latency time.Duration, err error) {
		m.stats.RecordAttempt(index, latency, err)
		if index > 0 {
			observability.RetriesTotal.WithLabelValues("email_send").Inc()
		}
	}

	receipt, err := resilience.Do(ctx, m.policy, onAttempt, func(ctx domain.Context) (domain.EmailReceipt, error) {
		return resilience.WithTimeout(ctx, m.timeout, func(ctx domain.Context) (domain.EmailReceipt, error) {
			return m.sendOnce(ctx, em.Recipients, sender, subject, em.Summary)
		})
	})
	if err != nil {
		observability.EmailsFailedTotal.Inc()
		slog.Error("email send failed after retries",
			slog.Int("recipients", len(em.Recipients)),
			slog.Any("error", err))
		return domain.EmailReceipt{}, fmt.Errorf("send summary email: %w", err)
	}

	observability.EmailsSentTotal.Inc()
	m.stats.AddTokens(len(em.Summary))
	m.mu.Lock()
	m.lastSentAt = receipt.SentAt
	m.mu.Unlock()
	slog.Info("summary email sent",
		slog.String("message_id", receipt.MessageID),
		slog.Int("recipients", len(receipt.Recipients)))
	return receipt, nil
}

// LastSentAt reports when the most recent send was accepted; zero if none.
func (m *Mailer) LastSentAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSentAt
}

// sendOnce composes and delivers one message. The message is rebuilt per
// attempt so a half-written envelope is never reused.
func (m *Mailer) sendOnce(ctx domain.Context, recipients []string, sender, subject, body string) (domain.EmailReceipt, error) {
	msg := mail.NewMsg()
	from := m.cfg.SMTPFrom
	if sender != "" {
		if err := msg.FromFormat(sender, from); err != nil {
			return domain.EmailReceipt{}, fmt.Errorf("%w: from address: %v", domain.ErrInvalidArgument, err)
		}
	} else if err := msg.From(from); err != nil {
		return domain.EmailReceipt{}, fmt.Errorf("%w: from address: %v", domain.ErrInvalidArgument, err)
	}
	if err := msg.To(recipients...); err != nil {
		return domain.EmailReceipt{}, &domain.ClassifiedError{
			Kind:      domain.KindValidationFault,
			Retryable: false,
			Err:       fmt.Errorf("%w: recipient address: %v", domain.ErrInvalidArgument, err),
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.SetMessageID()

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return domain.EmailReceipt{}, err
	}
	return domain.EmailReceipt{
		MessageID:  msg.GetMessageID(),
		Recipients: recipients,
		SentAt:     time.Now().UTC(),
	}, nil
}

func (m *Mailer) validateRecipients(recipients []string) error {
	if len(recipients) == 0 {
		return &domain.ClassifiedError{
			Kind:      domain.KindValidationFault,
			Retryable: false,
			Err:       fmt.Errorf("%w: recipients required", domain.ErrInvalidArgument),
		}
	}
	for _, addr := range recipients {
		if err := m.vld.Var(addr, "required,email"); err != nil {
			return &domain.ClassifiedError{
				Kind:      domain.KindValidationFault,
				Retryable: false,
				Err:       fmt.Errorf("%w: invalid recipient %q", domain.ErrInvalidArgument, addr),
			}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
