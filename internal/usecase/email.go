package usecase

import (
	"fmt"

	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

// EmailService forwards summary emails to the mail adapter. It exists so the
// HTTP layer depends on a usecase, not a transport adapter.
type EmailService struct {
	Mailer domain.Mailer
}

// NewEmailService constructs an EmailService.
func NewEmailService(m domain.Mailer) EmailService { return EmailService{Mailer: m} }

// Send validates that the service is configured and delegates to the mailer,
// which performs recipient validation before any transport work.
func (s EmailService) Send(ctx domain.Context, msg domain.EmailMessage) (domain.EmailReceipt, error) {
	if s.Mailer == nil {
		return domain.EmailReceipt{}, fmt.Errorf("%w: email delivery not configured", domain.ErrInvalidArgument)
	}
	if msg.Summary == "" {
		return domain.EmailReceipt{}, fmt.Errorf("%w: summary body required", domain.ErrInvalidArgument)
	}
	return s.Mailer.SendSummaryEmail(ctx, msg)
}
