package notify

import (
	"fmt"

	"travel-booking/pkg/utils"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
	"go.uber.org/zap"
)

// Mailer sends transactional mail through Mailjet. When credentials are
// absent the client is nil and every send degrades to a logged no-op.
type Mailer struct {
	client    *mailjet.Client
	fromEmail string
	fromName  string
	log       *zap.Logger
}

func NewMailer(config utils.EmailConfig, log *zap.Logger) *Mailer {
	m := &Mailer{
		fromEmail: config.FromEmail,
		fromName:  config.FromName,
		log:       log.With(zap.String("component", "mailer")),
	}

	if config.APIKey == "" || config.APISecret == "" {
		log.Warn("Mailjet credentials missing, email sending disabled")
		return m
	}

	m.client = mailjet.NewMailjetClient(config.APIKey, config.APISecret)
	return m
}

func (m *Mailer) SendGuestConfirmation(evt ConfirmedEvent) error {
	subject := fmt.Sprintf("Reservation confirmed: %s", evt.SubjectTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour reservation %s for %s is confirmed.\n\nSee you soon!",
		evt.GuestName, evt.OrderRef, evt.SubjectTitle,
	)
	return m.send(evt.GuestEmail, evt.GuestName, subject, body)
}

func (m *Mailer) SendPaymentReceipt(evt ConfirmedEvent) error {
	subject := fmt.Sprintf("Payment receipt for %s", evt.OrderRef)
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your payment of %.2f for reservation %s (%s) on %s.",
		evt.GuestName, evt.TotalPrice, evt.OrderRef, evt.SubjectTitle,
		evt.PaidAt.Format("2006-01-02 15:04"),
	)
	return m.send(evt.GuestEmail, evt.GuestName, subject, body)
}

func (m *Mailer) SendOwnerAlert(evt ConfirmedEvent) error {
	subject := fmt.Sprintf("New paid reservation for %s", evt.SubjectTitle)
	body := fmt.Sprintf(
		"%s has a new paid reservation %s (%.2f).",
		evt.SubjectTitle, evt.OrderRef, evt.TotalPrice,
	)
	return m.send(evt.OwnerEmail, "", subject, body)
}

func (m *Mailer) send(toEmail, toName, subject, body string) error {
	if m.client == nil {
		m.log.Debug("Email sending disabled, skipping",
			zap.String("to", toEmail),
			zap.String("subject", subject),
		)
		return nil
	}
	if toEmail == "" {
		return fmt.Errorf("missing recipient address")
	}

	messages := mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{
			{
				From: &mailjet.RecipientV31{
					Email: m.fromEmail,
					Name:  m.fromName,
				},
				To: &mailjet.RecipientsV31{
					{
						Email: toEmail,
						Name:  toName,
					},
				},
				Subject:  subject,
				TextPart: body,
			},
		},
	}

	if _, err := m.client.SendMailV31(&messages); err != nil {
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}

	m.log.Info("Email sent",
		zap.String("to", toEmail),
		zap.String("subject", subject),
	)
	return nil
}
