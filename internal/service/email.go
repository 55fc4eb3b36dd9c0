package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is the part of *sendgrid.Client the alerter uses.
type mailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridAlerter struct {
	client       mailSender
	from         *mail.Email
	supportEmail string
}

// NewSupportAlerter mails unverified payments to the support inbox. With no
// API key configured alerts are only logged.
func NewSupportAlerter(apiKey, fromEmail, fromName, supportEmail string) SupportAlerter {
	if apiKey == "" {
		return logAlerter{}
	}
	return newSendGridAlerter(sendgrid.NewSendClient(apiKey), fromEmail, fromName, supportEmail)
}

func newSendGridAlerter(client mailSender, fromEmail, fromName, supportEmail string) *sendGridAlerter {
	return &sendGridAlerter{
		client:       client,
		from:         mail.NewEmail(fromName, fromEmail),
		supportEmail: supportEmail,
	}
}

func (a *sendGridAlerter) UnverifiedPayment(ctx context.Context, p domain.UnverifiedPayment) error {
	subject := fmt.Sprintf("Unverified payment for order %s", p.OrderID)
	plain, body := unverifiedPaymentBody(p)

	message := mail.NewSingleEmail(a.from, subject, mail.NewEmail("Support", a.supportEmail), plain, body)

	logger.ExternalServiceCall("SendGrid", "Send", "order_id", p.OrderID)
	resp, err := a.client.Send(message)
	if err != nil {
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return fmt.Errorf("failed to send support alert: %w", err)
	}
	if resp.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return err
	}
	logger.ExternalServiceResult("SendGrid", "Send", nil, "status", resp.StatusCode)
	return nil
}

func unverifiedPaymentBody(p domain.UnverifiedPayment) (string, string) {
	lines := []string{
		"A payment was captured by the gateway but the booking could not be verified.",
		"",
		"Order: " + p.OrderID,
		"Payment: " + p.PaymentID,
		fmt.Sprintf("Amount: %.2f", p.Amount),
		"Car: " + p.CarID,
		"Customer: " + p.UserEmail,
		"Checkout attempt: " + p.AttemptID,
		"Reason: " + p.Reason,
	}
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = html.EscapeString(l)
	}
	plain := strings.Join(lines, "\n")
	body := "<html><body><p>" + strings.Join(escaped, "<br>") + "</p></body></html>"
	return plain, body
}

// logAlerter is used when SendGrid is not configured.
type logAlerter struct{}

func (logAlerter) UnverifiedPayment(ctx context.Context, p domain.UnverifiedPayment) error {
	logger.Error("Unverified payment needs support follow-up",
		"order_id", p.OrderID,
		"payment_id", p.PaymentID,
		"attempt_id", p.AttemptID,
		"user_email", p.UserEmail,
		"reason", p.Reason,
	)
	return nil
}
