package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	logger   *zap.Logger
}

func NewEmailService(apiKey, from, fromName string, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:   resend.NewClient(apiKey),
		from:     from,
		fromName: fromName,
		logger:   logger,
	}
}

func (s *EmailService) SendWelcomeEmail(email, fullName string) error {
	html := fmt.Sprintf(
		"<h2>Welcome to Pixelmint, %s!</h2><p>Your account is ready. Buy a token package and start generating.</p>",
		fullName,
	)
	return s.send(email, "Welcome to Pixelmint", html)
}

func (s *EmailService) SendPurchaseReceipt(email, fullName string, tokens int, amount int64, currency string) error {
	html := fmt.Sprintf(
		"<h2>Thanks for your purchase, %s!</h2><p>%d tokens were added to your account.</p><p>Amount charged: %.2f %s</p>",
		fullName, tokens, float64(amount)/100, currency,
	)
	return s.send(email, "Your Pixelmint receipt", html)
}

// SendNotification delivers a notification row over the email channel.
func (s *EmailService) SendNotification(email, title, body string) error {
	html := fmt.Sprintf("<h2>%s</h2><p>%s</p>", title, body)
	return s.send(email, title, html)
}

func (s *EmailService) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("id", resp.Id),
	)
	return nil
}
