package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/vetclinic-api/internal/config"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

type Service interface {
	SendVerification(ctx context.Context, to string, link string) error
	SendPasswordReset(ctx context.Context, to string, link string) error
	SendBookingNotice(ctx context.Context, to string, notice BookingNotice) error
}

// BookingNotice is what a customer is told about a booking.
type BookingNotice struct {
	BookingID   string
	PetName     string
	ServiceName string
	Date        string
	Time        string
	Status      string
}

func (n BookingNotice) subject() string {
	if n.Status == "pending" {
		return "Booking received"
	}
	return "Booking " + n.Status
}

// NewService returns an SMTP sender, or a sender that only logs when SMTP is
// not configured.
func NewService(cfg config.SMTPConfig, log *logger.Logger) Service {
	if !cfg.Enabled() {
		return &logSender{log: log.Component("email")}
	}
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func (s *smtpSender) SendVerification(ctx context.Context, to string, link string) error {
	return s.send(ctx, to, "Verify your email",
		fmt.Sprintf(`<p>Welcome to the clinic.</p><p><a href="%s">Verify your email address</a></p>`, link))
}

func (s *smtpSender) SendPasswordReset(ctx context.Context, to string, link string) error {
	return s.send(ctx, to, "Reset your password",
		fmt.Sprintf(`<p>A password reset was requested for your account.</p><p><a href="%s">Choose a new password</a></p><p>If this was not you, ignore this email.</p>`, link))
}

func (s *smtpSender) SendBookingNotice(ctx context.Context, to string, n BookingNotice) error {
	return s.send(ctx, to, n.subject(),
		fmt.Sprintf(`<p>%s for %s on %s at %s.</p><p>Status: %s</p><p>Reference: %s</p>`,
			n.ServiceName, n.PetName, n.Date, n.Time, n.Status, n.BookingID))
}

func (s *smtpSender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

type logSender struct {
	log *logger.Logger
}

func (s *logSender) SendVerification(ctx context.Context, to string, link string) error {
	s.log.Info("smtp disabled, verification email not sent", "to", to, "link", link)
	return nil
}

func (s *logSender) SendPasswordReset(ctx context.Context, to string, link string) error {
	s.log.Info("smtp disabled, password reset email not sent", "to", to, "link", link)
	return nil
}

func (s *logSender) SendBookingNotice(ctx context.Context, to string, n BookingNotice) error {
	s.log.Info("smtp disabled, booking notice not sent",
		"to", to,
		"booking_id", n.BookingID,
		"status", n.Status,
	)
	return nil
}
