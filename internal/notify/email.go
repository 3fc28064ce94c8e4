package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"recordwatch/internal/components/telemetry"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_email_send = "email.send"

var tracer = otel.Tracer("recordwatch/internal/notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type EmailOptions struct {
	Smtp    SmtpConfig `json:"smtp"`
	To      []string   `json:"to"`
	Subject string     `json:"subject"`
}

func (o EmailOptions) Enabled() bool {
	return o.Smtp.Server != "" && len(o.To) > 0
}

type sendFunc func(addr string, auth smtp.Auth, mail *email.Email) error

func smtpSend(addr string, auth smtp.Auth, mail *email.Email) error {
	return mail.Send(addr, auth)
}

// EmailSink mails every batch of lines as a single plain text message.
type EmailSink struct {
	opts EmailOptions
	send sendFunc
	tel  telemetry.API
}

func NewEmailSink(opts EmailOptions, tel telemetry.API) EmailSink {
	if opts.Subject == "" {
		opts.Subject = "New records"
	}
	return EmailSink{
		opts: opts,
		send: smtpSend,
		tel:  telemetry.NewScopedAPI("notify", tel),
	}
}

func (s EmailSink) message(lines []string) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("recordwatch <%s>", s.opts.Smtp.EmailAddress)
	mail.To = s.opts.To
	mail.Subject = fmt.Sprintf("%s (%d)", s.opts.Subject, len(lines))
	mail.Text = []byte(strings.Join(lines, "\n") + "\n")
	return mail
}

func (s EmailSink) Send(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "EmailSink.Send")
	defer span.End()
	span.SetAttributes(attribute.Int("lines", len(lines)))

	if err := ctx.Err(); err != nil {
		return err
	}

	mail := s.message(lines)
	addr := fmt.Sprintf("%s:%d", s.opts.Smtp.Server, s.opts.Smtp.Port)
	auth := smtp.PlainAuth("", s.opts.Smtp.EmailAddress, s.opts.Smtp.Password, s.opts.Smtp.Server)

	err := s.send(addr, auth, mail)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = s.send(addr, nil, mail)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		s.tel.ReportBroken(report_email_send, err, addr)
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
