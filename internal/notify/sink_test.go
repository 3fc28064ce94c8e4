package notify

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"recordwatch/internal/components/telemetry"
	libtelemetry "recordwatch/lib/telemetry"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

func TestMultiDeliversToEverySink(t *testing.T) {
	first := &Memory{}
	second := &Memory{}
	failing := SinkFunc(func(context.Context, []string) error {
		return errors.New("channel unavailable")
	})

	err := Multi{first, failing, second}.Send(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sink 1")
	require.Equal(t, []string{"a", "b"}, first.Lines())
	require.Equal(t, []string{"a", "b"}, second.Lines())
	require.Equal(t, 1, second.Calls())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	tel := telemetry.NewRecorder()
	sink := NewLogSink(libtelemetry.NewLogger(&buf, false), tel)

	lines := []string{"[Lp] Vinyl A - 100,00 zł (23.45 EUR) - https://shop/a", "second line"}
	require.NoError(t, sink.Send(context.Background(), lines))
	require.Empty(t, tel.Broken())

	out := buf.String()
	for _, line := range lines {
		require.Contains(t, out, line)
	}
	require.Contains(t, out, "INF")
}

type sentMail struct {
	addr string
	auth smtp.Auth
	mail *email.Email
}

func TestEmailSink(t *testing.T) {
	var sent []sentMail
	sink := NewEmailSink(EmailOptions{
		Smtp: SmtpConfig{
			Server:       "smtp.example.com",
			Port:         587,
			EmailAddress: "watch@example.com",
			Password:     "secret",
		},
		To: []string{"me@example.com"},
	}, telemetry.NewRecorder())
	sink.send = func(addr string, auth smtp.Auth, mail *email.Email) error {
		sent = append(sent, sentMail{addr: addr, auth: auth, mail: mail})
		if auth != nil {
			return errors.New("smtp: server doesn't support AUTH")
		}
		return nil
	}

	require.NoError(t, sink.Send(context.Background(), nil))
	require.Empty(t, sent)

	err := sink.Send(context.Background(), []string{"line one", "line two"})
	require.NoError(t, err)
	require.Len(t, sent, 2)
	require.NotNil(t, sent[0].auth)
	require.Nil(t, sent[1].auth)

	mail := sent[1].mail
	require.Equal(t, "smtp.example.com:587", sent[1].addr)
	require.Equal(t, []string{"me@example.com"}, mail.To)
	require.Equal(t, "New records (2)", mail.Subject)
	require.Equal(t, "line one\nline two\n", string(mail.Text))
}

func TestEmailSinkFailure(t *testing.T) {
	tel := telemetry.NewRecorder()
	sink := NewEmailSink(EmailOptions{
		Smtp: SmtpConfig{Server: "smtp.example.com", Port: 25},
		To:   []string{"me@example.com"},
	}, tel)
	sink.send = func(string, smtp.Auth, *email.Email) error {
		return errors.New("connection refused")
	}

	err := sink.Send(context.Background(), []string{"x"})
	require.Error(t, err)
	require.True(t, tel.HasBroken(report_email_send))
}

func TestEmailOptionsEnabled(t *testing.T) {
	require.False(t, EmailOptions{}.Enabled())
	require.False(t, EmailOptions{Smtp: SmtpConfig{Server: "smtp"}}.Enabled())
	require.True(t, EmailOptions{Smtp: SmtpConfig{Server: "smtp"}, To: []string{"a@b"}}.Enabled())
}
