// Package notify is the outbound message collaborator. Delivery is best
// effort: callers log failures but never roll back on them.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Sender delivers a message to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	addr string // host:port
	from string
}

func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

// LogSender is the fallback when no SMTP relay is configured: messages
// are logged instead of delivered.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("Mail delivery skipped (no SMTP relay configured)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)),
	)
	return nil
}
