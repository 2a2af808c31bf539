// Package email abstracts outbound mail so services stay testable and local
// development needs no SMTP relay.
package email

import (
	"context"
	"log/slog"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of sending them. Default in
// development; production wires a real relay behind the same interface.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message envelope. The body is omitted: verification codes
// must not land in log streams.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email dispatched",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
