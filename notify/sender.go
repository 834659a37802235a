// Package notify delivers applicant notifications about application
// progress. Delivery is best effort: failures are logged and counted and
// never surface to the caller that triggered them.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/metrics"
)

// Message is one rendered notification.
type Message struct {
	ID            string `json:"id"`
	ApplicationID string `json:"applicationId"`
	Kind          Kind   `json:"kind"`
	To            string `json:"to"`
	Phone         string `json:"phone,omitempty"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// Sender delivers a message over one channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Channel() string { return "log" }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("notification",
		zap.String("notification_id", msg.ID),
		zap.String("application_id", msg.ApplicationID),
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// MultiSender fans a message out to every sender. A failing channel does not
// stop the others; their errors are joined.
type MultiSender struct {
	senders []Sender
}

func NewMultiSender(senders ...Sender) *MultiSender {
	return &MultiSender{senders: senders}
}

func (m *MultiSender) Channel() string { return "multi" }

func (m *MultiSender) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m.senders {
		if err := deliver(ctx, s, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deliver sends through s and records the outcome per channel.
func deliver(ctx context.Context, s Sender, msg Message) error {
	if err := s.Send(ctx, msg); err != nil {
		metrics.NotificationsFailed.WithLabelValues(s.Channel()).Inc()
		return fmt.Errorf("%s: %w", s.Channel(), err)
	}
	metrics.NotificationsSent.WithLabelValues(s.Channel()).Inc()
	return nil
}
