package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"dailybread/internal/logging"
)

// publisher is the subset of *nats.Conn used by NATSSink.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes events as JSON on <subject>.<mode>.
type NATSSink struct {
	pub     publisher
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSSink wraps an existing publisher.
func NewNATSSink(pub publisher, subject string, logger *slog.Logger) *NATSSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NATSSink{
		pub:     pub,
		subject: strings.Trim(strings.TrimSpace(subject), "."),
		logger:  logging.NewComponentLogger(logger, "progress"),
	}
}

// ConnectNATS dials url and returns a sink that owns the connection.
func ConnectNATS(url, subject string, logger *slog.Logger) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("dailybread"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	sink := NewNATSSink(conn, subject, logger)
	sink.conn = conn
	sink.logger.Info("connected to NATS", logging.String("url", conn.ConnectedUrlRedacted()))
	return sink, nil
}

// Subject returns the subject an event for mode is published on.
func (s *NATSSink) Subject(mode string) string {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return s.subject
	}
	return s.subject + "." + mode
}

// Emit implements Sink.
func (s *NATSSink) Emit(_ context.Context, event Event) {
	if s == nil || s.pub == nil {
		return
	}
	if event.Err != nil && event.Error == "" {
		event.Error = event.Err.Error()
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("progress event encode failed", logging.Error(err))
		return
	}
	if err := s.pub.Publish(s.Subject(event.Mode), data); err != nil {
		s.logger.Warn("progress event publish failed",
			logging.String(logging.FieldEventType, "progress_publish_failed"),
			logging.String(logging.FieldErrorHint, "check the NATS server; generation continues"),
			logging.Error(err),
		)
	}
}

// Close drains and closes an owned connection.
func (s *NATSSink) Close() {
	if s == nil || s.conn == nil {
		return
	}
	_ = s.conn.Drain()
	s.conn.Close()
}
