package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher hands a serialized Alert to the message bus egress. Submission
// is at-least-once, retained=false (spec.md §6).
type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
}

var logger = log.New(os.Stderr, "[publish] ", log.LstdFlags)

// NATSPublisher is grounded directly on internal/nvr/nats_publisher.go: JSON
// marshal, then an exponential-backoff retry loop of up to maxRetries
// retries after the first attempt.
type NATSPublisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
	// attemptTimeout bounds each publish submission attempt (spec.md §5:
	// "Publish submission bounded by 5 s per attempt").
	attemptTimeout time.Duration
}

// NewNATSPublisher builds a Publisher against subject (mqtt.alert_topic).
func NewNATSPublisher(conn *nats.Conn, subject string, maxRetries int, attemptTimeout time.Duration) *NATSPublisher {
	if maxRetries < 0 {
		maxRetries = 3
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 5 * time.Second
	}
	return &NATSPublisher{conn: conn, subject: subject, maxRetries: maxRetries, attemptTimeout: attemptTimeout}
}

// Publish serializes alert and submits it, retrying with exponential backoff
// (100ms, 200ms, 400ms, ...) for up to maxRetries+1 attempts in all. A final
// failure is logged, not returned as fatal
// to the caller's admission flow — the engine still marks alerted=true (see
// admission.Engine) to avoid a double-publish on retry bursts.
func (p *NATSPublisher) Publish(ctx context.Context, alert Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
		lastErr = p.publishOnce(attemptCtx, data)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt < p.maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("publish cancelled after %d attempts: %w", attempt+1, ctx.Err())
			}
		}
	}

	logger.Printf("publish failed for event %s after %d attempts: %v", alert.EventID, p.maxRetries+1, lastErr)
	return fmt.Errorf("publish failed after %d attempts: %w", p.maxRetries+1, lastErr)
}

func (p *NATSPublisher) publishOnce(ctx context.Context, data []byte) error {
	done := make(chan error, 1)
	go func() { done <- p.conn.Publish(p.subject, data) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
