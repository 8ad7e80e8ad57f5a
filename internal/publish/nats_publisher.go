package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/technosupport/arena-watch/internal/events"
)

const DefaultPrefix = "arena.events"

// Conn is the publish half of *nats.Conn
type Conn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher fans every stream event out to <prefix>.<category>
type NATSPublisher struct {
	conn       Conn
	prefix     string
	maxRetries int
	backoff    time.Duration
}

func NewNATSPublisher(conn Conn, prefix string, maxRetries int) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &NATSPublisher{
		conn:       conn,
		prefix:     prefix,
		maxRetries: maxRetries,
		backoff:    100 * time.Millisecond,
	}
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) Subject(c events.Category) string {
	return p.prefix + "." + string(c)
}

func (p *NATSPublisher) Deliver(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	subject := p.Subject(e.Category)

	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(subject, data)
		if err == nil {
			return nil
		}
		if i == p.maxRetries {
			break
		}

		// Backoff
		select {
		case <-ctx.Done():
			return fmt.Errorf("publish %s cancelled: %w", subject, err)
		case <-time.After(time.Duration(i+1) * p.backoff):
		}
	}

	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}
