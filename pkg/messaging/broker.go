package messaging

import (
	"context"
	"errors"
)

// ErrUnavailable is returned while a broker refuses calls, for example when
// its circuit breaker is open.
var ErrUnavailable = errors.New("message broker unavailable")

// Broker defines the interface for message brokers. Payloads are JSON
// documents published on a channel named after the event type.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
