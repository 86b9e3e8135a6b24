package messaging

import (
	"context"
	"sync"

	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

// LogBroker delivers messages to in-process subscribers and logs every
// publish. It stands in for Redis when running against the memory store.
type LogBroker struct {
	log  *logger.Logger
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

func NewLogBroker(log *logger.Logger) *LogBroker {
	return &LogBroker{
		log:  log.Component("broker"),
		subs: make(map[string][]chan []byte),
	}
}

func (b *LogBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.log.Info("event published", "channel", channel, "payload", string(payload))

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
			b.log.Warn("subscriber buffer full, dropping message", "channel", channel)
		}
	}
	return nil
}

func (b *LogBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 100)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[channel]
		for i, c := range subs {
			if c == ch {
				b.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (b *LogBroker) Close() error {
	return nil
}
