package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/metrics"
)

type published struct {
	channel string
	payload []byte
}

type fakeBroker struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.sent = append(b.sent, published{channel, payload})
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) Close() error { return nil }

func newProcessor(t *testing.T, repos *repository.Set, broker *fakeBroker, batch int) *OutboxProcessor {
	t.Helper()
	p, err := NewOutboxProcessor(repos.Tx, repos.Outbox, broker, OutboxProcessorConfig{
		BatchSize:    batch,
		PollInterval: time.Second,
		MaxAttempts:  2,
	}, logger.Nop(), metrics.NewNop())
	require.NoError(t, err)
	return p
}

func emit(t *testing.T, repos *repository.Set, n int) {
	t.Helper()
	events := event.NewEventService(repos.Outbox)
	for i := 0; i < n; i++ {
		require.NoError(t, events.Emit(context.Background(), "booking.created", map[string]int{"seq": i}))
	}
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	repos := memory.NewSet()
	cases := []OutboxProcessorConfig{
		{BatchSize: 0, PollInterval: time.Second, MaxAttempts: 1},
		{BatchSize: 1, PollInterval: 0, MaxAttempts: 1},
		{BatchSize: 1, PollInterval: time.Second, MaxAttempts: 0},
	}
	for _, cfg := range cases {
		_, err := NewOutboxProcessor(repos.Tx, repos.Outbox, &fakeBroker{}, cfg, logger.Nop(), metrics.NewNop())
		assert.Error(t, err)
	}
}

func TestProcessBatchPublishesPendingEvents(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	broker := &fakeBroker{}
	emit(t, repos, 3)

	p := newProcessor(t, repos, broker, 2)

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, broker.sent, 3)
	for _, msg := range broker.sent {
		assert.Equal(t, "booking.created", msg.channel)
		assert.True(t, json.Valid(msg.payload))
	}
}

func TestProcessBatchGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	broker := &fakeBroker{err: errors.New("connection refused")}
	emit(t, repos, 1)

	p := newProcessor(t, repos, broker, 10)

	for i := 0; i < 2; i++ {
		n, err := p.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	pending, err := repos.Outbox.ClaimPending(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, pending)

	broker.err = nil
	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "failed events are not retried")
}

func TestProcessBatchRetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	broker := &fakeBroker{err: errors.New("timeout")}
	emit(t, repos, 1)

	p := newProcessor(t, repos, broker, 10)

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	broker.err = nil
	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
