package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

func TestLogBrokerDeliversToSubscribers(t *testing.T) {
	b := NewLogBroker(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "booking.created")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "booking.created", []byte(`{"n":1}`)))
	require.NoError(t, b.Publish(ctx, "dispensing.recorded", []byte(`{"n":2}`)))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"n":1}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %s", msg)
	default:
	}
}

func TestLogBrokerClosesOnCancel(t *testing.T) {
	b := NewLogBroker(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "treatment.paid")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}
