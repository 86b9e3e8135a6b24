package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/pkg/messaging"
)

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewRedisBroker(context.Background(), Config{URL: "not-a-url"}, &logger)
	assert.Error(t, err)
}

func TestPublishTripsBreaker(t *testing.T) {
	logger := zerolog.Nop()
	// Nothing listens on port 1, so every publish fails fast.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	b := newBroker(client, &logger)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := b.Publish(ctx, "booking.created", []byte(`{}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, messaging.ErrUnavailable)
	}

	err := b.Publish(ctx, "booking.created", []byte(`{}`))
	assert.ErrorIs(t, err, messaging.ErrUnavailable)
}
