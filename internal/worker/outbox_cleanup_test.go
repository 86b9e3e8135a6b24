package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/metrics"
)

func TestCleanupRemovesOnlyOldProcessedEvents(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	events := event.NewEventService(repos.Outbox)

	require.NoError(t, events.Emit(ctx, "treatment.paid", map[string]string{"n": "1"}))
	require.NoError(t, events.Emit(ctx, "treatment.paid", map[string]string{"n": "2"}))

	pending, err := repos.Outbox.ClaimPending(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, repos.Outbox.MarkProcessed(ctx, pending[0].ID))

	w := NewOutboxCleanupWorker(repos.Outbox, time.Hour, time.Minute, logger.Nop(), metrics.NewNop())

	rows, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows, "inside the retention window")

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rows, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	left, err := repos.Outbox.ClaimPending(ctx, 10, 5)
	require.NoError(t, err)
	assert.Len(t, left, 1, "pending events are kept")
}
