package notification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/email"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/messaging"
)

type notice struct {
	to string
	n  email.BookingNotice
}

type noticeMailer struct {
	mu   sync.Mutex
	sent []notice
}

func (m *noticeMailer) SendVerification(ctx context.Context, to string, link string) error {
	return nil
}

func (m *noticeMailer) SendPasswordReset(ctx context.Context, to string, link string) error {
	return nil
}

func (m *noticeMailer) SendBookingNotice(ctx context.Context, to string, n email.BookingNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notice{to, n})
	return nil
}

func (m *noticeMailer) notices() []notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notice(nil), m.sent...)
}

func seedBooking(t *testing.T, repos *repository.Set) *model.Booking {
	t.Helper()
	ctx := context.Background()

	customer := &model.User{Email: "owner@example.com", Name: "Pat", Role: model.RoleCustomer}
	require.NoError(t, repos.Users.Create(ctx, customer))

	pet := &model.Pet{CustomerID: customer.ID, Name: "Mochi"}
	require.NoError(t, repos.Pets.Create(ctx, pet))

	svc := &model.ServiceDefinition{Name: "Checkup", Duration: 30, Price: 40}
	require.NoError(t, repos.Catalog.CreateService(ctx, svc))

	end := model.MustClock("09:30")
	b := &model.Booking{
		PetID:      pet.ID,
		CustomerID: customer.ID,
		ServiceID:  svc.ID,
		Date:       model.MustDate("2030-05-01"),
		StartTime:  model.MustClock("09:00"),
		EndTime:    &end,
		Status:     model.BookingStatusPending,
	}
	require.NoError(t, repos.Bookings.Create(ctx, b))
	return b
}

func TestHandleBookingCreated(t *testing.T) {
	repos := memory.NewSet()
	mailer := &noticeMailer{}
	svc := NewService(repos, mailer, messaging.NewLogBroker(logger.Nop()), logger.Nop())
	b := seedBooking(t, repos)

	payload, err := json.Marshal(event.BookingCreated{BookingID: b.ID, CustomerID: b.CustomerID})
	require.NoError(t, err)
	require.NoError(t, svc.HandleBookingCreated(context.Background(), payload))

	sent := mailer.notices()
	require.Len(t, sent, 1)
	assert.Equal(t, "owner@example.com", sent[0].to)
	assert.Equal(t, email.BookingNotice{
		BookingID:   b.ID.String(),
		PetName:     "Mochi",
		ServiceName: "Checkup",
		Date:        "2030-05-01",
		Time:        "09:00",
		Status:      "pending",
	}, sent[0].n)
}

func TestHandleRejectsBadInput(t *testing.T) {
	repos := memory.NewSet()
	mailer := &noticeMailer{}
	svc := NewService(repos, mailer, messaging.NewLogBroker(logger.Nop()), logger.Nop())
	ctx := context.Background()

	assert.Error(t, svc.HandleBookingCreated(ctx, []byte("not json")))

	payload, err := json.Marshal(event.BookingStatusChanged{BookingID: uuid.New()})
	require.NoError(t, err)
	assert.Error(t, svc.HandleStatusChanged(ctx, payload))

	assert.Empty(t, mailer.notices())
}

func TestStartConsumesBrokerMessages(t *testing.T) {
	repos := memory.NewSet()
	mailer := &noticeMailer{}
	broker := messaging.NewLogBroker(logger.Nop())
	svc := NewService(repos, mailer, broker, logger.Nop())
	b := seedBooking(t, repos)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	payload, err := json.Marshal(event.BookingStatusChanged{
		BookingID: b.ID, From: model.BookingStatusPending, To: model.BookingStatusInProgress,
	})
	require.NoError(t, err)

	// Subscriptions are registered asynchronously; keep publishing until one lands.
	require.Eventually(t, func() bool {
		_ = broker.Publish(context.Background(), model.EventBookingStatusChanged, payload)
		return len(mailer.notices()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("notification service did not stop")
	}
}
