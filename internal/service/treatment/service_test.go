package treatment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

func setup(t *testing.T) (*Service, *repository.Set, *model.Booking) {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewSet()

	svcDef := &model.ServiceDefinition{Name: "Checkup", Duration: 30, Price: 300}
	require.NoError(t, repos.Catalog.CreateService(ctx, svcDef))

	vetID := uuid.New()
	booking := &model.Booking{
		PetID:      uuid.New(),
		CustomerID: uuid.New(),
		VetID:      &vetID,
		ServiceID:  svcDef.ID,
		Date:       model.MustDate("2030-03-01"),
		StartTime:  model.MustClock("09:00"),
		Status:     model.BookingStatusInProgress,
	}
	require.NoError(t, repos.Bookings.Create(ctx, booking))

	return NewService(repos, event.NewEventService(repos.Outbox), logger.Nop()), repos, booking
}

func TestCreateOncePerBooking(t *testing.T) {
	ctx := context.Background()
	svc, _, booking := setup(t)

	record, err := svc.Create(ctx, uuid.Nil, &model.CreateTreatmentRequest{BookingID: booking.ID, WeightKg: 4.5, Details: "healthy"})
	require.NoError(t, err)
	assert.Equal(t, *booking.VetID, record.VetID, "defaults to the booked veterinarian")
	assert.Equal(t, model.PayStatusUnpaid, record.PayStatus)

	_, err = svc.Create(ctx, uuid.Nil, &model.CreateTreatmentRequest{BookingID: booking.ID, WeightKg: 4.5})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "treatment already recorded", appErr.Message)

	records, err := svc.ListByBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, booking := setup(t)

	_, err := svc.Create(ctx, uuid.Nil, &model.CreateTreatmentRequest{BookingID: booking.ID, WeightKg: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Create(ctx, uuid.Nil, &model.CreateTreatmentRequest{BookingID: uuid.New(), WeightKg: 3})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateTreatment(t *testing.T) {
	ctx := context.Background()
	svc, _, booking := setup(t)

	record, err := svc.Create(ctx, uuid.Nil, &model.CreateTreatmentRequest{BookingID: booking.ID, WeightKg: 4.5})
	require.NoError(t, err)

	card := model.PaymentMethodCard
	paid := model.PayStatusPaid
	updated, err := svc.Update(ctx, record.ID, &model.UpdateTreatmentRequest{
		WeightKg: 4.8, Details: "follow-up in two weeks", PayStatus: &paid, PaymentMethod: &card,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.8, updated.WeightKg)
	assert.Equal(t, model.PayStatusPaid, updated.PayStatus)
	require.NotNil(t, updated.PaymentMethod)
	assert.Equal(t, model.PaymentMethodCard, *updated.PaymentMethod)

	bitcoin := model.PaymentMethod("bitcoin")
	_, err = svc.Update(ctx, record.ID, &model.UpdateTreatmentRequest{WeightKg: 4.8, PaymentMethod: &bitcoin})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestMarkPaidAndInvoice(t *testing.T) {
	ctx := context.Background()
	svc, repos, booking := setup(t)

	record, err := svc.Create(ctx, uuid.Nil, &model.CreateTreatmentRequest{BookingID: booking.ID, WeightKg: 4.5})
	require.NoError(t, err)

	med := &model.Medication{Name: "Amoxicillin", StockQuantity: 10, UnitPrice: 12.5}
	require.NoError(t, repos.Medications.Create(ctx, med))
	require.NoError(t, repos.Dispensing.Create(ctx, &model.DispensingEntry{
		TreatmentID: record.ID, MedicationID: med.ID, Quantity: 3,
	}))

	invoice, err := svc.Invoice(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checkup", invoice.ServiceName)
	assert.InDelta(t, 37.5, invoice.Medications, 0.001)
	assert.InDelta(t, 337.5, invoice.Total, 0.001)
	assert.Len(t, invoice.Lines, 1)

	paid, err := svc.MarkPaid(ctx, record.ID, model.PaymentMethodTransfer)
	require.NoError(t, err)
	assert.Equal(t, model.PayStatusPaid, paid.PayStatus)

	_, err = svc.MarkPaid(ctx, record.ID, model.PaymentMethodCash)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.MarkPaid(ctx, record.ID, "cheque")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	events, err := repos.Outbox.ClaimPending(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTreatmentPaid, events[0].EventType)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := setup(t)
	svc.now = func() time.Time { return time.Date(2030, 3, 10, 15, 0, 0, 0, time.UTC) }

	for _, day := range []string{"2028-11-20", "2029-12-31", "2030-02-14", "2030-03-03", "2030-03-04", "2030-03-09", "2030-03-09"} {
		require.NoError(t, repos.Treatments.Create(ctx, &model.TreatmentRecord{
			BookingID:     uuid.New(),
			VetID:         uuid.New(),
			WeightKg:      3,
			TreatmentDate: model.MustDate(day),
			PayStatus:     model.PayStatusUnpaid,
		}))
	}

	tests := []struct {
		period model.ReportPeriod
		labels []string
		data   []int
	}{
		{model.ReportWeek, []string{"2030-03-04", "2030-03-09"}, []int{1, 2}},
		{model.ReportMonth, []string{"2028-11", "2029-12", "2030-02", "2030-03"}, []int{1, 1, 1, 4}},
		{"", []string{"2028-11", "2029-12", "2030-02", "2030-03"}, []int{1, 1, 1, 4}},
		{model.ReportYear, []string{"2028", "2029", "2030"}, []int{1, 1, 5}},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			report, err := svc.Report(ctx, tt.period)
			require.NoError(t, err)
			assert.Equal(t, tt.labels, report.Labels)
			assert.Equal(t, tt.data, report.Data)
		})
	}

	_, err := svc.Report(ctx, "day")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}
