package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/config"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/metrics"
)

const bookingDay = "2030-01-15"

type fixture struct {
	t        *testing.T
	ctx      context.Context
	svc      *Service
	repos    *repository.Set
	customer *model.User
	pet      *model.Pet
	service  *model.ServiceDefinition
	vets     []*model.User
}

func newFixture(t *testing.T, policy string, vetCount int) *fixture {
	t.Helper()

	repos := memory.NewSet()
	cfg := config.SchedulingConfig{
		SlotStepMinutes:     30,
		VetAssignmentPolicy: policy,
		CalendarLimit:       30,
	}
	svc := NewService(repos, event.NewEventService(repos.Outbox), cfg, metrics.NewNop(), logger.Nop())
	svc.now = func() time.Time { return time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC) }

	f := &fixture{t: t, ctx: context.Background(), svc: svc, repos: repos}

	f.customer = f.addUser("owner@example.com", model.RoleCustomer)
	for i := 0; i < vetCount; i++ {
		f.vets = append(f.vets, f.addUser(fmt.Sprintf("vet%d@example.com", i), model.RoleVeterinarian))
	}

	f.pet = &model.Pet{CustomerID: f.customer.ID, Name: "Milo"}
	require.NoError(t, repos.Pets.Create(f.ctx, f.pet))

	f.service = &model.ServiceDefinition{Name: "Checkup", Duration: 60, Price: 500}
	require.NoError(t, repos.Catalog.CreateService(f.ctx, f.service))

	return f
}

func (f *fixture) addUser(email string, role model.Role) *model.User {
	u := &model.User{Email: email, Name: email, Role: role}
	require.NoError(f.t, f.repos.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) addShift(vet *model.User, day, start, end string) {
	require.NoError(f.t, f.repos.Schedule.Create(f.ctx, &model.WorkShift{
		VetID:     vet.ID,
		Date:      model.MustDate(day),
		StartTime: model.MustClock(start),
		EndTime:   model.MustClock(end),
	}))
}

func (f *fixture) request(at string) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		PetID:      f.pet.ID,
		CustomerID: f.customer.ID,
		ServiceID:  f.service.ID,
		Date:       bookingDay,
		Time:       at,
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Error())
}

func TestAvailableTimesScenario(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")

	_, err := f.svc.Book(f.ctx, f.request("10:00"))
	require.NoError(t, err)

	got, err := f.svc.AvailableTimes(f.ctx, model.MustDate(bookingDay), f.service.ID)
	require.NoError(t, err)

	assert.Equal(t, 60, got.ServiceDurationMinutes)
	assert.Equal(t, clocks("09:00", "09:30", "10:00", "10:30", "11:00"), got.AllSlots)
	assert.Equal(t, clocks("09:00", "11:00"), got.AvailableSlots)
	assert.Equal(t, clocks("09:30", "10:00", "10:30"), got.BookedSlots)
}

func TestAvailableTimesWithoutShifts(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)

	got, err := f.svc.AvailableTimes(f.ctx, model.MustDate(bookingDay), f.service.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AllSlots)
	assert.Empty(t, got.AvailableSlots)
	assert.Empty(t, got.BookedSlots)
}

func TestAvailableTimesUnknownService(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)

	_, err := f.svc.AvailableTimes(f.ctx, model.MustDate(bookingDay), uuid.New())
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestAvailableDates(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 2)
	f.addShift(f.vets[0], "2030-01-05", "09:00", "12:00")
	f.addShift(f.vets[0], "2030-01-20", "09:00", "12:00")
	f.addShift(f.vets[1], "2030-01-20", "13:00", "17:00")
	f.addShift(f.vets[1], "2030-01-10", "09:00", "12:00")

	got, err := f.svc.AvailableDates(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Date{model.MustDate("2030-01-10"), model.MustDate("2030-01-20")}, got)
}

func TestBookFreezesEndTimeAndEmitsEvent(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")

	b, err := f.svc.Book(f.ctx, f.request("09:30"))
	require.NoError(t, err)

	require.NotNil(t, b.EndTime)
	assert.Equal(t, model.MustClock("10:30"), *b.EndTime)
	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, model.CustomerTypeBooking, b.CustomerType)
	require.NotNil(t, b.VetID)
	assert.Equal(t, f.vets[0].ID, *b.VetID)

	// a later change of the service duration must not move the stored end
	f.service.Duration = 15
	require.NoError(t, f.repos.Catalog.UpdateService(f.ctx, f.service))
	stored, err := f.svc.Get(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MustClock("10:30"), *stored.EndTime)

	events, err := f.repos.Outbox.ClaimPending(f.ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventBookingCreated, events[0].EventType)
	assert.Contains(t, string(events[0].Payload), b.ID.String())
}

func TestBookAssignsVetsInRegistrationOrder(t *testing.T) {
	f := newFixture(t, config.AssignmentStrict, 2)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")
	f.addShift(f.vets[1], bookingDay, "09:00", "12:00")

	first, err := f.svc.Book(f.ctx, f.request("09:00"))
	require.NoError(t, err)
	assert.Equal(t, f.vets[0].ID, *first.VetID)

	second, err := f.svc.Book(f.ctx, f.request("09:30"))
	require.NoError(t, err)
	assert.Equal(t, f.vets[1].ID, *second.VetID, "first vet is busy until 10:00")

	third, err := f.svc.Book(f.ctx, f.request("10:00"))
	require.NoError(t, err)
	assert.Equal(t, f.vets[0].ID, *third.VetID)
}

func TestBookSkipsVetWhoseShiftDoesNotCover(t *testing.T) {
	f := newFixture(t, config.AssignmentStrict, 2)
	f.addShift(f.vets[0], bookingDay, "09:00", "10:30")
	f.addShift(f.vets[1], bookingDay, "09:00", "12:00")

	b, err := f.svc.Book(f.ctx, f.request("10:00"))
	require.NoError(t, err)
	assert.Equal(t, f.vets[1].ID, *b.VetID)
}

func TestBookSameStartIsTimeConflict(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 2)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")
	f.addShift(f.vets[1], bookingDay, "09:00", "12:00")

	_, err := f.svc.Book(f.ctx, f.request("09:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(f.ctx, f.request("09:00"))
	assertCode(t, err, apperrors.ErrConflict)
	appErr, _ := apperrors.As(err)
	assert.Equal(t, "time conflict", appErr.Message)
}

func TestBookPolicyWhenNobodyOnShiftIsFree(t *testing.T) {
	t.Run("fallback assigns first free vet", func(t *testing.T) {
		f := newFixture(t, config.AssignmentFallback, 2)

		b, err := f.svc.Book(f.ctx, f.request("14:00"))
		require.NoError(t, err)
		assert.Equal(t, f.vets[0].ID, *b.VetID)

		b, err = f.svc.Book(f.ctx, f.request("14:30"))
		require.NoError(t, err)
		assert.Equal(t, f.vets[1].ID, *b.VetID, "fallback never double books a vet")

		_, err = f.svc.Book(f.ctx, f.request("14:45"))
		assertCode(t, err, apperrors.ErrConflict)
	})

	t.Run("strict rejects", func(t *testing.T) {
		f := newFixture(t, config.AssignmentStrict, 2)

		_, err := f.svc.Book(f.ctx, f.request("14:00"))
		assertCode(t, err, apperrors.ErrConflict)
		appErr, _ := apperrors.As(err)
		assert.Equal(t, "no veterinarian available", appErr.Message)
	})
}

func TestBookWithoutVeterinarians(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 0)

	_, err := f.svc.Book(f.ctx, f.request("09:00"))
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestBookRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")

	tests := []struct {
		name   string
		mutate func(r *model.CreateBookingRequest)
		code   apperrors.ErrorCode
	}{
		{"bad time", func(r *model.CreateBookingRequest) { r.Time = "9am" }, apperrors.ErrValidation},
		{"bad date", func(r *model.CreateBookingRequest) { r.Date = "15/01/2030" }, apperrors.ErrValidation},
		{"past date", func(r *model.CreateBookingRequest) { r.Date = "2030-01-09" }, apperrors.ErrValidation},
		{"bad customer type", func(r *model.CreateBookingRequest) { r.CustomerType = "vip" }, apperrors.ErrValidation},
		{"runs past midnight", func(r *model.CreateBookingRequest) { r.Time = "23:30" }, apperrors.ErrValidation},
		{"unknown service", func(r *model.CreateBookingRequest) { r.ServiceID = uuid.New() }, apperrors.ErrNotFound},
		{"unknown pet", func(r *model.CreateBookingRequest) { r.PetID = uuid.New() }, apperrors.ErrNotFound},
		{"someone else's pet", func(r *model.CreateBookingRequest) { r.CustomerID = uuid.New() }, apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request("09:00")
			tt.mutate(req)
			_, err := f.svc.Book(f.ctx, req)
			assertCode(t, err, tt.code)
		})
	}

	all, err := f.svc.ListForDate(f.ctx, model.MustDate(bookingDay))
	require.NoError(t, err)
	assert.Empty(t, all)
}

type failingRecorder struct{}

func (failingRecorder) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return errors.New("outbox unavailable")
}

func TestBookRollsBackWhenEventFails(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")
	f.svc.events = failingRecorder{}

	_, err := f.svc.Book(f.ctx, f.request("09:00"))
	assertCode(t, err, apperrors.ErrInternal)

	all, err := f.svc.ListForDate(f.ctx, model.MustDate(bookingDay))
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConcurrentBookingsForOneSlot(t *testing.T) {
	f := newFixture(t, config.AssignmentStrict, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(f.ctx, f.request("10:00"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if apperrors.Is(err, apperrors.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestBookingsNeverOverlapPerVet(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 3)
	for _, vet := range f.vets {
		f.addShift(vet, bookingDay, "08:00", "18:00")
	}

	for minutes := 8 * 60; minutes < 17*60; minutes += 15 {
		_, _ = f.svc.Book(f.ctx, f.request(model.ClockTime(minutes).String()))
	}

	all, err := f.svc.ListForDate(f.ctx, model.MustDate(bookingDay))
	require.NoError(t, err)
	require.NotEmpty(t, all)

	for i, a := range all {
		for _, b := range all[i+1:] {
			if *a.VetID != *b.VetID {
				continue
			}
			assert.False(t, Overlaps(a.StartTime, *a.EndTime, b.StartTime, *b.EndTime),
				"vet %s double booked at %s and %s", a.VetID, a.StartTime, b.StartTime)
		}
	}
}

func TestUpdateStatusReleasesSlot(t *testing.T) {
	f := newFixture(t, config.AssignmentStrict, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")

	b, err := f.svc.Book(f.ctx, f.request("10:00"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(f.ctx, b.ID, model.BookingStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, updated.Status)

	slots, err := f.svc.AvailableTimes(f.ctx, model.MustDate(bookingDay), f.service.ID)
	require.NoError(t, err)
	assert.Empty(t, slots.BookedSlots)

	_, err = f.svc.Book(f.ctx, f.request("10:30"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(f.ctx, b.ID, model.BookingStatusPending)
	assertCode(t, err, apperrors.ErrConflict)
}

func TestReactivationWithoutStoredEndUsesServiceDuration(t *testing.T) {
	f := newFixture(t, config.AssignmentStrict, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")

	vetID := f.vets[0].ID
	legacy := &model.Booking{
		PetID:      f.pet.ID,
		CustomerID: f.customer.ID,
		VetID:      &vetID,
		ServiceID:  f.service.ID,
		Date:       model.MustDate(bookingDay),
		StartTime:  model.MustClock("10:00"),
		Status:     model.BookingStatusCompleted,
	}
	require.NoError(t, f.repos.Bookings.Create(f.ctx, legacy))

	_, err := f.svc.Book(f.ctx, f.request("10:30"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(f.ctx, legacy.ID, model.BookingStatusPending)
	assertCode(t, err, apperrors.ErrConflict)
}

func TestUpdateStatusValidation(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)

	_, err := f.svc.UpdateStatus(f.ctx, uuid.New(), "cancelled")
	assertCode(t, err, apperrors.ErrValidation)

	_, err = f.svc.UpdateStatus(f.ctx, uuid.New(), model.BookingStatusCompleted)
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestListForCustomer(t *testing.T) {
	f := newFixture(t, config.AssignmentFallback, 1)
	f.addShift(f.vets[0], bookingDay, "09:00", "12:00")

	_, err := f.svc.Book(f.ctx, f.request("09:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(f.ctx, f.request("11:00"))
	require.NoError(t, err)

	mine, err := f.svc.ListForCustomer(f.ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := f.svc.ListForCustomer(f.ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
