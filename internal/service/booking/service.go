package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jwalitptl/vetclinic-api/internal/config"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/metrics"
	"github.com/jwalitptl/vetclinic-api/pkg/tracer"
)

const tracerName = "github.com/jwalitptl/vetclinic-api/internal/service/booking"

// Assignment labels recorded on created bookings.
const (
	AssignedOnShift  = "on_shift"
	AssignedFallback = "fallback"
)

type Service struct {
	repos   *repository.Set
	events  event.Recorder
	cfg     config.SchedulingConfig
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewService(repos *repository.Set, events event.Recorder, cfg config.SchedulingConfig, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repos:   repos,
		events:  events,
		cfg:     cfg,
		metrics: m,
		log:     log.Component("booking"),
		now:     time.Now,
	}
}

func (s *Service) today() model.Date {
	return model.DateOf(s.now())
}

// AvailableDates lists the dates from today on that have any veterinarian
// on duty.
func (s *Service) AvailableDates(ctx context.Context) ([]model.Date, error) {
	days, err := s.repos.Schedule.ListWorkDays(ctx, s.today(), s.cfg.CalendarLimit)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list work days: %w", err))
	}
	return days, nil
}

// AvailableTimes partitions the date's candidate slots for a service into
// available and booked.
func (s *Service) AvailableTimes(ctx context.Context, date model.Date, serviceID uuid.UUID) (*model.SlotAvailability, error) {
	started := time.Now()
	defer func() { s.metrics.SlotQueryDuration.Observe(time.Since(started).Seconds()) }()

	svc, err := s.repos.Catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, notFoundOr(err, "service", "failed to get service")
	}

	shifts, err := s.repos.Schedule.ListByDate(ctx, date)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list shifts: %w", err))
	}

	candidates, err := CandidateSlots(shifts, svc.Duration, s.cfg.SlotStepMinutes)
	if err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	booked, err := s.repos.Bookings.ListActiveIntervals(ctx, date)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list bookings: %w", err))
	}

	available, taken := Resolve(candidates.Pooled, svc.Duration, Intervals(booked, svc.Duration))

	all := candidates.Pooled
	if all == nil {
		all = []model.ClockTime{}
	}
	return &model.SlotAvailability{
		Date:                   date,
		ServiceID:              svc.ID,
		ServiceDurationMinutes: svc.Duration,
		AvailableSlots:         available,
		BookedSlots:            taken,
		AllSlots:               all,
	}, nil
}

// Book reserves a slot and assigns a veterinarian in one transaction.
func (s *Service) Book(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	date, start, err := s.validateRequest(req)
	if err != nil {
		s.metrics.BookingsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	ctx, span := tracer.Start(ctx, tracerName, "booking.Book",
		attribute.String("booking.date", date.String()),
		attribute.String("booking.time", start.String()),
	)

	var booking *model.Booking
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var txErr error
		booking, txErr = s.book(ctx, req, date, start)
		return txErr
	})
	tracer.End(span, err)

	if err != nil {
		s.metrics.BookingsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	s.log.Info("booking created",
		"booking_id", booking.ID.String(),
		"vet_id", booking.VetID.String(),
		"date", booking.Date.String(),
		"time", booking.StartTime.String(),
	)
	return booking, nil
}

func (s *Service) validateRequest(req *model.CreateBookingRequest) (model.Date, model.ClockTime, error) {
	var problems []string

	date, err := model.ParseDate(req.Date)
	if err != nil {
		problems = append(problems, err.Error())
	} else if date.Before(s.today()) {
		problems = append(problems, "date must be today or later")
	}

	start, err := model.ParseClockTime(req.Time)
	if err != nil {
		problems = append(problems, err.Error())
	}

	if req.PetID == uuid.Nil {
		problems = append(problems, "pet_id is required")
	}
	if req.CustomerID == uuid.Nil {
		problems = append(problems, "cus_id is required")
	}
	if req.ServiceID == uuid.Nil {
		problems = append(problems, "service_id is required")
	}
	switch req.CustomerType {
	case "":
		req.CustomerType = model.CustomerTypeBooking
	case model.CustomerTypeBooking, model.CustomerTypeWalkIn:
	default:
		problems = append(problems, fmt.Sprintf("customer_type %q is not one of booking, walk_in", req.CustomerType))
	}

	if len(problems) > 0 {
		return model.Date{}, 0, apperrors.NewValidation("invalid booking request", problems...)
	}
	return date, start, nil
}

func (s *Service) book(ctx context.Context, req *model.CreateBookingRequest, date model.Date, start model.ClockTime) (*model.Booking, error) {
	if err := s.repos.Bookings.LockDate(ctx, date); err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to lock booking date: %w", err))
	}

	pet, err := s.repos.Pets.Get(ctx, req.PetID)
	if err != nil {
		return nil, notFoundOr(err, "pet", "failed to get pet")
	}
	if pet.CustomerID != req.CustomerID {
		return nil, apperrors.NewNotFound("pet", nil)
	}

	svc, err := s.repos.Catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, notFoundOr(err, "service", "failed to get service")
	}

	end := start.Add(svc.Duration)
	if end > model.EndOfDay {
		return nil, apperrors.NewValidation("appointment must end by 24:00",
			fmt.Sprintf("%s plus %d minutes runs past midnight", start, svc.Duration))
	}

	vetID, assignment, err := s.assignVet(ctx, date, start, end, svc.Duration)
	if err != nil {
		return nil, err
	}

	taken, err := s.repos.Bookings.ExistsActiveAt(ctx, date, start)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to check slot: %w", err))
	}
	if taken {
		return nil, apperrors.NewConflict("time conflict",
			fmt.Sprintf("%s %s is already booked", date, start))
	}

	booking := &model.Booking{
		ID:           uuid.New(),
		PetID:        req.PetID,
		CustomerID:   req.CustomerID,
		VetID:        &vetID,
		ServiceID:    svc.ID,
		Date:         date,
		StartTime:    start,
		EndTime:      &end,
		Status:       model.BookingStatusPending,
		CustomerType: req.CustomerType,
	}
	if err := s.repos.Bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("time conflict")
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to create booking: %w", err))
	}

	if err := s.events.Emit(ctx, model.EventBookingCreated, event.BookingCreated{
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		PetID:      booking.PetID,
		VetID:      vetID,
		ServiceID:  booking.ServiceID,
		Date:       date,
		Start:      start,
		End:        end,
		Assignment: assignment,
	}); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	s.metrics.BookingsCreated.WithLabelValues(assignment).Inc()
	return booking, nil
}

// assignVet picks the first veterinarian, in registration order, whose shift
// covers [start, end) and who is free then. When nobody on shift is free the
// configured policy decides.
func (s *Service) assignVet(ctx context.Context, date model.Date, start, end model.ClockTime, duration int) (uuid.UUID, string, error) {
	vets, err := s.repos.Users.ListByRole(ctx, model.RoleVeterinarian)
	if err != nil {
		return uuid.Nil, "", apperrors.NewInternal(fmt.Errorf("failed to list veterinarians: %w", err))
	}
	if len(vets) == 0 {
		return uuid.Nil, "", apperrors.NewNotFound("veterinarian", nil)
	}

	shifts, err := s.repos.Schedule.ListByDate(ctx, date)
	if err != nil {
		return uuid.Nil, "", apperrors.NewInternal(fmt.Errorf("failed to list shifts: %w", err))
	}
	shiftByVet := make(map[uuid.UUID]*model.WorkShift, len(shifts))
	for _, shift := range shifts {
		shiftByVet[shift.VetID] = shift
	}

	booked, err := s.repos.Bookings.ListActiveIntervals(ctx, date)
	if err != nil {
		return uuid.Nil, "", apperrors.NewInternal(fmt.Errorf("failed to list bookings: %w", err))
	}
	intervals := Intervals(booked, duration)

	for _, vet := range vets {
		shift, ok := shiftByVet[vet.ID]
		if ok && shift.Covers(start, end) && !VetBusy(vet.ID, start, end, intervals) {
			return vet.ID, AssignedOnShift, nil
		}
	}

	if s.cfg.VetAssignmentPolicy == config.AssignmentStrict {
		return uuid.Nil, "", apperrors.NewConflict("no veterinarian available",
			fmt.Sprintf("no veterinarian on shift is free from %s to %s on %s", start, end, date))
	}

	for _, vet := range vets {
		if !VetBusy(vet.ID, start, end, intervals) {
			s.log.Warn("no veterinarian on shift, assigning fallback",
				"vet_id", vet.ID.String(),
				"date", date.String(),
				"time", start.String(),
			)
			return vet.ID, AssignedFallback, nil
		}
	}

	return uuid.Nil, "", apperrors.NewConflict("no veterinarian available",
		fmt.Sprintf("every veterinarian is booked from %s to %s on %s", start, end, date))
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.repos.Bookings.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "booking", "failed to get booking")
	}
	return booking, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Booking, error) {
	bookings, err := s.repos.Bookings.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list bookings: %w", err))
	}
	return bookings, nil
}

func (s *Service) ListForDate(ctx context.Context, date model.Date) ([]*model.Booking, error) {
	bookings, err := s.repos.Bookings.ListByDate(ctx, date)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list bookings: %w", err))
	}
	return bookings, nil
}

// UpdateStatus moves a booking to another status. Completed and failed
// bookings release their slot.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) (*model.Booking, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("invalid status",
			fmt.Sprintf("status %q is not one of pending, in_progress, completed, failed", status))
	}

	var booking *model.Booking
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repos.Bookings.Get(ctx, id)
		if err != nil {
			return notFoundOr(err, "booking", "failed to get booking")
		}
		if current.Status == status {
			booking = current
			return nil
		}

		if err := s.repos.Bookings.LockDate(ctx, current.Date); err != nil {
			return apperrors.NewInternal(fmt.Errorf("failed to lock booking date: %w", err))
		}
		if !current.Status.Active() && status.Active() {
			if err := s.checkReactivation(ctx, current); err != nil {
				return err
			}
		}
		if err := s.repos.Bookings.UpdateStatus(ctx, id, status); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict("time conflict",
					"another active booking now holds this slot")
			}
			return notFoundOr(err, "booking", "failed to update booking status")
		}
		if err := s.events.Emit(ctx, model.EventBookingStatusChanged, event.BookingStatusChanged{
			BookingID: id,
			From:      current.Status,
			To:        status,
		}); err != nil {
			return apperrors.NewInternal(err)
		}

		current.Status = status
		booking = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// checkReactivation refuses to reopen a booking whose slot has since been
// given to someone else.
func (s *Service) checkReactivation(ctx context.Context, b *model.Booking) error {
	booked, err := s.repos.Bookings.ListActiveIntervals(ctx, b.Date)
	if err != nil {
		return apperrors.NewInternal(fmt.Errorf("failed to list bookings: %w", err))
	}

	var duration int
	svc, err := s.repos.Catalog.GetService(ctx, b.ServiceID)
	switch {
	case err == nil:
		duration = svc.Duration
	case !errors.Is(err, repository.ErrNotFound):
		return apperrors.NewInternal(fmt.Errorf("failed to get service: %w", err))
	}

	end := b.StartTime.Add(duration)
	if b.EndTime != nil {
		end = *b.EndTime
	}
	intervals := Intervals(booked, duration)

	var busy bool
	if b.VetID != nil {
		busy = VetBusy(*b.VetID, b.StartTime, end, intervals)
	} else {
		busy = overlapsAny(b.StartTime, end, intervals)
	}
	if busy {
		return apperrors.NewConflict("time conflict",
			fmt.Sprintf("%s %s is held by another booking", b.Date, b.StartTime))
	}
	return nil
}

func notFoundOr(err error, resource, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, err)
	}
	return apperrors.NewInternal(fmt.Errorf("%s: %w", msg, err))
}

func rejectReason(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return "internal"
	}
	switch appErr.Code {
	case apperrors.ErrValidation:
		return "validation"
	case apperrors.ErrNotFound:
		return "not_found"
	case apperrors.ErrConflict:
		return "conflict"
	default:
		return "internal"
	}
}
