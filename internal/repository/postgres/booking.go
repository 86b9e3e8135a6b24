package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
)

// bookingLockNamespace is the first key of the per-date advisory lock.
const bookingLockNamespace int32 = 0x626b // "bk"

const bookingColumns = `booking_id, pet_id, cus_id, vet_id, service_id, booking_date, time_booking,
	end_time, status, customer_type, created_at, updated_at`

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{NewBaseRepository(db)}
}

func activeStatuses() pq.StringArray {
	statuses := make(pq.StringArray, 0, len(model.ActiveBookingStatuses))
	for _, s := range model.ActiveBookingStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

func (r *bookingRepository) LockDate(ctx context.Context, date model.Date) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1, $2)`, bookingLockNamespace, date.Key())
	if err != nil {
		return fmt.Errorf("failed to lock booking date: %w", err)
	}
	return nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO booking (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err := r.conn(ctx).ExecContext(ctx, query,
		booking.ID,
		booking.PetID,
		booking.CustomerID,
		booking.VetID,
		booking.ServiceID,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.CustomerType,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", translate(err))
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	err := r.conn(ctx).GetContext(ctx, &booking,
		`SELECT `+bookingColumns+` FROM booking WHERE booking_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", translate(err))
	}
	return &booking, nil
}

func (r *bookingRepository) ListActiveIntervals(ctx context.Context, date model.Date) ([]*model.BookedInterval, error) {
	query := `
		SELECT b.booking_id, b.vet_id, b.time_booking, b.end_time,
			   COALESCE(s.duration_minutes, 0) AS service_minutes
		FROM booking b
		LEFT JOIN service_type s ON s.id = b.service_id
		WHERE b.booking_date = $1
		AND b.status = ANY($2)
		ORDER BY b.time_booking
	`
	var intervals []*model.BookedInterval
	if err := r.conn(ctx).SelectContext(ctx, &intervals, query, date, activeStatuses()); err != nil {
		return nil, fmt.Errorf("failed to list booked intervals: %w", err)
	}
	return intervals, nil
}

func (r *bookingRepository) ExistsActiveAt(ctx context.Context, date model.Date, start model.ClockTime) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM booking
			WHERE booking_date = $1
			AND time_booking = $2
			AND status = ANY($3)
		)
	`
	var exists bool
	if err := r.conn(ctx).GetContext(ctx, &exists, query, date, start, activeStatuses()); err != nil {
		return false, fmt.Errorf("failed to check booking time: %w", err)
	}
	return exists, nil
}

func (r *bookingRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := r.conn(ctx).SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM booking WHERE cus_id = $1 ORDER BY booking_date DESC, time_booking DESC`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListByDate(ctx context.Context, date model.Date) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := r.conn(ctx).SelectContext(ctx, &bookings,
		`SELECT `+bookingColumns+` FROM booking WHERE booking_date = $1 ORDER BY time_booking`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for date: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error {
	err := r.execOne(ctx,
		`UPDATE booking SET status = $1, updated_at = NOW() WHERE booking_id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}
