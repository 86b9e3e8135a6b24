package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
)

const treatmentColumns = `treatment_id, booking_id, vet_id, weight_kg, details, treatment_date,
	pay_status, payment_method, created_at, updated_at`

type treatmentRepository struct {
	BaseRepository
}

func NewTreatmentRepository(db *sqlx.DB) repository.TreatmentRepository {
	return &treatmentRepository{NewBaseRepository(db)}
}

func (r *treatmentRepository) Create(ctx context.Context, record *model.TreatmentRecord) error {
	query := `
		INSERT INTO treatment_history (` + treatmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	now := time.Now()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.conn(ctx).ExecContext(ctx, query,
		record.ID,
		record.BookingID,
		record.VetID,
		record.WeightKg,
		record.Details,
		record.TreatmentDate,
		record.PayStatus,
		record.PaymentMethod,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create treatment record: %w", translate(err))
	}
	return nil
}

func (r *treatmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentRecord, error) {
	var record model.TreatmentRecord
	err := r.conn(ctx).GetContext(ctx, &record,
		`SELECT `+treatmentColumns+` FROM treatment_history WHERE treatment_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment record: %w", translate(err))
	}
	return &record, nil
}

func (r *treatmentRepository) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*model.TreatmentRecord, error) {
	var record model.TreatmentRecord
	err := r.conn(ctx).GetContext(ctx, &record,
		`SELECT `+treatmentColumns+` FROM treatment_history WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment record by booking: %w", translate(err))
	}
	return &record, nil
}

func (r *treatmentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*model.TreatmentRecord, error) {
	var records []*model.TreatmentRecord
	err := r.conn(ctx).SelectContext(ctx, &records,
		`SELECT `+treatmentColumns+` FROM treatment_history WHERE booking_id = $1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatment records: %w", err)
	}
	return records, nil
}

func (r *treatmentRepository) Update(ctx context.Context, record *model.TreatmentRecord) error {
	query := `
		UPDATE treatment_history
		SET weight_kg = $1, details = $2, pay_status = $3, payment_method = $4, updated_at = $5
		WHERE treatment_id = $6
	`
	record.UpdatedAt = time.Now()

	if err := r.execOne(ctx, query,
		record.WeightKg,
		record.Details,
		record.PayStatus,
		record.PaymentMethod,
		record.UpdatedAt,
		record.ID,
	); err != nil {
		return fmt.Errorf("failed to update treatment record: %w", err)
	}
	return nil
}

func (r *treatmentRepository) CountByDate(ctx context.Context, since *model.Date) ([]*model.DateCount, error) {
	var counts []*model.DateCount
	err := r.conn(ctx).SelectContext(ctx, &counts, `
		SELECT treatment_date, COUNT(*) AS total
		FROM treatment_history
		WHERE $1::date IS NULL OR treatment_date >= $1::date
		GROUP BY treatment_date
		ORDER BY treatment_date
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count treatments: %w", err)
	}
	return counts, nil
}
