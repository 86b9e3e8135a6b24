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

type scheduleRepository struct {
	BaseRepository
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{NewBaseRepository(db)}
}

// Create inserts the shift. A second shift for the same vet and day yields
// repository.ErrDuplicate without aborting the surrounding transaction.
func (r *scheduleRepository) Create(ctx context.Context, shift *model.WorkShift) error {
	query := `
		INSERT INTO vet_work (work_id, vet_id, work_day, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vet_id, work_day) DO NOTHING
	`
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	shift.CreatedAt = time.Now()

	result, err := r.conn(ctx).ExecContext(ctx, query,
		shift.ID,
		shift.VetID,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		shift.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to create shift: %w", repository.ErrDuplicate)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.WorkShift, error) {
	query := `
		SELECT w.work_id, w.vet_id, u.name AS vet_name, w.work_day, w.start_time, w.end_time, w.created_at
		FROM vet_work w
		JOIN users u ON u.id = w.vet_id
		WHERE w.work_id = $1
	`
	var shift model.WorkShift
	if err := r.conn(ctx).GetContext(ctx, &shift, query, id); err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", translate(err))
	}
	return &shift, nil
}

func (r *scheduleRepository) Update(ctx context.Context, shift *model.WorkShift) error {
	err := r.execOne(ctx,
		`UPDATE vet_work SET start_time = $1, end_time = $2 WHERE work_id = $3`,
		shift.StartTime, shift.EndTime, shift.ID)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.execOne(ctx, `DELETE FROM vet_work WHERE work_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Exists(ctx context.Context, vetID uuid.UUID, date model.Date) (bool, error) {
	var exists bool
	err := r.conn(ctx).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM vet_work WHERE vet_id = $1 AND work_day = $2)`, vetID, date)
	if err != nil {
		return false, fmt.Errorf("failed to check shift: %w", err)
	}
	return exists, nil
}

func (r *scheduleRepository) ListByDate(ctx context.Context, date model.Date) ([]*model.WorkShift, error) {
	query := `
		SELECT w.work_id, w.vet_id, u.name AS vet_name, w.work_day, w.start_time, w.end_time, w.created_at
		FROM vet_work w
		JOIN users u ON u.id = w.vet_id
		WHERE w.work_day = $1
		ORDER BY u.created_at, u.id
	`
	var shifts []*model.WorkShift
	if err := r.conn(ctx).SelectContext(ctx, &shifts, query, date); err != nil {
		return nil, fmt.Errorf("failed to list shifts for date: %w", err)
	}
	return shifts, nil
}

func (r *scheduleRepository) ListByVet(ctx context.Context, vetID uuid.UUID) ([]*model.WorkShift, error) {
	query := `
		SELECT w.work_id, w.vet_id, u.name AS vet_name, w.work_day, w.start_time, w.end_time, w.created_at
		FROM vet_work w
		JOIN users u ON u.id = w.vet_id
		WHERE w.vet_id = $1
		ORDER BY w.work_day, w.start_time
	`
	var shifts []*model.WorkShift
	if err := r.conn(ctx).SelectContext(ctx, &shifts, query, vetID); err != nil {
		return nil, fmt.Errorf("failed to list shifts for vet: %w", err)
	}
	return shifts, nil
}

func (r *scheduleRepository) ListWorkDays(ctx context.Context, from model.Date, limit int) ([]model.Date, error) {
	query := `
		SELECT DISTINCT work_day
		FROM vet_work
		WHERE work_day >= $1
		ORDER BY work_day ASC
		LIMIT $2
	`
	var days []model.Date
	if err := r.conn(ctx).SelectContext(ctx, &days, query, from, limit); err != nil {
		return nil, fmt.Errorf("failed to list work days: %w", err)
	}
	return days, nil
}
