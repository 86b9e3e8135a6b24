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

type dispensingRepository struct {
	BaseRepository
}

func NewDispensingRepository(db *sqlx.DB) repository.DispensingRepository {
	return &dispensingRepository{NewBaseRepository(db)}
}

func (r *dispensingRepository) Create(ctx context.Context, entry *model.DispensingEntry) error {
	query := `
		INSERT INTO dispens (dispens_id, treatment_id, medication_id, quantity, dispens_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	_, err := r.conn(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.TreatmentID,
		entry.MedicationID,
		entry.Quantity,
		entry.Date,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dispensing entry: %w", translate(err))
	}
	return nil
}

func (r *dispensingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.DispensingEntry, error) {
	query := `
		SELECT dispens_id, treatment_id, medication_id, quantity, dispens_date, created_at
		FROM dispens
		WHERE dispens_id = $1
		FOR UPDATE
	`
	var entry model.DispensingEntry
	if err := r.conn(ctx).GetContext(ctx, &entry, query, id); err != nil {
		return nil, fmt.Errorf("failed to get dispensing entry: %w", translate(err))
	}
	return &entry, nil
}

func (r *dispensingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.execOne(ctx, `DELETE FROM dispens WHERE dispens_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete dispensing entry: %w", err)
	}
	return nil
}

func (r *dispensingRepository) ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*model.DispensedLine, error) {
	query := `
		SELECT d.dispens_id, d.treatment_id, d.medication_id, d.quantity, d.dispens_date, d.created_at,
			   m.name AS medication_name, m.unit_price
		FROM dispens d
		JOIN medication m ON m.id = d.medication_id
		WHERE d.treatment_id = $1
		ORDER BY d.created_at, d.dispens_id
	`
	var lines []*model.DispensedLine
	if err := r.conn(ctx).SelectContext(ctx, &lines, query, treatmentID); err != nil {
		return nil, fmt.Errorf("failed to list dispensed medications: %w", err)
	}
	return lines, nil
}
