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

const medicationColumns = `id, name, stock_quantity, unit_price, package_size, created_at, updated_at`

type medicationRepository struct {
	BaseRepository
}

func NewMedicationRepository(db *sqlx.DB) repository.MedicationRepository {
	return &medicationRepository{NewBaseRepository(db)}
}

func (r *medicationRepository) Create(ctx context.Context, med *model.Medication) error {
	query := `
		INSERT INTO medication (` + medicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	med.Touch(time.Now())

	_, err := r.conn(ctx).ExecContext(ctx, query,
		med.ID,
		med.Name,
		med.StockQuantity,
		med.UnitPrice,
		med.PackageSize,
		med.CreatedAt,
		med.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", translate(err))
	}
	return nil
}

func (r *medicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	var med model.Medication
	err := r.conn(ctx).GetContext(ctx, &med,
		`SELECT `+medicationColumns+` FROM medication WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", translate(err))
	}
	return &med, nil
}

func (r *medicationRepository) List(ctx context.Context) ([]*model.Medication, error) {
	var meds []*model.Medication
	err := r.conn(ctx).SelectContext(ctx, &meds,
		`SELECT `+medicationColumns+` FROM medication ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return meds, nil
}

func (r *medicationRepository) Update(ctx context.Context, med *model.Medication) error {
	query := `
		UPDATE medication
		SET name = $1, stock_quantity = $2, unit_price = $3, package_size = $4, updated_at = $5
		WHERE id = $6
	`
	med.UpdatedAt = time.Now()

	if err := r.execOne(ctx, query,
		med.Name,
		med.StockQuantity,
		med.UnitPrice,
		med.PackageSize,
		med.UpdatedAt,
		med.ID,
	); err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.execOne(ctx, `DELETE FROM medication WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]*model.Medication, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	// Lock in id order so concurrent batches cannot deadlock.
	query := `
		SELECT ` + medicationColumns + `
		FROM medication
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`
	var meds []*model.Medication
	if err := r.conn(ctx).SelectContext(ctx, &meds, query, keys); err != nil {
		return nil, fmt.Errorf("failed to lock medications: %w", err)
	}
	return meds, nil
}

func (r *medicationRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE medication
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2
		AND stock_quantity + $1 >= 0
	`
	result, err := r.conn(ctx).ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the medication is gone or the guard rejected the decrement.
		var exists bool
		if err := r.conn(ctx).GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM medication WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("failed to check medication: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrInsufficientStock
	}
	return nil
}
