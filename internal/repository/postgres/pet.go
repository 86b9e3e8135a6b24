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

const petColumns = `pet_id, cus_id, pet_type_id, name, gender, birth_date, created_at, updated_at`

type petRepository struct {
	BaseRepository
}

func NewPetRepository(db *sqlx.DB) repository.PetRepository {
	return &petRepository{NewBaseRepository(db)}
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	query := `
		INSERT INTO pet (` + petColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	pet.CreatedAt = now
	pet.UpdatedAt = now

	_, err := r.conn(ctx).ExecContext(ctx, query,
		pet.ID,
		pet.CustomerID,
		pet.PetTypeID,
		pet.Name,
		pet.Gender,
		pet.BirthDate,
		pet.CreatedAt,
		pet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", translate(err))
	}
	return nil
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var pet model.Pet
	err := r.conn(ctx).GetContext(ctx, &pet, `SELECT `+petColumns+` FROM pet WHERE pet_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", translate(err))
	}
	return &pet, nil
}

func (r *petRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Pet, error) {
	var pets []*model.Pet
	err := r.conn(ctx).SelectContext(ctx, &pets,
		`SELECT `+petColumns+` FROM pet WHERE cus_id = $1 ORDER BY name`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	query := `
		UPDATE pet
		SET pet_type_id = $1, name = $2, gender = $3, birth_date = $4, updated_at = $5
		WHERE pet_id = $6
	`
	pet.UpdatedAt = time.Now()

	if err := r.execOne(ctx, query,
		pet.PetTypeID,
		pet.Name,
		pet.Gender,
		pet.BirthDate,
		pet.UpdatedAt,
		pet.ID,
	); err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}
	return nil
}
