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

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(db *sqlx.DB) repository.CatalogRepository {
	return &catalogRepository{NewBaseRepository(db)}
}

func (r *catalogRepository) CreateService(ctx context.Context, svc *model.ServiceDefinition) error {
	query := `
		INSERT INTO service_type (id, name, duration_minutes, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	svc.Touch(time.Now())

	_, err := r.conn(ctx).ExecContext(ctx, query,
		svc.ID, svc.Name, svc.Duration, svc.Price, svc.CreatedAt, svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", translate(err))
	}
	return nil
}

func (r *catalogRepository) GetService(ctx context.Context, id uuid.UUID) (*model.ServiceDefinition, error) {
	query := `
		SELECT id, name, duration_minutes, price, created_at, updated_at
		FROM service_type
		WHERE id = $1
	`
	var svc model.ServiceDefinition
	if err := r.conn(ctx).GetContext(ctx, &svc, query, id); err != nil {
		return nil, fmt.Errorf("failed to get service: %w", translate(err))
	}
	return &svc, nil
}

func (r *catalogRepository) ListServices(ctx context.Context) ([]*model.ServiceDefinition, error) {
	query := `
		SELECT id, name, duration_minutes, price, created_at, updated_at
		FROM service_type
		ORDER BY name
	`
	var services []*model.ServiceDefinition
	if err := r.conn(ctx).SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *catalogRepository) UpdateService(ctx context.Context, svc *model.ServiceDefinition) error {
	query := `
		UPDATE service_type
		SET name = $1, duration_minutes = $2, price = $3, updated_at = $4
		WHERE id = $5
	`
	svc.UpdatedAt = time.Now()

	if err := r.execOne(ctx, query, svc.Name, svc.Duration, svc.Price, svc.UpdatedAt, svc.ID); err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	return nil
}

func (r *catalogRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := r.execOne(ctx, `DELETE FROM service_type WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

func (r *catalogRepository) CreatePetType(ctx context.Context, petType *model.PetType) error {
	if petType.ID == uuid.Nil {
		petType.ID = uuid.New()
	}
	_, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO pet_type (pet_type_id, name) VALUES ($1, $2)`, petType.ID, petType.Name)
	if err != nil {
		return fmt.Errorf("failed to create pet type: %w", translate(err))
	}
	return nil
}

func (r *catalogRepository) ListPetTypes(ctx context.Context) ([]*model.PetType, error) {
	var types []*model.PetType
	if err := r.conn(ctx).SelectContext(ctx, &types,
		`SELECT pet_type_id, name FROM pet_type ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list pet types: %w", err)
	}
	return types, nil
}
