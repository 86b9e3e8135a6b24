package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/vetclinic-api/internal/repository"
)

// NewSet builds every Postgres repository over one pool.
func NewSet(db *sqlx.DB) *repository.Set {
	return &repository.Set{
		Tx:          NewTransactor(db),
		Users:       NewUserRepository(db),
		Pets:        NewPetRepository(db),
		Schedule:    NewScheduleRepository(db),
		Bookings:    NewBookingRepository(db),
		Catalog:     NewCatalogRepository(db),
		Medications: NewMedicationRepository(db),
		Dispensing:  NewDispensingRepository(db),
		Treatments:  NewTreatmentRepository(db),
		Outbox:      NewOutboxRepository(db),
	}
}
