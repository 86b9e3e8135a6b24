package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInsufficientStock is returned by a guarded stock decrement that
	// would take a medication below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrReferenced is returned when deleting a row other rows still point at.
	ErrReferenced = errors.New("record is still referenced")
)

// Transactor runs fn inside one database transaction. Repository calls made
// with the ctx passed to fn join that transaction. A nested call joins the
// outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// ListByRole returns users of a role in registration order.
	ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
	// Search returns users of a role whose name, email or phone contains
	// query, case-insensitively. An empty query matches everyone.
	Search(ctx context.Context, role model.Role, query string) ([]*model.User, error)
	// Update stores name, email and phone.
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	// Delete fails with ErrReferenced while pets or bookings point at the user.
	Delete(ctx context.Context, id uuid.UUID) error
}

type PetRepository interface {
	Create(ctx context.Context, pet *model.Pet) error
	Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Pet, error)
	Update(ctx context.Context, pet *model.Pet) error
}

type ScheduleRepository interface {
	Create(ctx context.Context, shift *model.WorkShift) error
	Get(ctx context.Context, id uuid.UUID) (*model.WorkShift, error)
	Update(ctx context.Context, shift *model.WorkShift) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, vetID uuid.UUID, date model.Date) (bool, error)
	// ListByDate returns the date's shifts ordered by veterinarian
	// registration order.
	ListByDate(ctx context.Context, date model.Date) ([]*model.WorkShift, error)
	ListByVet(ctx context.Context, vetID uuid.UUID) ([]*model.WorkShift, error)
	// ListWorkDays returns distinct dates on or after from that have any
	// shift, ascending.
	ListWorkDays(ctx context.Context, from model.Date, limit int) ([]model.Date, error)
}

type BookingRepository interface {
	// LockDate serialises booking writers for one date until the enclosing
	// transaction ends.
	LockDate(ctx context.Context, date model.Date) error
	Create(ctx context.Context, booking *model.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListActiveIntervals(ctx context.Context, date model.Date) ([]*model.BookedInterval, error)
	ExistsActiveAt(ctx context.Context, date model.Date, start model.ClockTime) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Booking, error)
	ListByDate(ctx context.Context, date model.Date) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error
}

type CatalogRepository interface {
	CreateService(ctx context.Context, svc *model.ServiceDefinition) error
	GetService(ctx context.Context, id uuid.UUID) (*model.ServiceDefinition, error)
	ListServices(ctx context.Context) ([]*model.ServiceDefinition, error)
	UpdateService(ctx context.Context, svc *model.ServiceDefinition) error
	DeleteService(ctx context.Context, id uuid.UUID) error

	CreatePetType(ctx context.Context, petType *model.PetType) error
	ListPetTypes(ctx context.Context) ([]*model.PetType, error)
}

type MedicationRepository interface {
	Create(ctx context.Context, med *model.Medication) error
	Get(ctx context.Context, id uuid.UUID) (*model.Medication, error)
	List(ctx context.Context) ([]*model.Medication, error)
	Update(ctx context.Context, med *model.Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	// LockForUpdate loads and row-locks the given medications. Unknown ids
	// are absent from the result.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]*model.Medication, error)
	// AdjustStock adds delta to the stock. A negative delta that would take
	// stock below zero fails with ErrInsufficientStock.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type DispensingRepository interface {
	Create(ctx context.Context, entry *model.DispensingEntry) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.DispensingEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*model.DispensedLine, error)
}

type TreatmentRepository interface {
	Create(ctx context.Context, record *model.TreatmentRecord) error
	Get(ctx context.Context, id uuid.UUID) (*model.TreatmentRecord, error)
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*model.TreatmentRecord, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*model.TreatmentRecord, error)
	Update(ctx context.Context, record *model.TreatmentRecord) error
	// CountByDate counts treatments per treatment date on or after since,
	// ascending. A nil since counts all of them.
	CountByDate(ctx context.Context, since *model.Date) ([]*model.DateCount, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	// ClaimPending locks up to limit pending events for the enclosing
	// transaction, skipping rows other relays hold.
	ClaimPending(ctx context.Context, limit int, maxAttempts int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
