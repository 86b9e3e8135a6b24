// Package memory is an in-process backend for the repository interfaces.
// Transactions are serialised and roll back by restoring a snapshot, so the
// atomicity guarantees of the Postgres backend hold for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
)

type txKey struct{}

type state struct {
	users      map[uuid.UUID]model.User
	userSeq    map[uuid.UUID]int64
	pets       map[uuid.UUID]model.Pet
	shifts     map[uuid.UUID]model.WorkShift
	bookings   map[uuid.UUID]model.Booking
	services   map[uuid.UUID]model.ServiceDefinition
	petTypes   map[uuid.UUID]model.PetType
	meds       map[uuid.UUID]model.Medication
	dispens    map[uuid.UUID]model.DispensingEntry
	treatments map[uuid.UUID]model.TreatmentRecord
	outbox     map[uuid.UUID]model.OutboxEvent
	seq        int64
}

func newState() state {
	return state{
		users:      map[uuid.UUID]model.User{},
		userSeq:    map[uuid.UUID]int64{},
		pets:       map[uuid.UUID]model.Pet{},
		shifts:     map[uuid.UUID]model.WorkShift{},
		bookings:   map[uuid.UUID]model.Booking{},
		services:   map[uuid.UUID]model.ServiceDefinition{},
		petTypes:   map[uuid.UUID]model.PetType{},
		meds:       map[uuid.UUID]model.Medication{},
		dispens:    map[uuid.UUID]model.DispensingEntry{},
		treatments: map[uuid.UUID]model.TreatmentRecord{},
		outbox:     map[uuid.UUID]model.OutboxEvent{},
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		users:      cloneMap(s.users),
		userSeq:    cloneMap(s.userSeq),
		pets:       cloneMap(s.pets),
		shifts:     cloneMap(s.shifts),
		bookings:   cloneMap(s.bookings),
		services:   cloneMap(s.services),
		petTypes:   cloneMap(s.petTypes),
		meds:       cloneMap(s.meds),
		dispens:    cloneMap(s.dispens),
		treatments: cloneMap(s.treatments),
		outbox:     cloneMap(s.outbox),
		seq:        s.seq,
	}
}

// Store holds all records. Use NewSet to get repositories over it.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

// NewSet returns every repository backed by a fresh store.
func NewSet() *repository.Set {
	return NewStore().Set()
}

// Set returns every repository backed by s.
func (s *Store) Set() *repository.Set {
	return &repository.Set{
		Tx:          s,
		Users:       &userRepository{s},
		Pets:        &petRepository{s},
		Schedule:    &scheduleRepository{s},
		Bookings:    &bookingRepository{s},
		Catalog:     &catalogRepository{s},
		Medications: &medicationRepository{s},
		Dispensing:  &dispensingRepository{s},
		Treatments:  &treatmentRepository{s},
		Outbox:      &outboxRepository{s},
	}
}

// WithinTx runs fn with every other transaction and write held off. If fn
// fails, all changes it made are discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write applies fn under the write lock. Outside a transaction it also waits
// for running transactions so a rollback cannot discard the write.
func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.data)
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

func sortByID[T any](items []*T, id func(*T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool {
		return id(items[i]).String() < id(items[j]).String()
	})
}
