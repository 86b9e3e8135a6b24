package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
)

// Recorder writes domain events to the outbox. Call Emit with the ctx of the
// transaction that performs the state change so both commit together.
type Recorder interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

type EventService struct {
	outboxRepo repository.OutboxRepository
	now        func() time.Time
}

func NewEventService(outboxRepo repository.OutboxRepository) *EventService {
	return &EventService{
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    model.OutboxStatusPending,
		CreatedAt: s.now(),
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// Payloads published for each event type.

type BookingCreated struct {
	BookingID  uuid.UUID       `json:"booking_id"`
	CustomerID uuid.UUID       `json:"cus_id"`
	PetID      uuid.UUID       `json:"pet_id"`
	VetID      uuid.UUID       `json:"vet_id"`
	ServiceID  uuid.UUID       `json:"service_id"`
	Date       model.Date      `json:"date"`
	Start      model.ClockTime `json:"time"`
	End        model.ClockTime `json:"end_time"`
	Assignment string          `json:"assignment"`
}

type BookingStatusChanged struct {
	BookingID uuid.UUID           `json:"booking_id"`
	From      model.BookingStatus `json:"from"`
	To        model.BookingStatus `json:"to"`
}

type DispensingRecorded struct {
	TreatmentID uuid.UUID            `json:"treatment_id"`
	Entries     []DispensingLineInfo `json:"entries"`
}

type DispensingLineInfo struct {
	DispensID    uuid.UUID `json:"dispens_id"`
	MedicationID uuid.UUID `json:"medication_id"`
	Quantity     int       `json:"quantity"`
}

type DispensingReversed struct {
	DispensID    uuid.UUID `json:"dispens_id"`
	TreatmentID  uuid.UUID `json:"treatment_id"`
	MedicationID uuid.UUID `json:"medication_id"`
	Quantity     int       `json:"quantity"`
}

type TreatmentPaid struct {
	TreatmentID uuid.UUID           `json:"treatment_id"`
	BookingID   uuid.UUID           `json:"booking_id"`
	Method      model.PaymentMethod `json:"payment_method"`
}
