package dispensing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/metrics"
	"github.com/jwalitptl/vetclinic-api/pkg/tracer"
)

const tracerName = "github.com/jwalitptl/vetclinic-api/internal/service/dispensing"

// Service is the dispensing ledger. Every stock change it makes is paired
// with a dispensing entry in the same transaction.
type Service struct {
	repos   *repository.Set
	events  event.Recorder
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewService(repos *repository.Set, events event.Recorder, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repos:   repos,
		events:  events,
		metrics: m,
		log:     log.Component("dispensing"),
		now:     time.Now,
	}
}

// demand is the total quantity asked for one medication across a batch.
type demand struct {
	medicationID uuid.UUID
	quantity     int
}

// Dispense records every line of the batch and takes the quantities out of
// stock. Either the whole batch is applied or nothing is.
func (s *Service) Dispense(ctx context.Context, req *model.DispenseRequest) ([]*model.DispensingEntry, error) {
	if err := validateItems(req); err != nil {
		s.metrics.DispensingRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	ctx, span := tracer.Start(ctx, tracerName, "dispensing.Dispense",
		attribute.String("treatment.id", req.TreatmentID.String()),
		attribute.Int("dispensing.lines", len(req.Medications)),
	)

	var entries []*model.DispensingEntry
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var txErr error
		entries, txErr = s.dispense(ctx, req)
		return txErr
	})
	tracer.End(span, err)

	if err != nil {
		s.metrics.DispensingRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	units := 0
	for _, e := range entries {
		units += e.Quantity
	}
	s.metrics.DispensedUnits.Add(float64(units))
	s.log.Info("medications dispensed",
		"treatment_id", req.TreatmentID.String(),
		"lines", len(entries),
		"units", units,
	)
	return entries, nil
}

func validateItems(req *model.DispenseRequest) error {
	var problems []string
	if req.TreatmentID == uuid.Nil {
		problems = append(problems, "treatment_id is required")
	}
	if len(req.Medications) == 0 {
		problems = append(problems, "at least one medication is required")
	}
	for i, item := range req.Medications {
		if item.MedicationID == uuid.Nil {
			problems = append(problems, fmt.Sprintf("medications[%d]: medication_id is required", i))
		}
		if item.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("medications[%d]: quantity must be greater than 0, got %d", i, item.Quantity))
		}
	}
	if len(problems) > 0 {
		return apperrors.NewValidation("invalid dispensing request", problems...)
	}
	return nil
}

func (s *Service) dispense(ctx context.Context, req *model.DispenseRequest) ([]*model.DispensingEntry, error) {
	if _, err := s.repos.Treatments.Get(ctx, req.TreatmentID); err != nil {
		return nil, notFoundOr(err, "treatment", "failed to get treatment")
	}

	demands := sumByMedication(req.Medications)
	ids := make([]uuid.UUID, 0, len(demands))
	for _, d := range demands {
		ids = append(ids, d.medicationID)
	}

	locked, err := s.repos.Medications.LockForUpdate(ctx, ids)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to lock medications: %w", err))
	}
	byID := make(map[uuid.UUID]*model.Medication, len(locked))
	for _, m := range locked {
		byID[m.ID] = m
	}

	var missing, shortfalls []string
	for _, d := range demands {
		med, ok := byID[d.medicationID]
		if !ok {
			missing = append(missing, fmt.Sprintf("medication %s does not exist", d.medicationID))
			continue
		}
		if med.StockQuantity < d.quantity {
			shortfalls = append(shortfalls, fmt.Sprintf("%s: insufficient stock, have %d, want %d",
				med.Name, med.StockQuantity, d.quantity))
		}
	}
	// An unknown medication decides the status, but every line's reason is
	// reported.
	if len(missing) > 0 {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrNotFound,
			Message: "medication not found",
			Details: append(missing, shortfalls...),
		}
	}
	if len(shortfalls) > 0 {
		return nil, apperrors.NewConflict("insufficient stock", shortfalls...)
	}

	for _, d := range demands {
		if err := s.repos.Medications.AdjustStock(ctx, d.medicationID, -d.quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, apperrors.NewConflict("insufficient stock",
					fmt.Sprintf("%s: insufficient stock", byID[d.medicationID].Name))
			}
			return nil, notFoundOr(err, "medication", "failed to update stock")
		}
	}

	today := model.DateOf(s.now())
	entries := make([]*model.DispensingEntry, 0, len(req.Medications))
	payload := event.DispensingRecorded{TreatmentID: req.TreatmentID}
	for _, item := range req.Medications {
		entry := &model.DispensingEntry{
			ID:           uuid.New(),
			TreatmentID:  req.TreatmentID,
			MedicationID: item.MedicationID,
			Quantity:     item.Quantity,
			Date:         today,
		}
		if err := s.repos.Dispensing.Create(ctx, entry); err != nil {
			return nil, apperrors.NewInternal(fmt.Errorf("failed to record dispensing: %w", err))
		}
		entries = append(entries, entry)
		payload.Entries = append(payload.Entries, event.DispensingLineInfo{
			DispensID:    entry.ID,
			MedicationID: entry.MedicationID,
			Quantity:     entry.Quantity,
		})
	}

	if err := s.events.Emit(ctx, model.EventDispensingRecorded, payload); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return entries, nil
}

// sumByMedication merges repeated medications, keeping first-seen order.
func sumByMedication(items []model.DispenseItem) []demand {
	index := make(map[uuid.UUID]int, len(items))
	var out []demand
	for _, item := range items {
		if i, ok := index[item.MedicationID]; ok {
			out[i].quantity += item.Quantity
			continue
		}
		index[item.MedicationID] = len(out)
		out = append(out, demand{medicationID: item.MedicationID, quantity: item.Quantity})
	}
	return out
}

// Reverse deletes a dispensing entry and puts its quantity back in stock.
func (s *Service) Reverse(ctx context.Context, dispensID uuid.UUID) (*model.DispensingEntry, error) {
	ctx, span := tracer.Start(ctx, tracerName, "dispensing.Reverse",
		attribute.String("dispens.id", dispensID.String()),
	)

	var entry *model.DispensingEntry
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.repos.Dispensing.GetForUpdate(ctx, dispensID)
		if err != nil {
			return notFoundOr(err, "dispensing entry", "failed to get dispensing entry")
		}
		if err := s.repos.Dispensing.Delete(ctx, dispensID); err != nil {
			return notFoundOr(err, "dispensing entry", "failed to delete dispensing entry")
		}
		if err := s.repos.Medications.AdjustStock(ctx, entry.MedicationID, entry.Quantity); err != nil {
			return notFoundOr(err, "medication", "failed to restore stock")
		}
		if err := s.events.Emit(ctx, model.EventDispensingReversed, event.DispensingReversed{
			DispensID:    entry.ID,
			TreatmentID:  entry.TreatmentID,
			MedicationID: entry.MedicationID,
			Quantity:     entry.Quantity,
		}); err != nil {
			return apperrors.NewInternal(err)
		}
		return nil
	})
	tracer.End(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.DispensingReversed.Inc()
	s.log.Info("dispensing reversed",
		"dispens_id", entry.ID.String(),
		"medication_id", entry.MedicationID.String(),
		"quantity", entry.Quantity,
	)
	return entry, nil
}

// List returns the treatment's dispensed lines with medication details.
func (s *Service) List(ctx context.Context, treatmentID uuid.UUID) ([]*model.DispensedLine, error) {
	if _, err := s.repos.Treatments.Get(ctx, treatmentID); err != nil {
		return nil, notFoundOr(err, "treatment", "failed to get treatment")
	}
	lines, err := s.repos.Dispensing.ListByTreatment(ctx, treatmentID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list dispensing: %w", err))
	}
	return lines, nil
}

func notFoundOr(err error, resource, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, err)
	}
	return apperrors.NewInternal(fmt.Errorf("%s: %w", msg, err))
}

func rejectReason(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return "internal"
	}
	switch appErr.Code {
	case apperrors.ErrNotFound:
		return "not_found"
	case apperrors.ErrConflict:
		return "insufficient_stock"
	default:
		return "internal"
	}
}
