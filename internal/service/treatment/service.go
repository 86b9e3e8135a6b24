package treatment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

// Service keeps the clinical record of each booking and its payment.
type Service struct {
	repos  *repository.Set
	events event.Recorder
	log    *logger.Logger
	now    func() time.Time
}

func NewService(repos *repository.Set, events event.Recorder, log *logger.Logger) *Service {
	return &Service{
		repos:  repos,
		events: events,
		log:    log.Component("treatment"),
		now:    time.Now,
	}
}

// Create records the treatment for a booking. A booking has at most one.
func (s *Service) Create(ctx context.Context, vetID uuid.UUID, req *model.CreateTreatmentRequest) (*model.TreatmentRecord, error) {
	if req.WeightKg <= 0 {
		return nil, apperrors.NewValidation("invalid treatment", "weight must be greater than 0")
	}

	booking, err := s.repos.Bookings.Get(ctx, req.BookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking", "failed to get booking")
	}

	_, err = s.repos.Treatments.GetByBooking(ctx, booking.ID)
	switch {
	case err == nil:
		return nil, apperrors.NewConflict("treatment already recorded")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewInternal(fmt.Errorf("failed to check treatment: %w", err))
	}

	if vetID == uuid.Nil && booking.VetID != nil {
		vetID = *booking.VetID
	}

	record := &model.TreatmentRecord{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		VetID:         vetID,
		WeightKg:      req.WeightKg,
		Details:       strings.TrimSpace(req.Details),
		TreatmentDate: model.DateOf(s.now()),
		PayStatus:     model.PayStatusUnpaid,
	}
	if err := s.repos.Treatments.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("treatment already recorded")
		}
		return nil, apperrors.NewInternal(fmt.Errorf("failed to create treatment: %w", err))
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentRecord, error) {
	record, err := s.repos.Treatments.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "treatment", "failed to get treatment")
	}
	return record, nil
}

func (s *Service) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*model.TreatmentRecord, error) {
	records, err := s.repos.Treatments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list treatments: %w", err))
	}
	if records == nil {
		records = []*model.TreatmentRecord{}
	}
	return records, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTreatmentRequest) (*model.TreatmentRecord, error) {
	var problems []string
	if req.WeightKg <= 0 {
		problems = append(problems, "weight must be greater than 0")
	}
	if req.PayStatus != nil && *req.PayStatus != model.PayStatusPaid && *req.PayStatus != model.PayStatusUnpaid {
		problems = append(problems, fmt.Sprintf("pay_status %q is not one of unpaid, paid", *req.PayStatus))
	}
	if req.PaymentMethod != nil && !req.PaymentMethod.Valid() {
		problems = append(problems, fmt.Sprintf("payment_method %q is not one of cash, transfer, card", *req.PaymentMethod))
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidation("invalid treatment", problems...)
	}

	record, err := s.repos.Treatments.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "treatment", "failed to get treatment")
	}

	record.WeightKg = req.WeightKg
	record.Details = strings.TrimSpace(req.Details)
	if req.PayStatus != nil {
		record.PayStatus = *req.PayStatus
	}
	if req.PaymentMethod != nil {
		method := *req.PaymentMethod
		record.PaymentMethod = &method
	}

	if err := s.repos.Treatments.Update(ctx, record); err != nil {
		return nil, notFoundOr(err, "treatment", "failed to update treatment")
	}
	return record, nil
}

// MarkPaid settles a treatment with the given payment method.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, method model.PaymentMethod) (*model.TreatmentRecord, error) {
	if !method.Valid() {
		return nil, apperrors.NewValidation("invalid payment method",
			fmt.Sprintf("payment_method %q is not one of cash, transfer, card", method))
	}

	var record *model.TreatmentRecord
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.repos.Treatments.Get(ctx, id)
		if err != nil {
			return notFoundOr(err, "treatment", "failed to get treatment")
		}
		if record.PayStatus == model.PayStatusPaid {
			return apperrors.NewConflict("treatment is already paid")
		}

		record.PayStatus = model.PayStatusPaid
		record.PaymentMethod = &method
		if err := s.repos.Treatments.Update(ctx, record); err != nil {
			return notFoundOr(err, "treatment", "failed to update treatment")
		}
		if err := s.events.Emit(ctx, model.EventTreatmentPaid, event.TreatmentPaid{
			TreatmentID: record.ID,
			BookingID:   record.BookingID,
			Method:      method,
		}); err != nil {
			return apperrors.NewInternal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("treatment paid", "treatment_id", id.String(), "method", string(method))
	return record, nil
}

// Invoice totals the booked service and every dispensed medication.
func (s *Service) Invoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	record, err := s.repos.Treatments.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "treatment", "failed to get treatment")
	}

	booking, err := s.repos.Bookings.Get(ctx, record.BookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking", "failed to get booking")
	}

	invoice := &model.Invoice{
		TreatmentID: record.ID,
		BookingID:   booking.ID,
		PayStatus:   record.PayStatus,
	}

	svc, err := s.repos.Catalog.GetService(ctx, booking.ServiceID)
	switch {
	case err == nil:
		invoice.ServiceName = svc.Name
		invoice.ServicePrice = svc.Price
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewInternal(fmt.Errorf("failed to get service: %w", err))
	}

	lines, err := s.repos.Dispensing.ListByTreatment(ctx, record.ID)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to list dispensing: %w", err))
	}
	if lines == nil {
		lines = []*model.DispensedLine{}
	}
	invoice.Lines = lines
	for _, line := range lines {
		invoice.Medications += line.Total()
	}
	invoice.Medications = roundCents(invoice.Medications)
	invoice.Total = roundCents(invoice.ServicePrice + invoice.Medications)
	return invoice, nil
}

// Report counts treatments per day over the last seven days, or per month
// or year over all records. An empty period means month.
func (s *Service) Report(ctx context.Context, period model.ReportPeriod) (*model.TreatmentReport, error) {
	if period == "" {
		period = model.ReportMonth
	}
	if !period.Valid() {
		return nil, apperrors.NewValidation("invalid report type",
			fmt.Sprintf("type %q is not one of week, month, year", period))
	}

	var since *model.Date
	label := func(d model.Date) string { return d.Format("2006-01") }
	switch period {
	case model.ReportWeek:
		from := model.DateOf(s.now().AddDate(0, 0, -6))
		since = &from
		label = func(d model.Date) string { return d.String() }
	case model.ReportYear:
		label = func(d model.Date) string { return d.Format("2006") }
	}

	counts, err := s.repos.Treatments.CountByDate(ctx, since)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to count treatments: %w", err))
	}

	report := &model.TreatmentReport{Type: period, Labels: []string{}, Data: []int{}}
	for _, c := range counts {
		l := label(c.Date)
		if n := len(report.Labels); n > 0 && report.Labels[n-1] == l {
			report.Data[n-1] += c.Total
			continue
		}
		report.Labels = append(report.Labels, l)
		report.Data = append(report.Data, c.Total)
	}
	return report, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func notFoundOr(err error, resource, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, err)
	}
	return apperrors.NewInternal(fmt.Errorf("%s: %w", msg, err))
}
