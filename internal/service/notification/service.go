package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/email"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/service/event"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/messaging"
)

// Service mails customers when one of their bookings is created or changes
// status. It consumes the events the outbox relay publishes.
type Service struct {
	repos  *repository.Set
	mailer email.Service
	broker messaging.Broker
	log    *logger.Logger
}

func NewService(repos *repository.Set, mailer email.Service, broker messaging.Broker, log *logger.Logger) *Service {
	return &Service{
		repos:  repos,
		mailer: mailer,
		broker: broker,
		log:    log.Component("notification"),
	}
}

// Start subscribes to the booking channels and handles messages until ctx
// is cancelled. A message that cannot be handled is logged and dropped.
func (s *Service) Start(ctx context.Context) error {
	handlers := map[string]func(context.Context, []byte) error{
		model.EventBookingCreated:       s.HandleBookingCreated,
		model.EventBookingStatusChanged: s.HandleStatusChanged,
	}

	var wg sync.WaitGroup
	for channel, handle := range handlers {
		msgs, err := s.broker.Subscribe(ctx, channel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}

		wg.Add(1)
		go func(channel string, msgs <-chan []byte, handle func(context.Context, []byte) error) {
			defer wg.Done()
			for payload := range msgs {
				if err := handle(ctx, payload); err != nil {
					s.log.Error(err, "failed to send booking notice", "channel", channel)
				}
			}
		}(channel, msgs, handle)
	}

	s.log.Info("notification service started")
	wg.Wait()
	return nil
}

func (s *Service) HandleBookingCreated(ctx context.Context, payload []byte) error {
	var evt event.BookingCreated
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("invalid booking.created payload: %w", err)
	}
	return s.notify(ctx, evt.BookingID)
}

func (s *Service) HandleStatusChanged(ctx context.Context, payload []byte) error {
	var evt event.BookingStatusChanged
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("invalid booking.status_changed payload: %w", err)
	}
	return s.notify(ctx, evt.BookingID)
}

// notify reads the booking's current state, so a late message never reports
// a stale status.
func (s *Service) notify(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repos.Bookings.Get(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to get booking %s: %w", bookingID, err)
	}
	customer, err := s.repos.Users.Get(ctx, booking.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to get customer %s: %w", booking.CustomerID, err)
	}

	notice := email.BookingNotice{
		BookingID: booking.ID.String(),
		Date:      booking.Date.String(),
		Time:      booking.StartTime.String(),
		Status:    string(booking.Status),
	}

	if pet, err := s.repos.Pets.Get(ctx, booking.PetID); err == nil {
		notice.PetName = pet.Name
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to get pet: %w", err)
	}
	if svc, err := s.repos.Catalog.GetService(ctx, booking.ServiceID); err == nil {
		notice.ServiceName = svc.Name
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to get service: %w", err)
	}

	if err := s.mailer.SendBookingNotice(ctx, customer.Email, notice); err != nil {
		return err
	}
	s.log.Debug("booking notice sent", "booking_id", notice.BookingID, "status", notice.Status)
	return nil
}
