package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
)

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.s.write(ctx, func(d *state) error {
		user.Email = strings.ToLower(user.Email)
		for _, u := range d.users {
			if u.Email == user.Email {
				return repository.ErrDuplicate
			}
		}
		user.Touch(time.Now())
		d.seq++
		d.users[user.ID] = *user
		d.userSeq[user.ID] = d.seq
		return nil
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var out *model.User
	r.s.read(func(d *state) {
		if u, ok := d.users[id]; ok {
			out = &u
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	email = strings.ToLower(email)
	r.s.read(func(d *state) {
		for _, u := range d.users {
			if u.Email == email {
				u := u
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	var out []*model.User
	var seq map[uuid.UUID]int64
	r.s.read(func(d *state) {
		seq = cloneMap(d.userSeq)
		for _, u := range d.users {
			if u.Role == role {
				u := u
				out = append(out, &u)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return seq[out[i].ID] < seq[out[j].ID] })
	return out, nil
}

func (r *userRepository) Search(ctx context.Context, role model.Role, query string) ([]*model.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []*model.User
	r.s.read(func(d *state) {
		for _, u := range d.users {
			if u.Role != role {
				continue
			}
			if strings.Contains(strings.ToLower(u.Name), query) ||
				strings.Contains(u.Email, query) ||
				strings.Contains(strings.ToLower(u.Phone), query) {
				u := u
				out = append(out, &u)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.s.write(ctx, func(d *state) error {
		u, ok := d.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		email := strings.ToLower(user.Email)
		for id, other := range d.users {
			if id != user.ID && other.Email == email {
				return repository.ErrDuplicate
			}
		}
		u.Name = user.Name
		u.Email = email
		u.Phone = user.Phone
		u.UpdatedAt = time.Now()
		d.users[user.ID] = u
		*user = u
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.users[id]; !ok {
			return repository.ErrNotFound
		}
		for _, p := range d.pets {
			if p.CustomerID == id {
				return repository.ErrReferenced
			}
		}
		for _, b := range d.bookings {
			if b.CustomerID == id || (b.VetID != nil && *b.VetID == id) {
				return repository.ErrReferenced
			}
		}
		for _, sh := range d.shifts {
			if sh.VetID == id {
				return repository.ErrReferenced
			}
		}
		delete(d.users, id)
		delete(d.userSeq, id)
		return nil
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.s.write(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now()
		d.users[id] = u
		return nil
	})
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.EmailVerified = true
		u.UpdatedAt = time.Now()
		d.users[id] = u
		return nil
	})
}

type petRepository struct{ s *Store }

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	return r.s.write(ctx, func(d *state) error {
		if pet.ID == uuid.Nil {
			pet.ID = uuid.New()
		}
		pet.CreatedAt = time.Now()
		pet.UpdatedAt = pet.CreatedAt
		d.pets[pet.ID] = *pet
		return nil
	})
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var out *model.Pet
	r.s.read(func(d *state) {
		if p, ok := d.pets[id]; ok {
			out = &p
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *petRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Pet, error) {
	var out []*model.Pet
	r.s.read(func(d *state) {
		for _, p := range d.pets {
			if p.CustomerID == customerID {
				p := p
				out = append(out, &p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.pets[pet.ID]; !ok {
			return repository.ErrNotFound
		}
		pet.UpdatedAt = time.Now()
		d.pets[pet.ID] = *pet
		return nil
	})
}

type scheduleRepository struct{ s *Store }

func (r *scheduleRepository) withVetName(d *state, shift model.WorkShift) *model.WorkShift {
	if u, ok := d.users[shift.VetID]; ok {
		shift.VetName = u.Name
	}
	return &shift
}

func (r *scheduleRepository) Create(ctx context.Context, shift *model.WorkShift) error {
	return r.s.write(ctx, func(d *state) error {
		for _, existing := range d.shifts {
			if existing.VetID == shift.VetID && existing.Date.Equal(shift.Date) {
				return repository.ErrDuplicate
			}
		}
		if shift.ID == uuid.Nil {
			shift.ID = uuid.New()
		}
		shift.CreatedAt = time.Now()
		d.shifts[shift.ID] = *shift
		return nil
	})
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.WorkShift, error) {
	var out *model.WorkShift
	r.s.read(func(d *state) {
		if sh, ok := d.shifts[id]; ok {
			out = r.withVetName(d, sh)
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *scheduleRepository) Update(ctx context.Context, shift *model.WorkShift) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.shifts[shift.ID]
		if !ok {
			return repository.ErrNotFound
		}
		existing.StartTime = shift.StartTime
		existing.EndTime = shift.EndTime
		d.shifts[shift.ID] = existing
		return nil
	})
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.shifts[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.shifts, id)
		return nil
	})
}

func (r *scheduleRepository) Exists(ctx context.Context, vetID uuid.UUID, date model.Date) (bool, error) {
	found := false
	r.s.read(func(d *state) {
		for _, sh := range d.shifts {
			if sh.VetID == vetID && sh.Date.Equal(date) {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *scheduleRepository) ListByDate(ctx context.Context, date model.Date) ([]*model.WorkShift, error) {
	var out []*model.WorkShift
	var seq map[uuid.UUID]int64
	r.s.read(func(d *state) {
		seq = cloneMap(d.userSeq)
		for _, sh := range d.shifts {
			if sh.Date.Equal(date) {
				out = append(out, r.withVetName(d, sh))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if seq[out[i].VetID] != seq[out[j].VetID] {
			return seq[out[i].VetID] < seq[out[j].VetID]
		}
		return out[i].VetID.String() < out[j].VetID.String()
	})
	return out, nil
}

func (r *scheduleRepository) ListByVet(ctx context.Context, vetID uuid.UUID) ([]*model.WorkShift, error) {
	var out []*model.WorkShift
	r.s.read(func(d *state) {
		for _, sh := range d.shifts {
			if sh.VetID == vetID {
				out = append(out, r.withVetName(d, sh))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *scheduleRepository) ListWorkDays(ctx context.Context, from model.Date, limit int) ([]model.Date, error) {
	seen := map[string]model.Date{}
	r.s.read(func(d *state) {
		for _, sh := range d.shifts {
			if !sh.Date.Before(from) {
				seen[sh.Date.String()] = sh.Date
			}
		}
	})

	days := make([]model.Date, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

type bookingRepository struct{ s *Store }

// LockDate is a no-op: transactions on the store are already serialised.
func (r *bookingRepository) LockDate(ctx context.Context, date model.Date) error {
	return nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.s.write(ctx, func(d *state) error {
		if booking.VetID != nil && booking.Status.Active() {
			for _, b := range d.bookings {
				if b.VetID != nil && *b.VetID == *booking.VetID && b.Status.Active() &&
					b.Date.Equal(booking.Date) && b.StartTime == booking.StartTime {
					return repository.ErrDuplicate
				}
			}
		}
		if booking.ID == uuid.Nil {
			booking.ID = uuid.New()
		}
		booking.CreatedAt = time.Now()
		booking.UpdatedAt = booking.CreatedAt
		d.bookings[booking.ID] = *booking
		return nil
	})
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var out *model.Booking
	r.s.read(func(d *state) {
		if b, ok := d.bookings[id]; ok {
			out = &b
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *bookingRepository) ListActiveIntervals(ctx context.Context, date model.Date) ([]*model.BookedInterval, error) {
	var out []*model.BookedInterval
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			if !b.Date.Equal(date) || !b.Status.Active() {
				continue
			}
			iv := &model.BookedInterval{
				BookingID: b.ID,
				VetID:     b.VetID,
				Start:     b.StartTime,
				End:       b.EndTime,
			}
			if svc, ok := d.services[b.ServiceID]; ok {
				iv.ServiceMinutes = svc.Duration
			}
			out = append(out, iv)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r *bookingRepository) ExistsActiveAt(ctx context.Context, date model.Date, start model.ClockTime) (bool, error) {
	found := false
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			if b.Date.Equal(date) && b.StartTime == start && b.Status.Active() {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *bookingRepository) list(match func(b *model.Booking) bool) []*model.Booking {
	var out []*model.Booking
	r.s.read(func(d *state) {
		for _, b := range d.bookings {
			b := b
			if match(&b) {
				out = append(out, &b)
			}
		}
	})
	return out
}

func (r *bookingRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Booking, error) {
	out := r.list(func(b *model.Booking) bool { return b.CustomerID == customerID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].StartTime > out[j].StartTime
	})
	return out, nil
}

func (r *bookingRepository) ListByDate(ctx context.Context, date model.Date) ([]*model.Booking, error) {
	out := r.list(func(b *model.Booking) bool { return b.Date.Equal(date) })
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error {
	return r.s.write(ctx, func(d *state) error {
		b, ok := d.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		b.Status = status
		b.UpdatedAt = time.Now()
		d.bookings[id] = b
		return nil
	})
}

type catalogRepository struct{ s *Store }

func (r *catalogRepository) CreateService(ctx context.Context, svc *model.ServiceDefinition) error {
	return r.s.write(ctx, func(d *state) error {
		svc.Touch(time.Now())
		d.services[svc.ID] = *svc
		return nil
	})
}

func (r *catalogRepository) GetService(ctx context.Context, id uuid.UUID) (*model.ServiceDefinition, error) {
	var out *model.ServiceDefinition
	r.s.read(func(d *state) {
		if svc, ok := d.services[id]; ok {
			out = &svc
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *catalogRepository) ListServices(ctx context.Context) ([]*model.ServiceDefinition, error) {
	var out []*model.ServiceDefinition
	r.s.read(func(d *state) {
		for _, svc := range d.services {
			svc := svc
			out = append(out, &svc)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *catalogRepository) UpdateService(ctx context.Context, svc *model.ServiceDefinition) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.services[svc.ID]
		if !ok {
			return repository.ErrNotFound
		}
		svc.CreatedAt = existing.CreatedAt
		svc.UpdatedAt = time.Now()
		d.services[svc.ID] = *svc
		return nil
	})
}

func (r *catalogRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.services[id]; !ok {
			return repository.ErrNotFound
		}
		for _, b := range d.bookings {
			if b.ServiceID == id {
				return repository.ErrReferenced
			}
		}
		delete(d.services, id)
		return nil
	})
}

func (r *catalogRepository) CreatePetType(ctx context.Context, petType *model.PetType) error {
	return r.s.write(ctx, func(d *state) error {
		for _, pt := range d.petTypes {
			if strings.EqualFold(pt.Name, petType.Name) {
				return repository.ErrDuplicate
			}
		}
		if petType.ID == uuid.Nil {
			petType.ID = uuid.New()
		}
		d.petTypes[petType.ID] = *petType
		return nil
	})
}

func (r *catalogRepository) ListPetTypes(ctx context.Context) ([]*model.PetType, error) {
	var out []*model.PetType
	r.s.read(func(d *state) {
		for _, pt := range d.petTypes {
			pt := pt
			out = append(out, &pt)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type medicationRepository struct{ s *Store }

func (r *medicationRepository) Create(ctx context.Context, med *model.Medication) error {
	return r.s.write(ctx, func(d *state) error {
		med.Touch(time.Now())
		d.meds[med.ID] = *med
		return nil
	})
}

func (r *medicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	var out *model.Medication
	r.s.read(func(d *state) {
		if m, ok := d.meds[id]; ok {
			out = &m
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *medicationRepository) List(ctx context.Context) ([]*model.Medication, error) {
	var out []*model.Medication
	r.s.read(func(d *state) {
		for _, m := range d.meds {
			m := m
			out = append(out, &m)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *medicationRepository) Update(ctx context.Context, med *model.Medication) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.meds[med.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if med.StockQuantity < 0 {
			return repository.ErrInsufficientStock
		}
		med.CreatedAt = existing.CreatedAt
		med.UpdatedAt = time.Now()
		d.meds[med.ID] = *med
		return nil
	})
}

func (r *medicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.meds[id]; !ok {
			return repository.ErrNotFound
		}
		for _, e := range d.dispens {
			if e.MedicationID == id {
				return repository.ErrReferenced
			}
		}
		delete(d.meds, id)
		return nil
	})
}

func (r *medicationRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]*model.Medication, error) {
	var out []*model.Medication
	r.s.read(func(d *state) {
		seen := map[uuid.UUID]bool{}
		for _, id := range ids {
			if m, ok := d.meds[id]; ok && !seen[id] {
				seen[id] = true
				out = append(out, &m)
			}
		}
	})
	sortByID(out, func(m *model.Medication) uuid.UUID { return m.ID })
	return out, nil
}

func (r *medicationRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	return r.s.write(ctx, func(d *state) error {
		m, ok := d.meds[id]
		if !ok {
			return repository.ErrNotFound
		}
		if m.StockQuantity+delta < 0 {
			return repository.ErrInsufficientStock
		}
		m.StockQuantity += delta
		m.UpdatedAt = time.Now()
		d.meds[id] = m
		return nil
	})
}

type dispensingRepository struct{ s *Store }

func (r *dispensingRepository) Create(ctx context.Context, entry *model.DispensingEntry) error {
	return r.s.write(ctx, func(d *state) error {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CreatedAt = time.Now()
		d.dispens[entry.ID] = *entry
		return nil
	})
}

func (r *dispensingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.DispensingEntry, error) {
	var out *model.DispensingEntry
	r.s.read(func(d *state) {
		if e, ok := d.dispens[id]; ok {
			out = &e
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *dispensingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.dispens[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.dispens, id)
		return nil
	})
}

func (r *dispensingRepository) ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*model.DispensedLine, error) {
	var out []*model.DispensedLine
	r.s.read(func(d *state) {
		for _, e := range d.dispens {
			if e.TreatmentID != treatmentID {
				continue
			}
			line := &model.DispensedLine{DispensingEntry: e}
			if m, ok := d.meds[e.MedicationID]; ok {
				line.MedicationName = m.Name
				line.UnitPrice = m.UnitPrice
			}
			out = append(out, line)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type treatmentRepository struct{ s *Store }

func (r *treatmentRepository) Create(ctx context.Context, record *model.TreatmentRecord) error {
	return r.s.write(ctx, func(d *state) error {
		for _, t := range d.treatments {
			if t.BookingID == record.BookingID {
				return repository.ErrDuplicate
			}
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		record.CreatedAt = time.Now()
		record.UpdatedAt = record.CreatedAt
		d.treatments[record.ID] = *record
		return nil
	})
}

func (r *treatmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentRecord, error) {
	var out *model.TreatmentRecord
	r.s.read(func(d *state) {
		if t, ok := d.treatments[id]; ok {
			out = &t
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r *treatmentRepository) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*model.TreatmentRecord, error) {
	records, _ := r.ListByBooking(ctx, bookingID)
	if len(records) == 0 {
		return nil, repository.ErrNotFound
	}
	return records[0], nil
}

func (r *treatmentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*model.TreatmentRecord, error) {
	var out []*model.TreatmentRecord
	r.s.read(func(d *state) {
		for _, t := range d.treatments {
			if t.BookingID == bookingID {
				t := t
				out = append(out, &t)
			}
		}
	})
	return out, nil
}

func (r *treatmentRepository) Update(ctx context.Context, record *model.TreatmentRecord) error {
	return r.s.write(ctx, func(d *state) error {
		existing, ok := d.treatments[record.ID]
		if !ok {
			return repository.ErrNotFound
		}
		record.CreatedAt = existing.CreatedAt
		record.UpdatedAt = time.Now()
		d.treatments[record.ID] = *record
		return nil
	})
}

func (r *treatmentRepository) CountByDate(ctx context.Context, since *model.Date) ([]*model.DateCount, error) {
	totals := map[string]*model.DateCount{}
	r.s.read(func(d *state) {
		for _, t := range d.treatments {
			if since != nil && t.TreatmentDate.Before(*since) {
				continue
			}
			key := t.TreatmentDate.String()
			if c, ok := totals[key]; ok {
				c.Total++
				continue
			}
			totals[key] = &model.DateCount{Date: t.TreatmentDate, Total: 1}
		}
	})

	out := make([]*model.DateCount, 0, len(totals))
	for _, c := range totals {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type outboxRepository struct{ s *Store }

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || !json.Valid(event.Payload) {
		return errors.New("event payload must be valid JSON")
	}
	return r.s.write(ctx, func(d *state) error {
		event.ID = uuid.New()
		event.Status = model.OutboxStatusPending
		event.CreatedAt = time.Now()
		d.outbox[event.ID] = *event
		return nil
	})
}

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, maxAttempts int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	r.s.read(func(d *state) {
		for _, e := range d.outbox {
			if e.Status == model.OutboxStatusPending && e.Attempts < maxAttempts {
				e := e
				out = append(out, &e)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		e, ok := d.outbox[id]
		if !ok {
			return repository.ErrNotFound
		}
		now := time.Now()
		e.Status = model.OutboxStatusProcessed
		e.ProcessedAt = &now
		e.LastError = nil
		d.outbox[id] = e
		return nil
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error {
	return r.s.write(ctx, func(d *state) error {
		e, ok := d.outbox[id]
		if !ok {
			return repository.ErrNotFound
		}
		e.Attempts++
		e.LastError = &reason
		if e.Attempts >= maxAttempts {
			e.Status = model.OutboxStatusFailed
		}
		d.outbox[id] = e
		return nil
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *state) error {
		for id, e := range d.outbox {
			if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
				delete(d.outbox, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
