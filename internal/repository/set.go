package repository

// Set bundles one backend's repositories with the transactor they share.
type Set struct {
	Tx          Transactor
	Users       UserRepository
	Pets        PetRepository
	Schedule    ScheduleRepository
	Bookings    BookingRepository
	Catalog     CatalogRepository
	Medications MedicationRepository
	Dispensing  DispensingRepository
	Treatments  TreatmentRepository
	Outbox      OutboxRepository
}
