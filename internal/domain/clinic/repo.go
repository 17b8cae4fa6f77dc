package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ClinicRepository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*Clinic, error)
	Update(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Clinic, int, error)
	ListActive(ctx context.Context) ([]*Clinic, error)
	Count(ctx context.Context) (int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Doctor, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	Count(ctx context.Context) (int, error)
	CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error)

	ReplaceEducations(ctx context.Context, doctorID uuid.UUID, items []*DoctorEducation) error
	ReplaceCertifications(ctx context.Context, doctorID uuid.UUID, items []*DoctorCertification) error
	GetEducations(ctx context.Context, doctorID uuid.UUID) ([]*DoctorEducation, error)
	GetCertifications(ctx context.Context, doctorID uuid.UUID) ([]*DoctorCertification, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Count(ctx context.Context) (int, error)
	CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListUpcomingByClinic(ctx context.Context, clinicID uuid.UUID, from time.Time, limit int) ([]*Appointment, error)
	ListBetweenByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	Count(ctx context.Context) (int, error)
	CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
	BookingsPerDoctor(ctx context.Context) (map[uuid.UUID]int, error)
	AppointmentsPerPatient(ctx context.Context) (map[uuid.UUID]int, error)
}
