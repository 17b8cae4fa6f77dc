package consultation

import (
	"context"

	"github.com/google/uuid"
)

// ConsultationRepository persists consultations.
type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
	CountPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}

// PrescriptionRepository persists prescription lines.
type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Prescription, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}
