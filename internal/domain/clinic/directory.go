package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Directory adapts the clinic and doctor repositories to the scope
// resolver's lookup interface.
type Directory struct {
	clinics ClinicRepository
	doctors DoctorRepository
}

func NewDirectory(clinics ClinicRepository, doctors DoctorRepository) *Directory {
	return &Directory{clinics: clinics, doctors: doctors}
}

func (d *Directory) ClinicIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	c, err := d.clinics.GetByUser(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}

func (d *Directory) ClinicExists(ctx context.Context, clinicID uuid.UUID) (bool, error) {
	_, err := d.clinics.GetByID(ctx, clinicID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Directory) DoctorByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	doc, err := d.doctors.GetByUser(ctx, userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return doc.ID, doc.ClinicID, nil
}

func (d *Directory) DoctorClinic(ctx context.Context, doctorID uuid.UUID) (uuid.UUID, error) {
	doc, err := d.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return uuid.Nil, err
	}
	return doc.ClinicID, nil
}
