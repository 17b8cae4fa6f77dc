package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AdminDashboard is the superadmin overview across every clinic.
type AdminDashboard struct {
	Clinics           int                  `json:"clinics"`
	Doctors           int                  `json:"doctors"`
	Patients          int                  `json:"patients"`
	Appointments      int                  `json:"appointments"`
	BookingsPerDoctor []DoctorBookings     `json:"bookings_per_doctor"`
	VisitsPerPatient  []PatientAppointment `json:"appointments_per_patient"`
}

type DoctorBookings struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Name     string    `json:"name"`
	Bookings int       `json:"bookings"`
}

type PatientAppointment struct {
	PatientID    uuid.UUID `json:"patient_id"`
	Name         string    `json:"name"`
	Appointments int       `json:"appointments"`
}

func (s *Service) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	d := &AdminDashboard{}
	var err error
	if d.Clinics, err = s.clinics.Count(ctx); err != nil {
		return nil, err
	}
	if d.Doctors, err = s.doctors.Count(ctx); err != nil {
		return nil, err
	}
	if d.Patients, err = s.patients.Count(ctx); err != nil {
		return nil, err
	}
	if d.Appointments, err = s.appointments.Count(ctx); err != nil {
		return nil, err
	}

	perDoctor, err := s.appointments.BookingsPerDoctor(ctx)
	if err != nil {
		return nil, err
	}
	doctors, _, err := s.doctors.ListAll(ctx, 100, 0)
	if err != nil {
		return nil, err
	}
	for _, doc := range doctors {
		d.BookingsPerDoctor = append(d.BookingsPerDoctor, DoctorBookings{
			DoctorID: doc.ID,
			Name:     doc.Name,
			Bookings: perDoctor[doc.ID],
		})
	}

	perPatient, err := s.appointments.AppointmentsPerPatient(ctx)
	if err != nil {
		return nil, err
	}
	patients, _, err := s.patients.ListAll(ctx, 100, 0)
	if err != nil {
		return nil, err
	}
	for _, p := range patients {
		d.VisitsPerPatient = append(d.VisitsPerPatient, PatientAppointment{
			PatientID:    p.ID,
			Name:         p.FullName(),
			Appointments: perPatient[p.ID],
		})
	}

	return d, nil
}

// ClinicDashboard is the per-clinic overview.
type ClinicDashboard struct {
	Doctors              int            `json:"doctors"`
	Patients             int            `json:"patients"`
	Appointments         int            `json:"appointments"`
	LatestDoctors        []*Doctor      `json:"latest_doctors"`
	LatestPatients       []*Patient     `json:"latest_patients"`
	UpcomingAppointments []*Appointment `json:"upcoming_appointments"`
}

func (s *Service) ClinicDashboard(ctx context.Context, clinicID uuid.UUID) (*ClinicDashboard, error) {
	d := &ClinicDashboard{}
	var err error
	if d.Doctors, err = s.doctors.CountByClinic(ctx, clinicID); err != nil {
		return nil, err
	}
	if d.Patients, err = s.patients.CountByClinic(ctx, clinicID); err != nil {
		return nil, err
	}
	if d.Appointments, err = s.appointments.CountByClinic(ctx, clinicID); err != nil {
		return nil, err
	}
	if d.LatestDoctors, _, err = s.doctors.ListByClinic(ctx, clinicID, 5, 0); err != nil {
		return nil, err
	}
	if d.LatestPatients, _, err = s.patients.ListByClinic(ctx, clinicID, 5, 0); err != nil {
		return nil, err
	}
	now := time.Now()
	for _, p := range d.LatestPatients {
		p.ComputeAge(now)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.UpcomingAppointments, err = s.appointments.ListUpcomingByClinic(ctx, clinicID, today, 5); err != nil {
		return nil, err
	}
	return d, nil
}
