package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaisagh-mp/clinic-project/internal/domain/clinic"
	"github.com/vaisagh-mp/clinic-project/internal/platform/db"
)

// ErrPatientNotFound is returned when a patient does not exist or belongs
// to a different clinic than the requesting doctor.
var ErrPatientNotFound = errors.New("patient not found")

// Service implements consultation workflows for the doctor panel.
type Service struct {
	consultations ConsultationRepository
	prescriptions PrescriptionRepository
	appointments  clinic.AppointmentRepository
	patients      clinic.PatientRepository
	tx            db.TxRunner
	logger        zerolog.Logger
}

func NewService(
	consultations ConsultationRepository,
	prescriptions PrescriptionRepository,
	appointments clinic.AppointmentRepository,
	patients clinic.PatientRepository,
	tx db.TxRunner,
	logger zerolog.Logger,
) *Service {
	return &Service{
		consultations: consultations,
		prescriptions: prescriptions,
		appointments:  appointments,
		patients:      patients,
		tx:            tx,
		logger:        logger.With().Str("component", "consultation-service").Logger(),
	}
}

// PrescriptionInput is one prescription line nested in a consultation.
type PrescriptionInput struct {
	MedicineName *string    `json:"medicine_name"`
	ProcedureID  *uuid.UUID `json:"procedure_id"`
	Dosage       *string    `json:"dosage"`
	Frequency    *string    `json:"frequency"`
	Duration     *string    `json:"duration"`
	Timings      *string    `json:"timings"`
}

// ConsultationInput carries the writable consultation fields.
type ConsultationInput struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`

	Temperature     *float64 `json:"temperature"`
	Pulse           *int     `json:"pulse"`
	RespiratoryRate *int     `json:"respiratory_rate"`
	SpO2            *float64 `json:"spo2"`
	Height          *float64 `json:"height"`
	Weight          *float64 `json:"weight"`
	BMI             *float64 `json:"bmi"`
	Waist           *float64 `json:"waist"`
	BloodPressure   *string  `json:"blood_pressure"`
	HeartRate       *int     `json:"heart_rate"`

	Complaints     *string `json:"complaints"`
	Findings       *string `json:"findings"`
	Diagnosis      *string `json:"diagnosis"`
	Investigations *string `json:"investigations"`
	TreatmentPlan  *string `json:"treatment_plan"`
	TreatmentDone  *string `json:"treatment_done"`
	Advices        *string `json:"advices"`
	Allergies      *string `json:"allergies"`

	ReferredToID  *uuid.UUID `json:"referred_to_id"`
	ReferralNotes *string    `json:"referral_notes"`

	NextConsultation     *string `json:"next_consultation"`
	EmptyStomachRequired bool    `json:"empty_stomach_required"`

	Prescriptions []PrescriptionInput `json:"prescriptions"`
}

func (in *ConsultationInput) apply(c *Consultation) error {
	c.Temperature = in.Temperature
	c.Pulse = in.Pulse
	c.RespiratoryRate = in.RespiratoryRate
	c.SpO2 = in.SpO2
	c.Height = in.Height
	c.Weight = in.Weight
	c.BMI = in.BMI
	c.Waist = in.Waist
	c.BloodPressure = in.BloodPressure
	c.HeartRate = in.HeartRate
	c.Complaints = in.Complaints
	c.Findings = in.Findings
	c.Diagnosis = in.Diagnosis
	c.Investigations = in.Investigations
	c.TreatmentPlan = in.TreatmentPlan
	c.TreatmentDone = in.TreatmentDone
	c.Advices = in.Advices
	c.Allergies = in.Allergies
	c.ReferredToID = in.ReferredToID
	c.ReferralNotes = in.ReferralNotes
	c.EmptyStomachRequired = in.EmptyStomachRequired
	if in.NextConsultation != nil && *in.NextConsultation != "" {
		d, err := time.Parse("2006-01-02", *in.NextConsultation)
		if err != nil {
			return fmt.Errorf("invalid next_consultation date: %w", err)
		}
		c.NextConsultation = &d
	} else {
		c.NextConsultation = nil
	}
	return nil
}

// CreateConsultation records a consultation with its prescription lines. When
// the consultation references an appointment, that appointment is marked
// completed in the same transaction. The patient must belong to the doctor's
// clinic.
func (s *Service) CreateConsultation(ctx context.Context, doctorID, clinicID uuid.UUID, in *ConsultationInput) (*Consultation, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	patient, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil || patient.ClinicID != clinicID {
		return nil, ErrPatientNotFound
	}

	c := &Consultation{
		DoctorID:    doctorID,
		PatientID:   patient.ID,
		PatientName: patient.FullName(),
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}

	if in.AppointmentID != nil {
		appt, err := s.appointments.GetByID(ctx, *in.AppointmentID)
		if err != nil {
			return nil, fmt.Errorf("appointment not found")
		}
		if appt.DoctorID != doctorID {
			return nil, fmt.Errorf("appointment belongs to another doctor")
		}
		c.AppointmentID = &appt.ID
	}

	lines := make([]*Prescription, 0, len(in.Prescriptions))
	for i := range in.Prescriptions {
		p := &Prescription{
			MedicineName: in.Prescriptions[i].MedicineName,
			ProcedureID:  in.Prescriptions[i].ProcedureID,
			Dosage:       in.Prescriptions[i].Dosage,
			Frequency:    in.Prescriptions[i].Frequency,
			Duration:     in.Prescriptions[i].Duration,
			Timings:      in.Prescriptions[i].Timings,
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		lines = append(lines, p)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.consultations.Create(ctx, c); err != nil {
			return err
		}
		for _, p := range lines {
			p.ConsultationID = c.ID
			if err := s.prescriptions.Create(ctx, p); err != nil {
				return err
			}
		}
		if c.AppointmentID != nil {
			if err := s.appointments.UpdateStatus(ctx, *c.AppointmentID, clinic.AppointmentCompleted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.Prescriptions = lines
	s.logger.Info().Str("consultation_id", c.ID.String()).Str("doctor_id", doctorID.String()).Msg("consultation created")
	return c, nil
}

// GetConsultation loads a consultation and its prescriptions, enforcing
// doctor ownership.
func (s *Service) GetConsultation(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	c, err := s.consultations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.DoctorID != doctorID {
		return nil, fmt.Errorf("consultation belongs to another doctor")
	}
	c.Prescriptions, err = s.prescriptions.ListByConsultation(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateConsultation rewrites the consultation fields and replaces its
// prescription lines when the input carries any. The consultation's patient
// must still belong to the doctor's clinic.
func (s *Service) UpdateConsultation(ctx context.Context, doctorID, clinicID, id uuid.UUID, in *ConsultationInput) (*Consultation, error) {
	c, err := s.consultations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.DoctorID != doctorID {
		return nil, fmt.Errorf("consultation belongs to another doctor")
	}
	if patient, err := s.patients.GetByID(ctx, c.PatientID); err != nil || patient.ClinicID != clinicID {
		return nil, ErrPatientNotFound
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}

	var lines []*Prescription
	replaceLines := in.Prescriptions != nil
	if replaceLines {
		lines = make([]*Prescription, 0, len(in.Prescriptions))
		for i := range in.Prescriptions {
			p := &Prescription{
				ConsultationID: c.ID,
				MedicineName:   in.Prescriptions[i].MedicineName,
				ProcedureID:    in.Prescriptions[i].ProcedureID,
				Dosage:         in.Prescriptions[i].Dosage,
				Frequency:      in.Prescriptions[i].Frequency,
				Duration:       in.Prescriptions[i].Duration,
				Timings:        in.Prescriptions[i].Timings,
			}
			if err := p.Validate(); err != nil {
				return nil, err
			}
			lines = append(lines, p)
		}
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.consultations.Update(ctx, c); err != nil {
			return err
		}
		if !replaceLines {
			return nil
		}
		existing, err := s.prescriptions.ListByConsultation(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if err := s.prescriptions.Delete(ctx, p.ID); err != nil {
				return err
			}
		}
		for _, p := range lines {
			if err := s.prescriptions.Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replaceLines {
		c.Prescriptions = lines
	} else {
		c.Prescriptions, err = s.prescriptions.ListByConsultation(ctx, c.ID)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DeleteConsultation removes a consultation and its prescription lines.
func (s *Service) DeleteConsultation(ctx context.Context, doctorID, id uuid.UUID) error {
	c, err := s.consultations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.DoctorID != doctorID {
		return fmt.Errorf("consultation belongs to another doctor")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.prescriptions.ListByConsultation(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if err := s.prescriptions.Delete(ctx, p.ID); err != nil {
				return err
			}
		}
		return s.consultations.Delete(ctx, id)
	})
}

func (s *Service) ListConsultations(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.consultations.ListByDoctor(ctx, doctorID, limit, offset)
}

// ListPatientConsultations returns a patient's consultation history. The
// patient must belong to the requesting clinic.
func (s *Service) ListPatientConsultations(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil || patient.ClinicID != clinicID {
		return nil, 0, ErrPatientNotFound
	}
	return s.consultations.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListPrescriptions(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListClinicPrescriptions(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByClinic(ctx, clinicID, limit, offset)
}

// DoctorDashboard summarises a doctor's workload.
type DoctorDashboard struct {
	Consultations        int                   `json:"consultations"`
	Patients             int                   `json:"patients"`
	Prescriptions        int                   `json:"prescriptions"`
	UpcomingAppointments []*clinic.Appointment `json:"upcoming_appointments"`
}

// Dashboard returns counts plus the doctor's appointments for the next
// seven days.
func (s *Service) Dashboard(ctx context.Context, doctorID uuid.UUID) (*DoctorDashboard, error) {
	d := &DoctorDashboard{}
	var err error
	if d.Consultations, err = s.consultations.CountByDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	if d.Patients, err = s.consultations.CountPatientsByDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	if d.Prescriptions, err = s.prescriptions.CountByDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	from := time.Now().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 7)
	if d.UpcomingAppointments, err = s.appointments.ListBetweenByDoctor(ctx, doctorID, from, to); err != nil {
		return nil, err
	}
	if d.UpcomingAppointments == nil {
		d.UpcomingAppointments = []*clinic.Appointment{}
	}
	return d, nil
}
