package consultation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var errMedicineOrProcedure = errors.New("prescription requires a medicine name or a procedure")

func errBadFrequency(v string) error {
	return fmt.Errorf("invalid frequency %q", v)
}

func errBadTiming(v string) error {
	return fmt.Errorf("invalid timings %q", v)
}

// Consultation maps to the consultations table. One consultation optionally
// closes out an appointment.
type Consultation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`

	// Vitals
	Temperature     *float64 `db:"temperature" json:"temperature,omitempty"`
	Pulse           *int     `db:"pulse" json:"pulse,omitempty"`
	RespiratoryRate *int     `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	SpO2            *float64 `db:"spo2" json:"spo2,omitempty"`
	Height          *float64 `db:"height" json:"height,omitempty"`
	Weight          *float64 `db:"weight" json:"weight,omitempty"`
	BMI             *float64 `db:"bmi" json:"bmi,omitempty"`
	Waist           *float64 `db:"waist" json:"waist,omitempty"`
	BloodPressure   *string  `db:"blood_pressure" json:"blood_pressure,omitempty"`
	HeartRate       *int     `db:"heart_rate" json:"heart_rate,omitempty"`

	// Clinical notes
	Complaints     *string `db:"complaints" json:"complaints,omitempty"`
	Findings       *string `db:"findings" json:"findings,omitempty"`
	Diagnosis      *string `db:"diagnosis" json:"diagnosis,omitempty"`
	Investigations *string `db:"investigations" json:"investigations,omitempty"`
	TreatmentPlan  *string `db:"treatment_plan" json:"treatment_plan,omitempty"`
	TreatmentDone  *string `db:"treatment_done" json:"treatment_done,omitempty"`
	Advices        *string `db:"advices" json:"advices,omitempty"`
	Allergies      *string `db:"allergies" json:"allergies,omitempty"`

	// Referral
	ReferredToID  *uuid.UUID `db:"referred_to_id" json:"referred_to_id,omitempty"`
	ReferralNotes *string    `db:"referral_notes" json:"referral_notes,omitempty"`

	// Follow-up
	NextConsultation     *time.Time `db:"next_consultation" json:"next_consultation,omitempty"`
	EmptyStomachRequired bool       `db:"empty_stomach_required" json:"empty_stomach_required"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Prescriptions []*Prescription `db:"-" json:"prescriptions,omitempty"`
	PatientName   string          `db:"-" json:"patient_name,omitempty"`
}

// Prescription frequencies describe the morning-noon-night dose pattern.
var validFrequencies = map[string]bool{
	"1-0-0": true, "0-1-0": true, "0-0-1": true, "1-0-1": true,
	"1-1-1": true, "0-1-1": true, "1-1-0": true,
}

// Prescription timings.
const (
	TimingBeforeMeal = "BEFORE_MEAL"
	TimingAfterMeal  = "AFTER_MEAL"
	TimingAnytime    = "ANYTIME"
)

var validTimings = map[string]bool{
	TimingBeforeMeal: true, TimingAfterMeal: true, TimingAnytime: true,
}

// Prescription maps to the prescriptions table. A line either names a
// medicine free-text or references a clinic procedure.
type Prescription struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConsultationID uuid.UUID  `db:"consultation_id" json:"consultation_id"`
	MedicineName   *string    `db:"medicine_name" json:"medicine_name,omitempty"`
	ProcedureID    *uuid.UUID `db:"procedure_id" json:"procedure_id,omitempty"`
	Dosage         *string    `db:"dosage" json:"dosage,omitempty"`
	Frequency      *string    `db:"frequency" json:"frequency,omitempty"`
	Duration       *string    `db:"duration" json:"duration,omitempty"`
	Timings        *string    `db:"timings" json:"timings,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Validate checks the enum fields and the medicine/procedure requirement.
func (p *Prescription) Validate() error {
	if (p.MedicineName == nil || *p.MedicineName == "") && p.ProcedureID == nil {
		return errMedicineOrProcedure
	}
	if p.Frequency != nil && *p.Frequency != "" && !validFrequencies[*p.Frequency] {
		return errBadFrequency(*p.Frequency)
	}
	if p.Timings != nil && *p.Timings != "" && !validTimings[*p.Timings] {
		return errBadTiming(*p.Timings)
	}
	return nil
}
