package clinic

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

// Clinic types and statuses.
const (
	TypeGeneral        = "GENERAL"
	TypeMultispecialty = "MULTISPECIALTY"
	TypeDental         = "DENTAL"
	TypeEye            = "EYE"
	TypePediatric      = "PEDIATRIC"

	StatusActive    = "ACTIVE"
	StatusInactive  = "INACTIVE"
	StatusSuspended = "SUSPENDED"
)

var validClinicTypes = map[string]bool{
	TypeGeneral: true, TypeMultispecialty: true, TypeDental: true,
	TypeEye: true, TypePediatric: true,
}

var validClinicStatuses = map[string]bool{
	StatusActive: true, StatusInactive: true, StatusSuspended: true,
}

// Clinic maps to the clinics table. Every other business entity is scoped,
// directly or through a parent, to exactly one clinic.
type Clinic struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Website     *string   `db:"website" json:"website,omitempty"`
	Type        string    `db:"clinic_type" json:"clinic_type"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	ClinicID             uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	UserID               uuid.UUID  `db:"user_id" json:"user_id"`
	Name                 string     `db:"name" json:"name"`
	Phone                *string    `db:"phone" json:"phone,omitempty"`
	Email                *string    `db:"email" json:"email,omitempty"`
	DateOfBirth          *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	YearsOfExperience    *int       `db:"years_of_experience" json:"years_of_experience,omitempty"`
	MedicalLicenseNumber *string    `db:"medical_license_number" json:"medical_license_number,omitempty"`
	BloodGroup           *string    `db:"blood_group" json:"blood_group,omitempty"`
	Gender               *string    `db:"gender" json:"gender,omitempty"`
	Address              *string    `db:"address" json:"address,omitempty"`
	Specialization       *string    `db:"specialization" json:"specialization,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`

	Educations     []*DoctorEducation     `db:"-" json:"educations,omitempty"`
	Certifications []*DoctorCertification `db:"-" json:"certifications,omitempty"`
}

// DoctorEducation is a child record of a doctor.
type DoctorEducation struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Degree      string    `db:"degree" json:"degree"`
	Institution string    `db:"institution" json:"institution"`
	YearOfPass  *int      `db:"year_of_pass" json:"year_of_pass,omitempty"`
}

// DoctorCertification is a child record of a doctor.
type DoctorCertification struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	DoctorID   uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Name       string     `db:"name" json:"name"`
	IssuedBy   *string    `db:"issued_by" json:"issued_by,omitempty"`
	IssuedDate *time.Time `db:"issued_date" json:"issued_date,omitempty"`
}

// Patient maps to the patients table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClinicID    uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	BloodGroup  *string    `db:"blood_group" json:"blood_group,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	CareOf      *string    `db:"care_of" json:"care_of,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// Age is derived from DateOfBirth on read, never stored.
	Age *int `db:"-" json:"age,omitempty"`
}

// ComputeAge fills the derived Age field from DateOfBirth.
func (p *Patient) ComputeAge(now time.Time) {
	if p.DateOfBirth == nil {
		p.Age = nil
		return
	}
	dob := *p.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	p.Age = &age
}

// FullName returns "first last" trimmed of missing parts.
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// Appointment statuses.
const (
	AppointmentScheduled = "SCHEDULED"
	AppointmentCompleted = "COMPLETED"
	AppointmentCancelled = "CANCELLED"
)

var validAppointmentStatuses = map[string]bool{
	AppointmentScheduled: true, AppointmentCompleted: true, AppointmentCancelled: true,
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	AppointmentCode string     `db:"appointment_code" json:"appointment_code"`
	ClinicID        uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	Date            time.Time  `db:"appointment_date" json:"appointment_date"`
	Time            string     `db:"appointment_time" json:"appointment_time"`
	Reason          *string    `db:"reason" json:"reason,omitempty"`
	Status          string     `db:"status" json:"status"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy       *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	DoctorName  string `db:"-" json:"doctor_name,omitempty"`
	PatientName string `db:"-" json:"patient_name,omitempty"`
}

const appointmentCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewAppointmentCode generates a code of the form APT-XXXXXX. Uniqueness is
// enforced by the database constraint; collisions are vanishingly rare.
func NewAppointmentCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i := range buf {
		buf[i] = appointmentCodeAlphabet[int(buf[i])%len(appointmentCodeAlphabet)]
	}
	return "APT-" + string(buf)
}
