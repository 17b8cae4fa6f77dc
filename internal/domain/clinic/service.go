package clinic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaisagh-mp/clinic-project/internal/domain/accounts"
	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
	"github.com/vaisagh-mp/clinic-project/internal/platform/db"
	"github.com/vaisagh-mp/clinic-project/internal/platform/mail"
)

type Service struct {
	clinics      ClinicRepository
	doctors      DoctorRepository
	patients     PatientRepository
	appointments AppointmentRepository
	users        accounts.UserRepository
	tx           db.TxRunner
	mailer       mail.EmailSender
	templates    *mail.Registry
	logger       zerolog.Logger
}

func NewService(clinics ClinicRepository, doctors DoctorRepository, patients PatientRepository,
	appointments AppointmentRepository, users accounts.UserRepository, tx db.TxRunner,
	mailer mail.EmailSender, templates *mail.Registry, logger zerolog.Logger) *Service {
	return &Service{
		clinics:      clinics,
		doctors:      doctors,
		patients:     patients,
		appointments: appointments,
		users:        users,
		tx:           tx,
		mailer:       mailer,
		templates:    templates,
		logger:       logger,
	}
}

// -- Clinics --

type ClinicInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Website     *string `json:"website"`
	Type        string  `json:"clinic_type"`
	Status      string  `json:"status"`

	// Credentials for the clinic's login, used on create only.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// CreateClinic provisions the clinic's login user and the clinic row in one
// transaction.
func (s *Service) CreateClinic(ctx context.Context, in ClinicInput) (*Clinic, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if in.Type == "" {
		in.Type = TypeGeneral
	}
	if !validClinicTypes[in.Type] {
		return nil, fmt.Errorf("invalid clinic_type: %s", in.Type)
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !validClinicStatuses[in.Status] {
		return nil, fmt.Errorf("invalid status: %s", in.Status)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	email := ""
	if in.Email != nil {
		email = *in.Email
	}

	var created *Clinic
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u := &accounts.User{
			Username:     in.Username,
			Email:        email,
			FirstName:    in.Name,
			PasswordHash: hash,
			Role:         auth.RoleClinic,
			IsActive:     true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("create clinic user: %w", err)
		}

		c := &Clinic{
			UserID:      u.ID,
			Name:        in.Name,
			Description: in.Description,
			Address:     in.Address,
			Phone:       in.Phone,
			Email:       in.Email,
			Website:     in.Website,
			Type:        in.Type,
			Status:      in.Status,
		}
		if err := s.clinics.Create(ctx, c); err != nil {
			return fmt.Errorf("create clinic: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if email != "" {
		s.sendMail(ctx, email, "clinic-welcome", map[string]string{
			"clinic_name": in.Name,
			"username":    in.Username,
		})
	}
	return created, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.clinics.GetByID(ctx, id)
}

func (s *Service) ListClinics(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.List(ctx, limit, offset)
}

func (s *Service) UpdateClinic(ctx context.Context, id uuid.UUID, in ClinicInput) (*Clinic, error) {
	c, err := s.clinics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Type != "" {
		if !validClinicTypes[in.Type] {
			return nil, fmt.Errorf("invalid clinic_type: %s", in.Type)
		}
		c.Type = in.Type
	}
	if in.Status != "" {
		if !validClinicStatuses[in.Status] {
			return nil, fmt.Errorf("invalid status: %s", in.Status)
		}
		c.Status = in.Status
	}
	if in.Description != nil {
		c.Description = in.Description
	}
	if in.Address != nil {
		c.Address = in.Address
	}
	if in.Phone != nil {
		c.Phone = in.Phone
	}
	if in.Email != nil {
		c.Email = in.Email
	}
	if in.Website != nil {
		c.Website = in.Website
	}
	if err := s.clinics.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteClinic removes the clinic and its login user together.
func (s *Service) DeleteClinic(ctx context.Context, id uuid.UUID) error {
	c, err := s.clinics.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.clinics.Delete(ctx, c.ID); err != nil {
			return err
		}
		return s.users.Delete(ctx, c.UserID)
	})
}

// -- Doctors --

type DoctorInput struct {
	Name                 string     `json:"name"`
	Phone                *string    `json:"phone"`
	Email                *string    `json:"email"`
	DateOfBirth          *time.Time `json:"date_of_birth"`
	YearsOfExperience    *int       `json:"years_of_experience"`
	MedicalLicenseNumber *string    `json:"medical_license_number"`
	BloodGroup           *string    `json:"blood_group"`
	Gender               *string    `json:"gender"`
	Address              *string    `json:"address"`
	Specialization       *string    `json:"specialization"`

	Educations     []*DoctorEducation     `json:"educations"`
	Certifications []*DoctorCertification `json:"certifications"`

	// Credentials for the doctor's login, used on create only.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// CreateDoctor provisions the doctor's login user, the doctor row, and its
// education/certification children in one transaction.
func (s *Service) CreateDoctor(ctx context.Context, clinicID uuid.UUID, in DoctorInput) (*Doctor, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	email := ""
	if in.Email != nil {
		email = *in.Email
	}

	var created *Doctor
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u := &accounts.User{
			Username:     in.Username,
			Email:        email,
			FirstName:    in.Name,
			PasswordHash: hash,
			Role:         auth.RoleDoctor,
			IsActive:     true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("create doctor user: %w", err)
		}

		d := &Doctor{
			ClinicID:             clinicID,
			UserID:               u.ID,
			Name:                 in.Name,
			Phone:                in.Phone,
			Email:                in.Email,
			DateOfBirth:          in.DateOfBirth,
			YearsOfExperience:    in.YearsOfExperience,
			MedicalLicenseNumber: in.MedicalLicenseNumber,
			BloodGroup:           in.BloodGroup,
			Gender:               in.Gender,
			Address:              in.Address,
			Specialization:       in.Specialization,
		}
		if err := s.doctors.Create(ctx, d); err != nil {
			return fmt.Errorf("create doctor: %w", err)
		}
		if len(in.Educations) > 0 {
			if err := s.doctors.ReplaceEducations(ctx, d.ID, in.Educations); err != nil {
				return err
			}
			d.Educations = in.Educations
		}
		if len(in.Certifications) > 0 {
			if err := s.doctors.ReplaceCertifications(ctx, d.ID, in.Certifications); err != nil {
				return err
			}
			d.Certifications = in.Certifications
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetDoctor returns a doctor with education and certification children.
func (s *Service) GetDoctor(ctx context.Context, clinicID, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinicID != uuid.Nil && d.ClinicID != clinicID {
		return nil, fmt.Errorf("doctor does not belong to this clinic")
	}
	if d.Educations, err = s.doctors.GetEducations(ctx, d.ID); err != nil {
		return nil, err
	}
	if d.Certifications, err = s.doctors.GetCertifications(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	if clinicID == uuid.Nil {
		return s.doctors.ListAll(ctx, limit, offset)
	}
	return s.doctors.ListByClinic(ctx, clinicID, limit, offset)
}

func (s *Service) UpdateDoctor(ctx context.Context, clinicID, id uuid.UUID, in DoctorInput) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinicID != uuid.Nil && d.ClinicID != clinicID {
		return nil, fmt.Errorf("doctor does not belong to this clinic")
	}
	if in.Name != "" {
		d.Name = in.Name
	}
	if in.Phone != nil {
		d.Phone = in.Phone
	}
	if in.Email != nil {
		d.Email = in.Email
	}
	if in.DateOfBirth != nil {
		d.DateOfBirth = in.DateOfBirth
	}
	if in.YearsOfExperience != nil {
		d.YearsOfExperience = in.YearsOfExperience
	}
	if in.MedicalLicenseNumber != nil {
		d.MedicalLicenseNumber = in.MedicalLicenseNumber
	}
	if in.BloodGroup != nil {
		d.BloodGroup = in.BloodGroup
	}
	if in.Gender != nil {
		d.Gender = in.Gender
	}
	if in.Address != nil {
		d.Address = in.Address
	}
	if in.Specialization != nil {
		d.Specialization = in.Specialization
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.doctors.Update(ctx, d); err != nil {
			return err
		}
		if in.Educations != nil {
			if err := s.doctors.ReplaceEducations(ctx, d.ID, in.Educations); err != nil {
				return err
			}
			d.Educations = in.Educations
		}
		if in.Certifications != nil {
			if err := s.doctors.ReplaceCertifications(ctx, d.ID, in.Certifications); err != nil {
				return err
			}
			d.Certifications = in.Certifications
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDoctor removes the doctor and its login user together.
func (s *Service) DeleteDoctor(ctx context.Context, clinicID, id uuid.UUID) error {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if clinicID != uuid.Nil && d.ClinicID != clinicID {
		return fmt.Errorf("doctor does not belong to this clinic")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.doctors.Delete(ctx, d.ID); err != nil {
			return err
		}
		return s.users.Delete(ctx, d.UserID)
	})
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, clinicID uuid.UUID, p *Patient) (*Patient, error) {
	if p.FirstName == "" {
		return nil, fmt.Errorf("first_name is required")
	}
	p.ClinicID = clinicID
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	p.ComputeAge(time.Now())
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinicID != uuid.Nil && p.ClinicID != clinicID {
		return nil, fmt.Errorf("patient does not belong to this clinic")
	}
	p.ComputeAge(time.Now())
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	var (
		items []*Patient
		total int
		err   error
	)
	if clinicID == uuid.Nil {
		items, total, err = s.patients.ListAll(ctx, limit, offset)
	} else {
		items, total, err = s.patients.ListByClinic(ctx, clinicID, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	for _, p := range items {
		p.ComputeAge(now)
	}
	return items, total, nil
}

func (s *Service) UpdatePatient(ctx context.Context, clinicID, id uuid.UUID, in *Patient) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinicID != uuid.Nil && p.ClinicID != clinicID {
		return nil, fmt.Errorf("patient does not belong to this clinic")
	}
	if in.FirstName != "" {
		p.FirstName = in.FirstName
	}
	if in.LastName != "" {
		p.LastName = in.LastName
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = in.DateOfBirth
	}
	if in.Gender != nil {
		p.Gender = in.Gender
	}
	if in.BloodGroup != nil {
		p.BloodGroup = in.BloodGroup
	}
	if in.Address != nil {
		p.Address = in.Address
	}
	if in.CareOf != nil {
		p.CareOf = in.CareOf
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	p.ComputeAge(time.Now())
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, clinicID, id uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if clinicID != uuid.Nil && p.ClinicID != clinicID {
		return fmt.Errorf("patient does not belong to this clinic")
	}
	return s.patients.Delete(ctx, p.ID)
}

// -- Appointments --

type AppointmentInput struct {
	DoctorID  uuid.UUID  `json:"doctor_id"`
	PatientID uuid.UUID  `json:"patient_id"`
	Date      string     `json:"appointment_date"`
	Time      string     `json:"appointment_time"`
	Reason    *string    `json:"reason"`
	Status    string     `json:"status"`
	Notes     *string    `json:"notes"`
	CreatedBy *uuid.UUID `json:"-"`
}

func (s *Service) CreateAppointment(ctx context.Context, clinicID uuid.UUID, in AppointmentInput) (*Appointment, error) {
	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, fmt.Errorf("appointment_date must be YYYY-MM-DD")
	}
	today := time.Now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, fmt.Errorf("appointment_date cannot be in the past")
	}
	if in.Time == "" {
		return nil, fmt.Errorf("appointment_time is required")
	}

	d, err := s.doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("doctor not found")
	}
	if d.ClinicID != clinicID {
		return nil, fmt.Errorf("doctor does not belong to this clinic")
	}
	p, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}
	if p.ClinicID != clinicID {
		return nil, fmt.Errorf("patient does not belong to this clinic")
	}

	status := in.Status
	if status == "" {
		status = AppointmentScheduled
	}
	if !validAppointmentStatuses[status] {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	a := &Appointment{
		AppointmentCode: NewAppointmentCode(),
		ClinicID:        clinicID,
		DoctorID:        in.DoctorID,
		PatientID:       in.PatientID,
		Date:            date,
		Time:            in.Time,
		Reason:          in.Reason,
		Status:          status,
		Notes:           in.Notes,
		CreatedBy:       in.CreatedBy,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	a.DoctorName = d.Name
	a.PatientName = p.FullName()
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinicID != uuid.Nil && a.ClinicID != clinicID {
		return nil, fmt.Errorf("appointment does not belong to this clinic")
	}
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	if clinicID == uuid.Nil {
		return s.appointments.ListAll(ctx, limit, offset)
	}
	return s.appointments.ListByClinic(ctx, clinicID, limit, offset)
}

func (s *Service) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) UpdateAppointment(ctx context.Context, clinicID, id uuid.UUID, in AppointmentInput) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if clinicID != uuid.Nil && a.ClinicID != clinicID {
		return nil, fmt.Errorf("appointment does not belong to this clinic")
	}
	if in.DoctorID != uuid.Nil {
		a.DoctorID = in.DoctorID
	}
	if in.PatientID != uuid.Nil {
		a.PatientID = in.PatientID
	}
	if in.Date != "" {
		date, err := time.Parse("2006-01-02", in.Date)
		if err != nil {
			return nil, fmt.Errorf("appointment_date must be YYYY-MM-DD")
		}
		a.Date = date
	}
	if in.Time != "" {
		a.Time = in.Time
	}
	if in.Status != "" {
		if !validAppointmentStatuses[in.Status] {
			return nil, fmt.Errorf("invalid status: %s", in.Status)
		}
		a.Status = in.Status
	}
	if in.Reason != nil {
		a.Reason = in.Reason
	}
	if in.Notes != nil {
		a.Notes = in.Notes
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, clinicID, id uuid.UUID) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if clinicID != uuid.Nil && a.ClinicID != clinicID {
		return fmt.Errorf("appointment does not belong to this clinic")
	}
	return s.appointments.Delete(ctx, a.ID)
}

func (s *Service) sendMail(ctx context.Context, to, templateID string, data map[string]string) {
	if s.mailer == nil || s.templates == nil {
		return
	}
	subject, body, err := s.templates.Render(templateID, data)
	if err != nil {
		s.logger.Error().Err(err).Str("template", templateID).Msg("render mail template")
		return
	}
	if err := s.mailer.SendEmail(ctx, to, subject, body); err != nil {
		s.logger.Error().Err(err).Str("to", to).Str("template", templateID).Msg("send mail")
	}
}
