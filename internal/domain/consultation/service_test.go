package consultation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaisagh-mp/clinic-project/internal/domain/clinic"
)

// -- Mock Repositories --

type mockTxRunner struct{}

func (mockTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockConsultationRepo struct {
	consultations map[uuid.UUID]*Consultation
}

func newMockConsultationRepo() *mockConsultationRepo {
	return &mockConsultationRepo{consultations: make(map[uuid.UUID]*Consultation)}
}

func (m *mockConsultationRepo) Create(_ context.Context, c *Consultation) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.consultations[c.ID] = c
	return nil
}

func (m *mockConsultationRepo) GetByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	c, ok := m.consultations[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (m *mockConsultationRepo) Update(_ context.Context, c *Consultation) error {
	m.consultations[c.ID] = c
	return nil
}

func (m *mockConsultationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.consultations, id)
	return nil
}

func (m *mockConsultationRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var result []*Consultation
	for _, c := range m.consultations {
		if c.DoctorID == doctorID {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockConsultationRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var result []*Consultation
	for _, c := range m.consultations {
		if c.PatientID == patientID {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockConsultationRepo) CountByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	n := 0
	for _, c := range m.consultations {
		if c.DoctorID == doctorID {
			n++
		}
	}
	return n, nil
}

func (m *mockConsultationRepo) CountPatientsByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	patients := make(map[uuid.UUID]bool)
	for _, c := range m.consultations {
		if c.DoctorID == doctorID {
			patients[c.PatientID] = true
		}
	}
	return len(patients), nil
}

type mockPrescriptionRepo struct {
	prescriptions map[uuid.UUID]*Prescription
}

func newMockPrescriptionRepo() *mockPrescriptionRepo {
	return &mockPrescriptionRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (m *mockPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPrescriptionRepo) Update(_ context.Context, p *Prescription) error {
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockPrescriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.prescriptions, id)
	return nil
}

func (m *mockPrescriptionRepo) ListByConsultation(_ context.Context, consultationID uuid.UUID) ([]*Prescription, error) {
	var result []*Prescription
	for _, p := range m.prescriptions {
		if p.ConsultationID == consultationID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPrescriptionRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var result []*Prescription
	for _, p := range m.prescriptions {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockPrescriptionRepo) ListByClinic(_ context.Context, clinicID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var result []*Prescription
	for _, p := range m.prescriptions {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockPrescriptionRepo) CountByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	return len(m.prescriptions), nil
}

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*clinic.Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*clinic.Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *clinic.Appointment) error {
	a.ID = uuid.New()
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*clinic.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return a, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *clinic.Appointment) error {
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appointments[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.appointments, id)
	return nil
}

func (m *mockAppointmentRepo) ListByClinic(_ context.Context, clinicID uuid.UUID, limit, offset int) ([]*clinic.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*clinic.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockAppointmentRepo) ListAll(_ context.Context, limit, offset int) ([]*clinic.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockAppointmentRepo) ListUpcomingByClinic(_ context.Context, clinicID uuid.UUID, from time.Time, limit int) ([]*clinic.Appointment, error) {
	return nil, nil
}

func (m *mockAppointmentRepo) ListBetweenByDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*clinic.Appointment, error) {
	var result []*clinic.Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && !a.Date.Before(from) && a.Date.Before(to) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAppointmentRepo) Count(_ context.Context) (int, error) {
	return len(m.appointments), nil
}

func (m *mockAppointmentRepo) CountByClinic(_ context.Context, clinicID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockAppointmentRepo) CountByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockAppointmentRepo) BookingsPerDoctor(_ context.Context) (map[uuid.UUID]int, error) {
	return nil, nil
}

func (m *mockAppointmentRepo) AppointmentsPerPatient(_ context.Context) (map[uuid.UUID]int, error) {
	return nil, nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*clinic.Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*clinic.Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *clinic.Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*clinic.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *clinic.Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) ListByClinic(_ context.Context, clinicID uuid.UUID, limit, offset int) ([]*clinic.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) ListAll(_ context.Context, limit, offset int) ([]*clinic.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) Count(_ context.Context) (int, error) {
	return len(m.patients), nil
}

func (m *mockPatientRepo) CountByClinic(_ context.Context, clinicID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockPatientRepo) CountByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	return 0, nil
}

// -- Test Setup --

type testEnv struct {
	svc          *Service
	appointments *mockAppointmentRepo
	patients     *mockPatientRepo
	clinicID     uuid.UUID
	doctorID     uuid.UUID
	patientID    uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	appointments := newMockAppointmentRepo()
	patients := newMockPatientRepo()
	svc := NewService(
		newMockConsultationRepo(),
		newMockPrescriptionRepo(),
		appointments,
		patients,
		mockTxRunner{},
		zerolog.Nop(),
	)
	clinicID := uuid.New()
	doctorID := uuid.New()
	p := &clinic.Patient{ClinicID: clinicID, FirstName: "Ravi", LastName: "Menon"}
	patients.Create(context.Background(), p)
	return &testEnv{
		svc:          svc,
		appointments: appointments,
		patients:     patients,
		clinicID:     clinicID,
		doctorID:     doctorID,
		patientID:    p.ID,
	}
}

func strptr(s string) *string { return &s }

// -- Consultations --

func TestCreateConsultation(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID:  env.patientID,
		Complaints: strptr("toothache"),
		Prescriptions: []PrescriptionInput{
			{
				MedicineName: strptr("Ibuprofen"),
				Frequency:    strptr("1-0-1"),
				Timings:      strptr(TimingAfterMeal),
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PatientName != "Ravi Menon" {
		t.Errorf("patient_name = %q, want %q", c.PatientName, "Ravi Menon")
	}
	if len(c.Prescriptions) != 1 {
		t.Fatalf("prescriptions = %d, want 1", len(c.Prescriptions))
	}
	if c.Prescriptions[0].ConsultationID != c.ID {
		t.Error("prescription not linked to consultation")
	}
}

func TestCreateConsultation_PatientRequired(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{})
	if err == nil {
		t.Error("expected error for missing patient_id")
	}
}

func TestCreateConsultation_PatientFromAnotherClinic(t *testing.T) {
	env := newTestEnv(t)
	foreign := &clinic.Patient{ClinicID: uuid.New(), FirstName: "Meera"}
	env.patients.Create(context.Background(), foreign)

	_, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: foreign.ID,
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("err = %v, want ErrPatientNotFound", err)
	}
}

func TestListPatientConsultations_PatientFromAnotherClinic(t *testing.T) {
	env := newTestEnv(t)
	foreign := &clinic.Patient{ClinicID: uuid.New(), FirstName: "Meera"}
	env.patients.Create(context.Background(), foreign)

	if _, _, err := env.svc.ListPatientConsultations(context.Background(), env.clinicID, foreign.ID, 20, 0); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("err = %v, want ErrPatientNotFound", err)
	}

	// The patient's own clinic still sees the history.
	if _, _, err := env.svc.ListPatientConsultations(context.Background(), env.clinicID, env.patientID, 20, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUpdateConsultation_PatientMovedClinic(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: env.patientID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p, _ := env.patients.GetByID(context.Background(), env.patientID)
	p.ClinicID = uuid.New()

	_, err = env.svc.UpdateConsultation(context.Background(), env.doctorID, env.clinicID, c.ID, &ConsultationInput{
		PatientID: env.patientID,
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("err = %v, want ErrPatientNotFound", err)
	}
}

func TestCreateConsultation_MarksAppointmentCompleted(t *testing.T) {
	env := newTestEnv(t)
	appt := &clinic.Appointment{
		DoctorID:  env.doctorID,
		PatientID: env.patientID,
		Status:    clinic.AppointmentScheduled,
	}
	env.appointments.Create(context.Background(), appt)

	_, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID:     env.patientID,
		AppointmentID: &appt.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.appointments.GetByID(context.Background(), appt.ID)
	if got.Status != clinic.AppointmentCompleted {
		t.Errorf("appointment status = %q, want %q", got.Status, clinic.AppointmentCompleted)
	}
}

func TestCreateConsultation_AppointmentOfAnotherDoctor(t *testing.T) {
	env := newTestEnv(t)
	appt := &clinic.Appointment{
		DoctorID:  uuid.New(),
		PatientID: env.patientID,
		Status:    clinic.AppointmentScheduled,
	}
	env.appointments.Create(context.Background(), appt)

	_, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID:     env.patientID,
		AppointmentID: &appt.ID,
	})
	if err == nil {
		t.Error("expected error for appointment owned by another doctor")
	}
	got, _ := env.appointments.GetByID(context.Background(), appt.ID)
	if got.Status != clinic.AppointmentScheduled {
		t.Errorf("appointment status changed to %q", got.Status)
	}
}

func TestCreateConsultation_InvalidFrequency(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: env.patientID,
		Prescriptions: []PrescriptionInput{
			{MedicineName: strptr("Ibuprofen"), Frequency: strptr("2-0-0")},
		},
	})
	if err == nil {
		t.Error("expected error for invalid frequency")
	}
}

func TestCreateConsultation_InvalidTiming(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: env.patientID,
		Prescriptions: []PrescriptionInput{
			{MedicineName: strptr("Ibuprofen"), Timings: strptr("WITH_MEAL")},
		},
	})
	if err == nil {
		t.Error("expected error for invalid timing")
	}
}

func TestCreateConsultation_PrescriptionNeedsMedicineOrProcedure(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: env.patientID,
		Prescriptions: []PrescriptionInput{
			{Frequency: strptr("1-0-0")},
		},
	})
	if err == nil {
		t.Error("expected error for prescription without medicine or procedure")
	}
}

func TestGetConsultation_WrongDoctor(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: env.patientID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.GetConsultation(context.Background(), uuid.New(), c.ID); err == nil {
		t.Error("expected error for consultation owned by another doctor")
	}
}

func TestUpdateConsultation_ReplacesPrescriptions(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: env.patientID,
		Prescriptions: []PrescriptionInput{
			{MedicineName: strptr("Ibuprofen"), Frequency: strptr("1-0-1")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := env.svc.UpdateConsultation(context.Background(), env.doctorID, env.clinicID, c.ID, &ConsultationInput{
		PatientID: env.patientID,
		Prescriptions: []PrescriptionInput{
			{MedicineName: strptr("Paracetamol"), Frequency: strptr("1-1-1")},
			{MedicineName: strptr("Amoxicillin"), Frequency: strptr("1-0-0")},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Prescriptions) != 2 {
		t.Fatalf("prescriptions = %d, want 2", len(updated.Prescriptions))
	}
	got, err := env.svc.GetConsultation(context.Background(), env.doctorID, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Prescriptions) != 2 {
		t.Errorf("stored prescriptions = %d, want 2", len(got.Prescriptions))
	}
}

func TestDeleteConsultation_CascadesPrescriptions(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID: env.patientID,
		Prescriptions: []PrescriptionInput{
			{MedicineName: strptr("Ibuprofen")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.svc.DeleteConsultation(context.Background(), env.doctorID, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.svc.GetConsultation(context.Background(), env.doctorID, c.ID); err == nil {
		t.Error("expected consultation to be gone")
	}
	lines, _, err := env.svc.ListPrescriptions(context.Background(), env.doctorID, 20, 0)
	if err != nil {
		t.Fatalf("list prescriptions: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("prescriptions left behind: %d", len(lines))
	}
}

// -- Dashboard --

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	other := &clinic.Patient{ClinicID: env.clinicID, FirstName: "Lena"}
	env.patients.Create(context.Background(), other)

	for _, pid := range []uuid.UUID{env.patientID, env.patientID, other.ID} {
		if _, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
			PatientID: pid,
			Prescriptions: []PrescriptionInput{
				{MedicineName: strptr("Ibuprofen")},
			},
		}); err != nil {
			t.Fatalf("create consultation: %v", err)
		}
	}
	env.appointments.Create(context.Background(), &clinic.Appointment{
		DoctorID:  env.doctorID,
		PatientID: env.patientID,
		Date:      time.Now().AddDate(0, 0, 2),
		Status:    clinic.AppointmentScheduled,
	})
	env.appointments.Create(context.Background(), &clinic.Appointment{
		DoctorID:  env.doctorID,
		PatientID: env.patientID,
		Date:      time.Now().AddDate(0, 0, 30),
		Status:    clinic.AppointmentScheduled,
	})

	d, err := env.svc.Dashboard(context.Background(), env.doctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Consultations != 3 {
		t.Errorf("consultations = %d, want 3", d.Consultations)
	}
	if d.Patients != 2 {
		t.Errorf("patients = %d, want 2", d.Patients)
	}
	if d.Prescriptions != 3 {
		t.Errorf("prescriptions = %d, want 3", d.Prescriptions)
	}
	if len(d.UpcomingAppointments) != 1 {
		t.Errorf("upcoming = %d, want 1", len(d.UpcomingAppointments))
	}
}

// -- Validation --

func TestPrescriptionValidate(t *testing.T) {
	valid := &Prescription{
		MedicineName: strptr("Ibuprofen"),
		Frequency:    strptr("1-1-1"),
		Timings:      strptr(TimingBeforeMeal),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	procID := uuid.New()
	procOnly := &Prescription{ProcedureID: &procID}
	if err := procOnly.Validate(); err != nil {
		t.Errorf("procedure-only line rejected: %v", err)
	}
}

func TestCreateConsultation_NextConsultationDate(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID:        env.patientID,
		NextConsultation: strptr("2026-09-15"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.NextConsultation == nil || c.NextConsultation.Format("2006-01-02") != "2026-09-15" {
		t.Errorf("next_consultation = %v", c.NextConsultation)
	}

	_, err = env.svc.CreateConsultation(context.Background(), env.doctorID, env.clinicID, &ConsultationInput{
		PatientID:        env.patientID,
		NextConsultation: strptr("15/09/2026"),
	})
	if err == nil {
		t.Error("expected error for malformed date")
	}
}
