package consultation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaisagh-mp/clinic-project/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Consultation Repository ===========

type consultationRepoPG struct{ pool *pgxpool.Pool }

func NewConsultationRepoPG(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

const consultationCols = `c.id, c.doctor_id, c.patient_id, c.appointment_id,
	c.temperature, c.pulse, c.respiratory_rate, c.spo2, c.height, c.weight, c.bmi, c.waist,
	c.blood_pressure, c.heart_rate,
	c.complaints, c.findings, c.diagnosis, c.investigations, c.treatment_plan, c.treatment_done,
	c.advices, c.allergies,
	c.referred_to_id, c.referral_notes, c.next_consultation, c.empty_stomach_required,
	c.created_at, c.updated_at,
	p.first_name || ' ' || p.last_name`

const consultationJoin = ` FROM consultations c JOIN patients p ON p.id = c.patient_id`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.DoctorID, &c.PatientID, &c.AppointmentID,
		&c.Temperature, &c.Pulse, &c.RespiratoryRate, &c.SpO2, &c.Height, &c.Weight, &c.BMI, &c.Waist,
		&c.BloodPressure, &c.HeartRate,
		&c.Complaints, &c.Findings, &c.Diagnosis, &c.Investigations, &c.TreatmentPlan, &c.TreatmentDone,
		&c.Advices, &c.Allergies,
		&c.ReferredToID, &c.ReferralNotes, &c.NextConsultation, &c.EmptyStomachRequired,
		&c.CreatedAt, &c.UpdatedAt,
		&c.PatientName)
	return &c, err
}

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO consultations (id, doctor_id, patient_id, appointment_id,
			temperature, pulse, respiratory_rate, spo2, height, weight, bmi, waist,
			blood_pressure, heart_rate,
			complaints, findings, diagnosis, investigations, treatment_plan, treatment_done,
			advices, allergies,
			referred_to_id, referral_notes, next_consultation, empty_stomach_required)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)`,
		c.ID, c.DoctorID, c.PatientID, c.AppointmentID,
		c.Temperature, c.Pulse, c.RespiratoryRate, c.SpO2, c.Height, c.Weight, c.BMI, c.Waist,
		c.BloodPressure, c.HeartRate,
		c.Complaints, c.Findings, c.Diagnosis, c.Investigations, c.TreatmentPlan, c.TreatmentDone,
		c.Advices, c.Allergies,
		c.ReferredToID, c.ReferralNotes, c.NextConsultation, c.EmptyStomachRequired)
	return err
}

func (r *consultationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+consultationCols+consultationJoin+` WHERE c.id = $1`, id))
}

func (r *consultationRepoPG) Update(ctx context.Context, c *Consultation) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE consultations SET
			temperature=$2, pulse=$3, respiratory_rate=$4, spo2=$5, height=$6, weight=$7, bmi=$8, waist=$9,
			blood_pressure=$10, heart_rate=$11,
			complaints=$12, findings=$13, diagnosis=$14, investigations=$15, treatment_plan=$16,
			treatment_done=$17, advices=$18, allergies=$19,
			referred_to_id=$20, referral_notes=$21, next_consultation=$22, empty_stomach_required=$23,
			updated_at=NOW()
		WHERE id = $1`,
		c.ID,
		c.Temperature, c.Pulse, c.RespiratoryRate, c.SpO2, c.Height, c.Weight, c.BMI, c.Waist,
		c.BloodPressure, c.HeartRate,
		c.Complaints, c.Findings, c.Diagnosis, c.Investigations, c.TreatmentPlan,
		c.TreatmentDone, c.Advices, c.Allergies,
		c.ReferredToID, c.ReferralNotes, c.NextConsultation, c.EmptyStomachRequired)
	return err
}

func (r *consultationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	return err
}

func (r *consultationRepoPG) listConsultations(ctx context.Context, where, countWhere string, arg interface{}, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM consultations c`+countWhere, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+consultationCols+consultationJoin+where+` ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`,
		arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *consultationRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return r.listConsultations(ctx, ` WHERE c.doctor_id = $1`, ` WHERE c.doctor_id = $1`, doctorID, limit, offset)
}

func (r *consultationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return r.listConsultations(ctx, ` WHERE c.patient_id = $1`, ` WHERE c.patient_id = $1`, patientID, limit, offset)
}

func (r *consultationRepoPG) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}

func (r *consultationRepoPG) CountPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(DISTINCT patient_id) FROM consultations WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const prescriptionCols = `id, consultation_id, medicine_name, procedure_id, dosage, frequency, duration, timings, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.ConsultationID, &p.MedicineName, &p.ProcedureID,
		&p.Dosage, &p.Frequency, &p.Duration, &p.Timings, &p.CreatedAt)
	return &p, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO prescriptions (id, consultation_id, medicine_name, procedure_id, dosage, frequency, duration, timings)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.ConsultationID, p.MedicineName, p.ProcedureID, p.Dosage, p.Frequency, p.Duration, p.Timings)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE prescriptions SET medicine_name=$2, procedure_id=$3, dosage=$4, frequency=$5, duration=$6, timings=$7
		WHERE id = $1`,
		p.ID, p.MedicineName, p.ProcedureID, p.Dosage, p.Frequency, p.Duration, p.Timings)
	return err
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	return err
}

func (r *prescriptionRepoPG) ListByConsultation(ctx context.Context, consultationID uuid.UUID) ([]*Prescription, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE consultation_id = $1 ORDER BY created_at`, consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *prescriptionRepoPG) listJoined(ctx context.Context, join, where string, arg interface{}, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions pr`+join+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT pr.id, pr.consultation_id, pr.medicine_name, pr.procedure_id, pr.dosage,
			pr.frequency, pr.duration, pr.timings, pr.created_at
		FROM prescriptions pr`+join+where+` ORDER BY pr.created_at DESC LIMIT $2 OFFSET $3`,
		arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *prescriptionRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.listJoined(ctx,
		` JOIN consultations c ON c.id = pr.consultation_id`,
		` WHERE c.doctor_id = $1`, doctorID, limit, offset)
}

func (r *prescriptionRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.listJoined(ctx,
		` JOIN consultations c ON c.id = pr.consultation_id JOIN doctors d ON d.id = c.doctor_id`,
		` WHERE d.clinic_id = $1`, clinicID, limit, offset)
}

func (r *prescriptionRepoPG) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM prescriptions pr
		JOIN consultations c ON c.id = pr.consultation_id
		WHERE c.doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}
