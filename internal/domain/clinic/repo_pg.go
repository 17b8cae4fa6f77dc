package clinic

import (
	"context"
	"time"

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

// =========== Clinic Repository ===========

type clinicRepoPG struct{ pool *pgxpool.Pool }

func NewClinicRepoPG(pool *pgxpool.Pool) ClinicRepository { return &clinicRepoPG{pool: pool} }

const clinicCols = `id, user_id, name, description, address, phone, email, website,
	clinic_type, status, created_at, updated_at`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Address, &c.Phone,
		&c.Email, &c.Website, &c.Type, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *clinicRepoPG) Create(ctx context.Context, c *Clinic) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO clinics (id, user_id, name, description, address, phone, email, website, clinic_type, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.UserID, c.Name, c.Description, c.Address, c.Phone, c.Email, c.Website, c.Type, c.Status)
	return err
}

func (r *clinicRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return scanClinic(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id))
}

func (r *clinicRepoPG) GetByUser(ctx context.Context, userID uuid.UUID) (*Clinic, error) {
	return scanClinic(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE user_id = $1`, userID))
}

func (r *clinicRepoPG) Update(ctx context.Context, c *Clinic) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE clinics SET name=$2, description=$3, address=$4, phone=$5, email=$6,
			website=$7, clinic_type=$8, status=$9, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Address, c.Phone, c.Email, c.Website, c.Type, c.Status)
	return err
}

func (r *clinicRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM clinics WHERE id = $1`, id)
	return err
}

func (r *clinicRepoPG) List(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM clinics`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+clinicCols+` FROM clinics ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *clinicRepoPG) ListActive(ctx context.Context) ([]*Clinic, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE status = $1 ORDER BY name`, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *clinicRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM clinics`).Scan(&n)
	return n, err
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorCols = `id, clinic_id, user_id, name, phone, email, date_of_birth,
	years_of_experience, medical_license_number, blood_group, gender, address,
	specialization, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.ClinicID, &d.UserID, &d.Name, &d.Phone, &d.Email, &d.DateOfBirth,
		&d.YearsOfExperience, &d.MedicalLicenseNumber, &d.BloodGroup, &d.Gender, &d.Address,
		&d.Specialization, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO doctors (id, clinic_id, user_id, name, phone, email, date_of_birth,
			years_of_experience, medical_license_number, blood_group, gender, address, specialization)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		d.ID, d.ClinicID, d.UserID, d.Name, d.Phone, d.Email, d.DateOfBirth,
		d.YearsOfExperience, d.MedicalLicenseNumber, d.BloodGroup, d.Gender, d.Address, d.Specialization)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE user_id = $1`, userID))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE doctors SET name=$2, phone=$3, email=$4, date_of_birth=$5, years_of_experience=$6,
			medical_license_number=$7, blood_group=$8, gender=$9, address=$10, specialization=$11,
			updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Phone, d.Email, d.DateOfBirth, d.YearsOfExperience,
		d.MedicalLicenseNumber, d.BloodGroup, d.Gender, d.Address, d.Specialization)
	return err
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	return err
}

func (r *doctorRepoPG) listDoctors(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + doctorCols + ` FROM doctors` + where + ` ORDER BY created_at DESC`
	args = append(args, limit, offset)
	if len(args) == 2 {
		query += ` LIMIT $1 OFFSET $2`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *doctorRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	return r.listDoctors(ctx, ` WHERE clinic_id = $1`, []interface{}{clinicID}, limit, offset)
}

func (r *doctorRepoPG) ListAll(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return r.listDoctors(ctx, ``, nil, limit, offset)
}

func (r *doctorRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&n)
	return n, err
}

func (r *doctorRepoPG) CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE clinic_id = $1`, clinicID).Scan(&n)
	return n, err
}

func (r *doctorRepoPG) ReplaceEducations(ctx context.Context, doctorID uuid.UUID, items []*DoctorEducation) error {
	q := conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM doctor_educations WHERE doctor_id = $1`, doctorID); err != nil {
		return err
	}
	for _, e := range items {
		e.ID = uuid.New()
		e.DoctorID = doctorID
		if _, err := q.Exec(ctx, `
			INSERT INTO doctor_educations (id, doctor_id, degree, institution, year_of_pass)
			VALUES ($1,$2,$3,$4,$5)`,
			e.ID, e.DoctorID, e.Degree, e.Institution, e.YearOfPass); err != nil {
			return err
		}
	}
	return nil
}

func (r *doctorRepoPG) ReplaceCertifications(ctx context.Context, doctorID uuid.UUID, items []*DoctorCertification) error {
	q := conn(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM doctor_certifications WHERE doctor_id = $1`, doctorID); err != nil {
		return err
	}
	for _, c := range items {
		c.ID = uuid.New()
		c.DoctorID = doctorID
		if _, err := q.Exec(ctx, `
			INSERT INTO doctor_certifications (id, doctor_id, name, issued_by, issued_date)
			VALUES ($1,$2,$3,$4,$5)`,
			c.ID, c.DoctorID, c.Name, c.IssuedBy, c.IssuedDate); err != nil {
			return err
		}
	}
	return nil
}

func (r *doctorRepoPG) GetEducations(ctx context.Context, doctorID uuid.UUID) ([]*DoctorEducation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, doctor_id, degree, institution, year_of_pass
		FROM doctor_educations WHERE doctor_id = $1 ORDER BY year_of_pass`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*DoctorEducation
	for rows.Next() {
		var e DoctorEducation
		if err := rows.Scan(&e.ID, &e.DoctorID, &e.Degree, &e.Institution, &e.YearOfPass); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

func (r *doctorRepoPG) GetCertifications(ctx context.Context, doctorID uuid.UUID) ([]*DoctorCertification, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, doctor_id, name, issued_by, issued_date
		FROM doctor_certifications WHERE doctor_id = $1 ORDER BY issued_date`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*DoctorCertification
	for rows.Next() {
		var c DoctorCertification
		if err := rows.Scan(&c.ID, &c.DoctorID, &c.Name, &c.IssuedBy, &c.IssuedDate); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, clinic_id, first_name, last_name, phone, email, date_of_birth,
	gender, blood_group, address, care_of, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ClinicID, &p.FirstName, &p.LastName, &p.Phone, &p.Email,
		&p.DateOfBirth, &p.Gender, &p.BloodGroup, &p.Address, &p.CareOf, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (id, clinic_id, first_name, last_name, phone, email,
			date_of_birth, gender, blood_group, address, care_of)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.ClinicID, p.FirstName, p.LastName, p.Phone, p.Email,
		p.DateOfBirth, p.Gender, p.BloodGroup, p.Address, p.CareOf)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, phone=$4, email=$5, date_of_birth=$6,
			gender=$7, blood_group=$8, address=$9, care_of=$10, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Phone, p.Email, p.DateOfBirth,
		p.Gender, p.BloodGroup, p.Address, p.CareOf)
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *patientRepoPG) listPatients(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + patientCols + ` FROM patients` + where + ` ORDER BY created_at DESC`
	args = append(args, limit, offset)
	if len(args) == 2 {
		query += ` LIMIT $1 OFFSET $2`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return r.listPatients(ctx, ` WHERE clinic_id = $1`, []interface{}{clinicID}, limit, offset)
}

func (r *patientRepoPG) ListAll(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return r.listPatients(ctx, ``, nil, limit, offset)
}

func (r *patientRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n)
	return n, err
}

func (r *patientRepoPG) CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE clinic_id = $1`, clinicID).Scan(&n)
	return n, err
}

func (r *patientRepoPG) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(DISTINCT patient_id) FROM appointments WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository { return &appointmentRepoPG{pool: pool} }

const appointmentCols = `a.id, a.appointment_code, a.clinic_id, a.doctor_id, a.patient_id,
	a.appointment_date, a.appointment_time, a.reason, a.status, a.notes, a.created_by,
	a.created_at, a.updated_at, d.name, p.first_name || ' ' || p.last_name`

const appointmentJoin = ` FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.AppointmentCode, &a.ClinicID, &a.DoctorID, &a.PatientID,
		&a.Date, &a.Time, &a.Reason, &a.Status, &a.Notes, &a.CreatedBy,
		&a.CreatedAt, &a.UpdatedAt, &a.DoctorName, &a.PatientName)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointments (id, appointment_code, clinic_id, doctor_id, patient_id,
			appointment_date, appointment_time, reason, status, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.AppointmentCode, a.ClinicID, a.DoctorID, a.PatientID,
		a.Date, a.Time, a.Reason, a.Status, a.Notes, a.CreatedBy)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+appointmentCols+appointmentJoin+` WHERE a.id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE appointments SET doctor_id=$2, patient_id=$3, appointment_date=$4,
			appointment_time=$5, reason=$6, status=$7, notes=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.DoctorID, a.PatientID, a.Date, a.Time, a.Reason, a.Status, a.Notes)
	return err
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE appointments SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	return err
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

func (r *appointmentRepoPG) listAppointments(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM appointments a`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + appointmentCols + appointmentJoin + where +
		` ORDER BY a.appointment_date DESC, a.appointment_time DESC`
	args = append(args, limit, offset)
	if len(args) == 2 {
		query += ` LIMIT $1 OFFSET $2`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listAppointments(ctx, ` WHERE a.clinic_id = $1`, []interface{}{clinicID}, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listAppointments(ctx, ` WHERE a.doctor_id = $1`, []interface{}{doctorID}, limit, offset)
}

func (r *appointmentRepoPG) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.listAppointments(ctx, ``, nil, limit, offset)
}

func (r *appointmentRepoPG) ListUpcomingByClinic(ctx context.Context, clinicID uuid.UUID, from time.Time, limit int) ([]*Appointment, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+appointmentCols+appointmentJoin+`
		WHERE a.clinic_id = $1 AND a.appointment_date >= $2 AND a.status = $3
		ORDER BY a.appointment_date, a.appointment_time LIMIT $4`,
		clinicID, from, AppointmentScheduled, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ListBetweenByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+appointmentCols+appointmentJoin+`
		WHERE a.doctor_id = $1 AND a.appointment_date >= $2 AND a.appointment_date < $3
		ORDER BY a.appointment_date, a.appointment_time`,
		doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&n)
	return n, err
}

func (r *appointmentRepoPG) CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE clinic_id = $1`, clinicID).Scan(&n)
	return n, err
}

func (r *appointmentRepoPG) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}

func (r *appointmentRepoPG) BookingsPerDoctor(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT doctor_id, COUNT(*) FROM appointments GROUP BY doctor_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		result[id] = n
	}
	return result, rows.Err()
}

func (r *appointmentRepoPG) AppointmentsPerPatient(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT patient_id, COUNT(*) FROM appointments GROUP BY patient_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		result[id] = n
	}
	return result, rows.Err()
}
