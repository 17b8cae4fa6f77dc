package billing

import (
	"context"
	"errors"

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

// mapFKViolation translates a foreign key violation into ErrInUse so
// callers can report that the record is still referenced.
func mapFKViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrInUse
	}
	return err
}

func lastBillNumber(ctx context.Context, q queryable, table string) (string, error) {
	var n string
	err := q.QueryRow(ctx, `SELECT bill_number FROM `+table+` ORDER BY seq DESC LIMIT 1`).Scan(&n)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return n, err
}

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

const medicineCols = `id, clinic_id, name, dosage, stock, unit_price, expiry_date, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.ClinicID, &m.Name, &m.Dosage, &m.Stock, &m.UnitPrice,
		&m.ExpiryDate, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medicines (id, clinic_id, name, dosage, stock, unit_price, expiry_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.ClinicID, m.Name, m.Dosage, m.Stock, m.UnitPrice, m.ExpiryDate)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE medicines SET name=$2, dosage=$3, stock=$4, unit_price=$5, expiry_date=$6, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Dosage, m.Stock, m.UnitPrice, m.ExpiryDate)
	return err
}

func (r *medicineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	return mapFKViolation(err)
}

func (r *medicineRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Medicine, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM medicines WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE clinic_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *medicineRepoPG) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE medicines SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
		id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// =========== Procedure Repository ===========

type procedureRepoPG struct{ pool *pgxpool.Pool }

func NewProcedureRepoPG(pool *pgxpool.Pool) ProcedureRepository { return &procedureRepoPG{pool: pool} }

const procedureCols = `id, clinic_id, name, description, price, created_at, updated_at`

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.ClinicID, &p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *procedureRepoPG) Create(ctx context.Context, p *Procedure) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO procedures (id, clinic_id, name, description, price)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.ClinicID, p.Name, p.Description, p.Price)
	return err
}

func (r *procedureRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return scanProcedure(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+procedureCols+` FROM procedures WHERE id = $1`, id))
}

func (r *procedureRepoPG) Update(ctx context.Context, p *Procedure) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE procedures SET name=$2, description=$3, price=$4, updated_at=NOW() WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price)
	return err
}

func (r *procedureRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM procedures WHERE id = $1`, id)
	return mapFKViolation(err)
}

func (r *procedureRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Procedure, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM procedures WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+procedureCols+` FROM procedures WHERE clinic_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Material Purchase Bill Repository ===========

type materialBillRepoPG struct{ pool *pgxpool.Pool }

func NewMaterialBillRepoPG(pool *pgxpool.Pool) MaterialBillRepository {
	return &materialBillRepoPG{pool: pool}
}

const materialBillCols = `id, clinic_id, bill_number, seq, supplier_name, invoice_number,
	bill_date, status, total_amount, created_at, updated_at`

func scanMaterialBill(row pgx.Row) (*MaterialPurchaseBill, error) {
	var b MaterialPurchaseBill
	err := row.Scan(&b.ID, &b.ClinicID, &b.BillNumber, &b.Seq, &b.SupplierName, &b.InvoiceNumber,
		&b.BillDate, &b.Status, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *materialBillRepoPG) Create(ctx context.Context, b *MaterialPurchaseBill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO material_purchase_bills (id, clinic_id, bill_number, supplier_name, invoice_number, bill_date, status, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING seq`,
		b.ID, b.ClinicID, b.BillNumber, b.SupplierName, b.InvoiceNumber, b.BillDate, b.Status, b.TotalAmount).Scan(&b.Seq)
}

func (r *materialBillRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MaterialPurchaseBill, error) {
	return scanMaterialBill(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+materialBillCols+` FROM material_purchase_bills WHERE id = $1`, id))
}

func (r *materialBillRepoPG) Update(ctx context.Context, b *MaterialPurchaseBill) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE material_purchase_bills SET supplier_name=$2, invoice_number=$3, bill_date=$4,
			status=$5, total_amount=$6, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.SupplierName, b.InvoiceNumber, b.BillDate, b.Status, b.TotalAmount)
	return err
}

func (r *materialBillRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM material_purchase_bills WHERE id = $1`, id)
	return err
}

func (r *materialBillRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*MaterialPurchaseBill, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM material_purchase_bills WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+materialBillCols+` FROM material_purchase_bills WHERE clinic_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MaterialPurchaseBill
	for rows.Next() {
		b, err := scanMaterialBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *materialBillRepoPG) LastBillNumber(ctx context.Context) (string, error) {
	return lastBillNumber(ctx, conn(ctx, r.pool), "material_purchase_bills")
}

func (r *materialBillRepoPG) CreateItem(ctx context.Context, item *MaterialPurchaseItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO material_purchase_items (id, bill_id, item_name, quantity, unit_price, subtotal)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		item.ID, item.BillID, item.ItemName, item.Quantity, item.UnitPrice, item.Subtotal)
	return err
}

func (r *materialBillRepoPG) GetItems(ctx context.Context, billID uuid.UUID) ([]*MaterialPurchaseItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, bill_id, item_name, quantity, unit_price, subtotal
		FROM material_purchase_items WHERE bill_id = $1 ORDER BY item_name`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MaterialPurchaseItem
	for rows.Next() {
		var it MaterialPurchaseItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ItemName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *materialBillRepoPG) DeleteItems(ctx context.Context, billID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM material_purchase_items WHERE bill_id = $1`, billID)
	return err
}

// =========== Clinic Bill Repository ===========

type clinicBillRepoPG struct{ pool *pgxpool.Pool }

func NewClinicBillRepoPG(pool *pgxpool.Pool) ClinicBillRepository {
	return &clinicBillRepoPG{pool: pool}
}

const clinicBillCols = `id, clinic_id, bill_number, seq, vendor_name, invoice_number,
	bill_date, status, total_amount, created_at, updated_at`

func scanClinicBill(row pgx.Row) (*ClinicBill, error) {
	var b ClinicBill
	err := row.Scan(&b.ID, &b.ClinicID, &b.BillNumber, &b.Seq, &b.VendorName, &b.InvoiceNumber,
		&b.BillDate, &b.Status, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *clinicBillRepoPG) Create(ctx context.Context, b *ClinicBill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO clinic_bills (id, clinic_id, bill_number, vendor_name, invoice_number, bill_date, status, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING seq`,
		b.ID, b.ClinicID, b.BillNumber, b.VendorName, b.InvoiceNumber, b.BillDate, b.Status, b.TotalAmount).Scan(&b.Seq)
}

func (r *clinicBillRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ClinicBill, error) {
	return scanClinicBill(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+clinicBillCols+` FROM clinic_bills WHERE id = $1`, id))
}

func (r *clinicBillRepoPG) Update(ctx context.Context, b *ClinicBill) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE clinic_bills SET vendor_name=$2, invoice_number=$3, bill_date=$4,
			status=$5, total_amount=$6, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.VendorName, b.InvoiceNumber, b.BillDate, b.Status, b.TotalAmount)
	return err
}

func (r *clinicBillRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM clinic_bills WHERE id = $1`, id)
	return err
}

func (r *clinicBillRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*ClinicBill, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinic_bills WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+clinicBillCols+` FROM clinic_bills WHERE clinic_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ClinicBill
	for rows.Next() {
		b, err := scanClinicBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *clinicBillRepoPG) LastBillNumber(ctx context.Context) (string, error) {
	return lastBillNumber(ctx, conn(ctx, r.pool), "clinic_bills")
}

func (r *clinicBillRepoPG) CreateItem(ctx context.Context, item *ClinicBillItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO clinic_bill_items (id, bill_id, item_name, quantity, unit_price, subtotal)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		item.ID, item.BillID, item.ItemName, item.Quantity, item.UnitPrice, item.Subtotal)
	return err
}

func (r *clinicBillRepoPG) GetItems(ctx context.Context, billID uuid.UUID) ([]*ClinicBillItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, bill_id, item_name, quantity, unit_price, subtotal
		FROM clinic_bill_items WHERE bill_id = $1 ORDER BY item_name`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ClinicBillItem
	for rows.Next() {
		var it ClinicBillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ItemName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *clinicBillRepoPG) DeleteItems(ctx context.Context, billID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM clinic_bill_items WHERE bill_id = $1`, billID)
	return err
}

// =========== Lab Bill Repository ===========

type labBillRepoPG struct{ pool *pgxpool.Pool }

func NewLabBillRepoPG(pool *pgxpool.Pool) LabBillRepository { return &labBillRepoPG{pool: pool} }

const labBillCols = `id, clinic_id, bill_number, seq, lab_name, work_description, patient_id,
	patient_name, file_number, doctor_name, invoice_number, lab_cost, clinic_cost,
	bill_date, status, total_amount, created_at, updated_at`

func scanLabBill(row pgx.Row) (*LabBill, error) {
	var b LabBill
	err := row.Scan(&b.ID, &b.ClinicID, &b.BillNumber, &b.Seq, &b.LabName, &b.WorkDescription,
		&b.PatientID, &b.PatientName, &b.FileNumber, &b.DoctorName, &b.InvoiceNumber,
		&b.LabCost, &b.ClinicCost, &b.BillDate, &b.Status, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *labBillRepoPG) Create(ctx context.Context, b *LabBill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lab_bills (id, clinic_id, bill_number, lab_name, work_description, patient_id,
			patient_name, file_number, doctor_name, invoice_number, lab_cost, clinic_cost,
			bill_date, status, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15) RETURNING seq`,
		b.ID, b.ClinicID, b.BillNumber, b.LabName, b.WorkDescription, b.PatientID,
		b.PatientName, b.FileNumber, b.DoctorName, b.InvoiceNumber, b.LabCost, b.ClinicCost,
		b.BillDate, b.Status, b.TotalAmount).Scan(&b.Seq)
}

func (r *labBillRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabBill, error) {
	return scanLabBill(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+labBillCols+` FROM lab_bills WHERE id = $1`, id))
}

func (r *labBillRepoPG) Update(ctx context.Context, b *LabBill) error {
	// patient_name is a creation-time snapshot and stays untouched.
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE lab_bills SET lab_name=$2, work_description=$3, file_number=$4, doctor_name=$5,
			invoice_number=$6, lab_cost=$7, clinic_cost=$8, bill_date=$9, status=$10,
			total_amount=$11, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.LabName, b.WorkDescription, b.FileNumber, b.DoctorName,
		b.InvoiceNumber, b.LabCost, b.ClinicCost, b.BillDate, b.Status, b.TotalAmount)
	return err
}

func (r *labBillRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM lab_bills WHERE id = $1`, id)
	return err
}

func (r *labBillRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*LabBill, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_bills WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+labBillCols+` FROM lab_bills WHERE clinic_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabBill
	for rows.Next() {
		b, err := scanLabBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *labBillRepoPG) LastBillNumber(ctx context.Context) (string, error) {
	return lastBillNumber(ctx, conn(ctx, r.pool), "lab_bills")
}

// =========== Pharmacy Bill Repository ===========

type pharmacyBillRepoPG struct{ pool *pgxpool.Pool }

func NewPharmacyBillRepoPG(pool *pgxpool.Pool) PharmacyBillRepository {
	return &pharmacyBillRepoPG{pool: pool}
}

const pharmacyBillCols = `id, clinic_id, patient_id, bill_number, seq, bill_date, status,
	total_amount, created_at, updated_at`

func scanPharmacyBill(row pgx.Row) (*PharmacyBill, error) {
	var b PharmacyBill
	err := row.Scan(&b.ID, &b.ClinicID, &b.PatientID, &b.BillNumber, &b.Seq, &b.BillDate,
		&b.Status, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *pharmacyBillRepoPG) Create(ctx context.Context, b *PharmacyBill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO pharmacy_bills (id, clinic_id, patient_id, bill_number, bill_date, status, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING seq`,
		b.ID, b.ClinicID, b.PatientID, b.BillNumber, b.BillDate, b.Status, b.TotalAmount).Scan(&b.Seq)
}

func (r *pharmacyBillRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PharmacyBill, error) {
	return scanPharmacyBill(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+pharmacyBillCols+` FROM pharmacy_bills WHERE id = $1`, id))
}

func (r *pharmacyBillRepoPG) Update(ctx context.Context, b *PharmacyBill) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE pharmacy_bills SET patient_id=$2, bill_date=$3, status=$4, total_amount=$5, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.PatientID, b.BillDate, b.Status, b.TotalAmount)
	return err
}

func (r *pharmacyBillRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM pharmacy_bills WHERE id = $1`, id)
	return err
}

func (r *pharmacyBillRepoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*PharmacyBill, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM pharmacy_bills`+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+pharmacyBillCols+` FROM pharmacy_bills`+where+` ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PharmacyBill
	for rows.Next() {
		b, err := scanPharmacyBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *pharmacyBillRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*PharmacyBill, int, error) {
	return r.list(ctx, ` WHERE clinic_id = $1`, clinicID, limit, offset)
}

func (r *pharmacyBillRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*PharmacyBill, int, error) {
	return r.list(ctx, ` WHERE patient_id = $1`, patientID, limit, offset)
}

func (r *pharmacyBillRepoPG) LastBillNumber(ctx context.Context) (string, error) {
	return lastBillNumber(ctx, conn(ctx, r.pool), "pharmacy_bills")
}

const pharmacyItemCols = `id, bill_id, item_type, medicine_id, procedure_id, quantity, unit_price, subtotal`

func scanPharmacyItem(row pgx.Row) (*PharmacyBillItem, error) {
	var it PharmacyBillItem
	err := row.Scan(&it.ID, &it.BillID, &it.ItemType, &it.MedicineID, &it.ProcedureID,
		&it.Quantity, &it.UnitPrice, &it.Subtotal)
	return &it, err
}

func (r *pharmacyBillRepoPG) CreateItem(ctx context.Context, item *PharmacyBillItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO pharmacy_bill_items (id, bill_id, item_type, medicine_id, procedure_id, quantity, unit_price, subtotal)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		item.ID, item.BillID, item.ItemType, item.MedicineID, item.ProcedureID,
		item.Quantity, item.UnitPrice, item.Subtotal)
	return err
}

func (r *pharmacyBillRepoPG) GetItem(ctx context.Context, id uuid.UUID) (*PharmacyBillItem, error) {
	return scanPharmacyItem(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+pharmacyItemCols+` FROM pharmacy_bill_items WHERE id = $1`, id))
}

func (r *pharmacyBillRepoPG) GetItems(ctx context.Context, billID uuid.UUID) ([]*PharmacyBillItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+pharmacyItemCols+` FROM pharmacy_bill_items WHERE bill_id = $1 ORDER BY item_type, id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PharmacyBillItem
	for rows.Next() {
		it, err := scanPharmacyItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pharmacyBillRepoPG) DeleteItems(ctx context.Context, billID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM pharmacy_bill_items WHERE bill_id = $1`, billID)
	return err
}

// =========== Procedure Payment Repository ===========

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

const paymentCols = `id, bill_item_id, seq, amount_paid, payment_date, notes`

func scanPayment(row pgx.Row) (*ProcedurePayment, error) {
	var p ProcedurePayment
	err := row.Scan(&p.ID, &p.BillItemID, &p.Seq, &p.AmountPaid, &p.PaymentDate, &p.Notes)
	return &p, err
}

func (r *paymentRepoPG) Create(ctx context.Context, p *ProcedurePayment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO procedure_payments (id, bill_item_id, amount_paid, notes)
		VALUES ($1,$2,$3,$4) RETURNING seq, payment_date`,
		p.ID, p.BillItemID, p.AmountPaid, p.Notes).Scan(&p.Seq, &p.PaymentDate)
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ProcedurePayment, error) {
	return scanPayment(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM procedure_payments WHERE id = $1`, id))
}

func (r *paymentRepoPG) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*ProcedurePayment, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+paymentCols+` FROM procedure_payments WHERE bill_item_id = $1 ORDER BY seq`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ProcedurePayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *paymentRepoPG) DeleteByItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM procedure_payments WHERE bill_item_id = $1`, itemID)
	return err
}
