package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bill statuses.
const (
	BillPending   = "PENDING"
	BillPaid      = "PAID"
	BillCancelled = "CANCELLED"
)

var validBillStatuses = map[string]bool{
	BillPending: true, BillPaid: true, BillCancelled: true,
}

// Bill number prefixes, one per bill type.
const (
	PrefixMaterialPurchase = "MPB-"
	PrefixClinicBill       = "CB-"
	PrefixLabBill          = "LB-"
	PrefixPharmacyBill     = "PB-"
)

// NextBillNumber derives the next number in a sequence from the most
// recently inserted bill number of the same type. The trailing numeric
// suffix is incremented; a missing or unparsable suffix restarts at 1.
// Uniqueness under concurrent inserts is left to the database constraint.
func NextBillNumber(last, prefix string) string {
	n := 1
	if last != "" {
		if i := strings.LastIndex(last, "-"); i >= 0 {
			if v, err := strconv.Atoi(last[i+1:]); err == nil {
				n = v + 1
			}
		}
	}
	return fmt.Sprintf("%s%05d", prefix, n)
}

// Medicine is a clinic's pharmacy stock entry.
type Medicine struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ClinicID   uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Name       string     `db:"name" json:"name"`
	Dosage     *string    `db:"dosage" json:"dosage,omitempty"`
	Stock      int        `db:"stock" json:"stock"`
	UnitPrice  float64    `db:"unit_price" json:"unit_price"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Procedure is a clinic's billable procedure.
type Procedure struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ClinicID    uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MaterialPurchaseBill records supplies bought by a clinic.
type MaterialPurchaseBill struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ClinicID      uuid.UUID `db:"clinic_id" json:"clinic_id"`
	BillNumber    string    `db:"bill_number" json:"bill_number"`
	Seq           int64     `db:"seq" json:"-"`
	SupplierName  string    `db:"supplier_name" json:"supplier_name"`
	InvoiceNumber *string   `db:"invoice_number" json:"invoice_number,omitempty"`
	BillDate      time.Time `db:"bill_date" json:"bill_date"`
	Status        string    `db:"status" json:"status"`
	TotalAmount   float64   `db:"total_amount" json:"total_amount"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Items []*MaterialPurchaseItem `db:"-" json:"items,omitempty"`
}

type MaterialPurchaseItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BillID    uuid.UUID `db:"bill_id" json:"bill_id"`
	ItemName  string    `db:"item_name" json:"item_name"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice float64   `db:"unit_price" json:"unit_price"`
	Subtotal  float64   `db:"subtotal" json:"subtotal"`
}

// ClinicBill records operating expenses billed to a clinic by a vendor.
type ClinicBill struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ClinicID      uuid.UUID `db:"clinic_id" json:"clinic_id"`
	BillNumber    string    `db:"bill_number" json:"bill_number"`
	Seq           int64     `db:"seq" json:"-"`
	VendorName    string    `db:"vendor_name" json:"vendor_name"`
	InvoiceNumber *string   `db:"invoice_number" json:"invoice_number,omitempty"`
	BillDate      time.Time `db:"bill_date" json:"bill_date"`
	Status        string    `db:"status" json:"status"`
	TotalAmount   float64   `db:"total_amount" json:"total_amount"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Items []*ClinicBillItem `db:"-" json:"items,omitempty"`
}

type ClinicBillItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BillID    uuid.UUID `db:"bill_id" json:"bill_id"`
	ItemName  string    `db:"item_name" json:"item_name"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice float64   `db:"unit_price" json:"unit_price"`
	Subtotal  float64   `db:"subtotal" json:"subtotal"`
}

// LabBill records outsourced lab work for a patient. PatientName is a
// snapshot taken at creation and never updated afterwards.
type LabBill struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ClinicID        uuid.UUID `db:"clinic_id" json:"clinic_id"`
	BillNumber      string    `db:"bill_number" json:"bill_number"`
	Seq             int64     `db:"seq" json:"-"`
	LabName         string    `db:"lab_name" json:"lab_name"`
	WorkDescription *string   `db:"work_description" json:"work_description,omitempty"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	PatientName     string    `db:"patient_name" json:"patient_name"`
	FileNumber      *string   `db:"file_number" json:"file_number,omitempty"`
	DoctorName      *string   `db:"doctor_name" json:"doctor_name,omitempty"`
	InvoiceNumber   *string   `db:"invoice_number" json:"invoice_number,omitempty"`
	LabCost         float64   `db:"lab_cost" json:"lab_cost"`
	ClinicCost      float64   `db:"clinic_cost" json:"clinic_cost"`
	BillDate        time.Time `db:"bill_date" json:"bill_date"`
	Status          string    `db:"status" json:"status"`
	TotalAmount     float64   `db:"total_amount" json:"total_amount"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Pharmacy bill item types.
const (
	ItemMedicine  = "MEDICINE"
	ItemProcedure = "PROCEDURE"
)

// PharmacyBill bills a patient for dispensed medicines and performed
// procedures. PaidAmount is derived from the item balances on read.
type PharmacyBill struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ClinicID    uuid.UUID `db:"clinic_id" json:"clinic_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	BillNumber  string    `db:"bill_number" json:"bill_number"`
	Seq         int64     `db:"seq" json:"-"`
	BillDate    time.Time `db:"bill_date" json:"bill_date"`
	Status      string    `db:"status" json:"status"`
	TotalAmount float64   `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	PaidAmount float64             `db:"-" json:"paid_amount"`
	Items      []*PharmacyBillItem `db:"-" json:"items,omitempty"`
}

// PharmacyBillItem is one dispensed medicine or one billed procedure.
// TotalPaid and BalanceDue are derived on read: a MEDICINE item is settled
// in full at dispensing, a PROCEDURE item accumulates installment payments.
type PharmacyBillItem struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	BillID      uuid.UUID  `db:"bill_id" json:"bill_id"`
	ItemType    string     `db:"item_type" json:"item_type"`
	MedicineID  *uuid.UUID `db:"medicine_id" json:"medicine_id,omitempty"`
	ProcedureID *uuid.UUID `db:"procedure_id" json:"procedure_id,omitempty"`
	Quantity    int        `db:"quantity" json:"quantity"`
	UnitPrice   float64    `db:"unit_price" json:"unit_price"`
	Subtotal    float64    `db:"subtotal" json:"subtotal"`

	TotalPaid  float64 `db:"-" json:"total_paid"`
	BalanceDue float64 `db:"-" json:"balance_due"`
}

// ProcedurePayment is one installment against a PROCEDURE bill item.
// BalanceDue is the remaining balance as of this payment, computed over
// the payments created up to and including it in insertion order.
type ProcedurePayment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BillItemID  uuid.UUID `db:"bill_item_id" json:"bill_item_id"`
	Seq         int64     `db:"seq" json:"-"`
	AmountPaid  float64   `db:"amount_paid" json:"amount_paid"`
	PaymentDate time.Time `db:"payment_date" json:"payment_date"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`

	BalanceDue float64 `db:"-" json:"balance_due"`
}
