package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInsufficientStock is returned when a dispense would take a medicine's
// stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Medicine, int, error)
	// DecrementStock subtracts qty atomically and returns
	// ErrInsufficientStock when stock < qty.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type ProcedureRepository interface {
	Create(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error)
	Update(ctx context.Context, p *Procedure) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Procedure, int, error)
}

type MaterialBillRepository interface {
	Create(ctx context.Context, b *MaterialPurchaseBill) error
	GetByID(ctx context.Context, id uuid.UUID) (*MaterialPurchaseBill, error)
	Update(ctx context.Context, b *MaterialPurchaseBill) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*MaterialPurchaseBill, int, error)
	// LastBillNumber returns the most recently inserted bill number, or ""
	// when no bills exist.
	LastBillNumber(ctx context.Context) (string, error)
	CreateItem(ctx context.Context, item *MaterialPurchaseItem) error
	GetItems(ctx context.Context, billID uuid.UUID) ([]*MaterialPurchaseItem, error)
	DeleteItems(ctx context.Context, billID uuid.UUID) error
}

type ClinicBillRepository interface {
	Create(ctx context.Context, b *ClinicBill) error
	GetByID(ctx context.Context, id uuid.UUID) (*ClinicBill, error)
	Update(ctx context.Context, b *ClinicBill) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*ClinicBill, int, error)
	LastBillNumber(ctx context.Context) (string, error)
	CreateItem(ctx context.Context, item *ClinicBillItem) error
	GetItems(ctx context.Context, billID uuid.UUID) ([]*ClinicBillItem, error)
	DeleteItems(ctx context.Context, billID uuid.UUID) error
}

type LabBillRepository interface {
	Create(ctx context.Context, b *LabBill) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabBill, error)
	Update(ctx context.Context, b *LabBill) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*LabBill, int, error)
	LastBillNumber(ctx context.Context) (string, error)
}

type PharmacyBillRepository interface {
	Create(ctx context.Context, b *PharmacyBill) error
	GetByID(ctx context.Context, id uuid.UUID) (*PharmacyBill, error)
	Update(ctx context.Context, b *PharmacyBill) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*PharmacyBill, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*PharmacyBill, int, error)
	LastBillNumber(ctx context.Context) (string, error)
	CreateItem(ctx context.Context, item *PharmacyBillItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*PharmacyBillItem, error)
	GetItems(ctx context.Context, billID uuid.UUID) ([]*PharmacyBillItem, error)
	DeleteItems(ctx context.Context, billID uuid.UUID) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *ProcedurePayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProcedurePayment, error)
	// ListByItem returns payments in insertion order.
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]*ProcedurePayment, error)
	DeleteByItem(ctx context.Context, itemID uuid.UUID) error
}
