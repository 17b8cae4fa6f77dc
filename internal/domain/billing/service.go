package billing

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

// ErrNotProcedureItem is returned when a payment targets a bill item that
// is not a PROCEDURE line.
var ErrNotProcedureItem = errors.New("payments are only accepted on procedure items")

// ErrInUse is returned when a catalog record cannot be deleted because
// pharmacy bill items still reference it.
var ErrInUse = errors.New("record is referenced by existing bills")

// Service implements billing workflows. All multi-row writes run inside a
// single transaction.
type Service struct {
	medicines     MedicineRepository
	procedures    ProcedureRepository
	materialBills MaterialBillRepository
	clinicBills   ClinicBillRepository
	labBills      LabBillRepository
	pharmacyBills PharmacyBillRepository
	payments      PaymentRepository
	patients      clinic.PatientRepository
	tx            db.TxRunner
	logger        zerolog.Logger
}

func NewService(
	medicines MedicineRepository,
	procedures ProcedureRepository,
	materialBills MaterialBillRepository,
	clinicBills ClinicBillRepository,
	labBills LabBillRepository,
	pharmacyBills PharmacyBillRepository,
	payments PaymentRepository,
	patients clinic.PatientRepository,
	tx db.TxRunner,
	logger zerolog.Logger,
) *Service {
	return &Service{
		medicines:     medicines,
		procedures:    procedures,
		materialBills: materialBills,
		clinicBills:   clinicBills,
		labBills:      labBills,
		pharmacyBills: pharmacyBills,
		payments:      payments,
		patients:      patients,
		tx:            tx,
		logger:        logger.With().Str("component", "billing-service").Logger(),
	}
}

func parseBillDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().Truncate(24 * time.Hour), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid bill_date: %w", err)
	}
	return d, nil
}

func normalizeStatus(s string) (string, error) {
	if s == "" {
		return BillPending, nil
	}
	if !validBillStatuses[s] {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return s, nil
}

// -- Medicines --

func (s *Service) CreateMedicine(ctx context.Context, clinicID uuid.UUID, m *Medicine) (*Medicine, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if m.Stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative")
	}
	if m.UnitPrice < 0 {
		return nil, fmt.Errorf("unit_price cannot be negative")
	}
	m.ID = uuid.Nil
	m.ClinicID = clinicID
	if err := s.medicines.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) GetMedicine(ctx context.Context, clinicID, id uuid.UUID) (*Medicine, error) {
	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ClinicID != clinicID {
		return nil, fmt.Errorf("medicine not found")
	}
	return m, nil
}

func (s *Service) UpdateMedicine(ctx context.Context, clinicID, id uuid.UUID, in *Medicine) (*Medicine, error) {
	m, err := s.GetMedicine(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		m.Name = in.Name
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative")
	}
	m.Dosage = in.Dosage
	m.Stock = in.Stock
	m.UnitPrice = in.UnitPrice
	m.ExpiryDate = in.ExpiryDate
	if err := s.medicines.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) DeleteMedicine(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetMedicine(ctx, clinicID, id); err != nil {
		return err
	}
	return s.medicines.Delete(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.ListByClinic(ctx, clinicID, limit, offset)
}

// -- Procedures --

func (s *Service) CreateProcedure(ctx context.Context, clinicID uuid.UUID, p *Procedure) (*Procedure, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if p.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	p.ID = uuid.Nil
	p.ClinicID = clinicID
	if err := s.procedures.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProcedure(ctx context.Context, clinicID, id uuid.UUID) (*Procedure, error) {
	p, err := s.procedures.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ClinicID != clinicID {
		return nil, fmt.Errorf("procedure not found")
	}
	return p, nil
}

func (s *Service) UpdateProcedure(ctx context.Context, clinicID, id uuid.UUID, in *Procedure) (*Procedure, error) {
	p, err := s.GetProcedure(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	p.Description = in.Description
	p.Price = in.Price
	if err := s.procedures.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProcedure(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetProcedure(ctx, clinicID, id); err != nil {
		return err
	}
	return s.procedures.Delete(ctx, id)
}

func (s *Service) ListProcedures(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Procedure, int, error) {
	return s.procedures.ListByClinic(ctx, clinicID, limit, offset)
}

// -- Material purchase bills --

// LineItemInput is a named line item shared by material purchase and
// clinic bills.
type LineItemInput struct {
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (in *LineItemInput) validate() error {
	if in.ItemName == "" {
		return fmt.Errorf("item_name is required")
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if in.UnitPrice < 0 {
		return fmt.Errorf("unit_price cannot be negative")
	}
	return nil
}

type MaterialBillInput struct {
	SupplierName  string          `json:"supplier_name"`
	InvoiceNumber *string         `json:"invoice_number"`
	BillDate      string          `json:"bill_date"`
	Status        string          `json:"status"`
	Items         []LineItemInput `json:"items"`
}

func (s *Service) CreateMaterialBill(ctx context.Context, clinicID uuid.UUID, in MaterialBillInput) (*MaterialPurchaseBill, error) {
	if in.SupplierName == "" {
		return nil, fmt.Errorf("supplier_name is required")
	}
	date, err := parseBillDate(in.BillDate)
	if err != nil {
		return nil, err
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}

	b := &MaterialPurchaseBill{
		ClinicID:      clinicID,
		SupplierName:  in.SupplierName,
		InvoiceNumber: in.InvoiceNumber,
		BillDate:      date,
		Status:        status,
	}
	for _, it := range in.Items {
		if err := it.validate(); err != nil {
			return nil, err
		}
		sub := float64(it.Quantity) * it.UnitPrice
		b.Items = append(b.Items, &MaterialPurchaseItem{
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  sub,
		})
		b.TotalAmount += sub
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		last, err := s.materialBills.LastBillNumber(ctx)
		if err != nil {
			return err
		}
		b.BillNumber = NextBillNumber(last, PrefixMaterialPurchase)
		if err := s.materialBills.Create(ctx, b); err != nil {
			return err
		}
		for _, it := range b.Items {
			it.BillID = b.ID
			if err := s.materialBills.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bill_number", b.BillNumber).Msg("material purchase bill created")
	return b, nil
}

func (s *Service) GetMaterialBill(ctx context.Context, clinicID, id uuid.UUID) (*MaterialPurchaseBill, error) {
	b, err := s.materialBills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ClinicID != clinicID {
		return nil, fmt.Errorf("bill not found")
	}
	b.Items, err = s.materialBills.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateMaterialBill replaces the bill header and all of its items. The
// bill number never changes.
func (s *Service) UpdateMaterialBill(ctx context.Context, clinicID, id uuid.UUID, in MaterialBillInput) (*MaterialPurchaseBill, error) {
	b, err := s.GetMaterialBill(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if in.SupplierName != "" {
		b.SupplierName = in.SupplierName
	}
	if in.InvoiceNumber != nil {
		b.InvoiceNumber = in.InvoiceNumber
	}
	if in.BillDate != "" {
		if b.BillDate, err = parseBillDate(in.BillDate); err != nil {
			return nil, err
		}
	}
	if in.Status != "" {
		if b.Status, err = normalizeStatus(in.Status); err != nil {
			return nil, err
		}
	}

	b.Items = nil
	b.TotalAmount = 0
	for _, it := range in.Items {
		if err := it.validate(); err != nil {
			return nil, err
		}
		sub := float64(it.Quantity) * it.UnitPrice
		b.Items = append(b.Items, &MaterialPurchaseItem{
			BillID:    b.ID,
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  sub,
		})
		b.TotalAmount += sub
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.materialBills.DeleteItems(ctx, b.ID); err != nil {
			return err
		}
		for _, it := range b.Items {
			if err := s.materialBills.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return s.materialBills.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) DeleteMaterialBill(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetMaterialBill(ctx, clinicID, id); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.materialBills.DeleteItems(ctx, id); err != nil {
			return err
		}
		return s.materialBills.Delete(ctx, id)
	})
}

func (s *Service) ListMaterialBills(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*MaterialPurchaseBill, int, error) {
	return s.materialBills.ListByClinic(ctx, clinicID, limit, offset)
}

// -- Clinic bills --

type ClinicBillInput struct {
	VendorName    string          `json:"vendor_name"`
	InvoiceNumber *string         `json:"invoice_number"`
	BillDate      string          `json:"bill_date"`
	Status        string          `json:"status"`
	Items         []LineItemInput `json:"items"`
}

func (s *Service) CreateClinicBill(ctx context.Context, clinicID uuid.UUID, in ClinicBillInput) (*ClinicBill, error) {
	if in.VendorName == "" {
		return nil, fmt.Errorf("vendor_name is required")
	}
	date, err := parseBillDate(in.BillDate)
	if err != nil {
		return nil, err
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}

	b := &ClinicBill{
		ClinicID:      clinicID,
		VendorName:    in.VendorName,
		InvoiceNumber: in.InvoiceNumber,
		BillDate:      date,
		Status:        status,
	}
	for _, it := range in.Items {
		if err := it.validate(); err != nil {
			return nil, err
		}
		sub := float64(it.Quantity) * it.UnitPrice
		b.Items = append(b.Items, &ClinicBillItem{
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  sub,
		})
		b.TotalAmount += sub
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		last, err := s.clinicBills.LastBillNumber(ctx)
		if err != nil {
			return err
		}
		b.BillNumber = NextBillNumber(last, PrefixClinicBill)
		if err := s.clinicBills.Create(ctx, b); err != nil {
			return err
		}
		for _, it := range b.Items {
			it.BillID = b.ID
			if err := s.clinicBills.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bill_number", b.BillNumber).Msg("clinic bill created")
	return b, nil
}

func (s *Service) GetClinicBill(ctx context.Context, clinicID, id uuid.UUID) (*ClinicBill, error) {
	b, err := s.clinicBills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ClinicID != clinicID {
		return nil, fmt.Errorf("bill not found")
	}
	b.Items, err = s.clinicBills.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) UpdateClinicBill(ctx context.Context, clinicID, id uuid.UUID, in ClinicBillInput) (*ClinicBill, error) {
	b, err := s.GetClinicBill(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if in.VendorName != "" {
		b.VendorName = in.VendorName
	}
	if in.InvoiceNumber != nil {
		b.InvoiceNumber = in.InvoiceNumber
	}
	if in.BillDate != "" {
		if b.BillDate, err = parseBillDate(in.BillDate); err != nil {
			return nil, err
		}
	}
	if in.Status != "" {
		if b.Status, err = normalizeStatus(in.Status); err != nil {
			return nil, err
		}
	}

	b.Items = nil
	b.TotalAmount = 0
	for _, it := range in.Items {
		if err := it.validate(); err != nil {
			return nil, err
		}
		sub := float64(it.Quantity) * it.UnitPrice
		b.Items = append(b.Items, &ClinicBillItem{
			BillID:    b.ID,
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  sub,
		})
		b.TotalAmount += sub
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.clinicBills.DeleteItems(ctx, b.ID); err != nil {
			return err
		}
		for _, it := range b.Items {
			if err := s.clinicBills.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return s.clinicBills.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) DeleteClinicBill(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetClinicBill(ctx, clinicID, id); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.clinicBills.DeleteItems(ctx, id); err != nil {
			return err
		}
		return s.clinicBills.Delete(ctx, id)
	})
}

func (s *Service) ListClinicBills(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*ClinicBill, int, error) {
	return s.clinicBills.ListByClinic(ctx, clinicID, limit, offset)
}

// -- Lab bills --

type LabBillInput struct {
	LabName         string    `json:"lab_name"`
	WorkDescription *string   `json:"work_description"`
	PatientID       uuid.UUID `json:"patient_id"`
	FileNumber      *string   `json:"file_number"`
	DoctorName      *string   `json:"doctor_name"`
	InvoiceNumber   *string   `json:"invoice_number"`
	LabCost         float64   `json:"lab_cost"`
	ClinicCost      float64   `json:"clinic_cost"`
	BillDate        string    `json:"bill_date"`
	Status          string    `json:"status"`
}

func (s *Service) CreateLabBill(ctx context.Context, clinicID uuid.UUID, in LabBillInput) (*LabBill, error) {
	if in.LabName == "" {
		return nil, fmt.Errorf("lab_name is required")
	}
	if in.LabCost < 0 || in.ClinicCost < 0 {
		return nil, fmt.Errorf("costs cannot be negative")
	}
	patient, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}
	if patient.ClinicID != clinicID {
		return nil, fmt.Errorf("patient belongs to another clinic")
	}
	date, err := parseBillDate(in.BillDate)
	if err != nil {
		return nil, err
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}

	b := &LabBill{
		ClinicID:        clinicID,
		LabName:         in.LabName,
		WorkDescription: in.WorkDescription,
		PatientID:       patient.ID,
		PatientName:     patient.FullName(),
		FileNumber:      in.FileNumber,
		DoctorName:      in.DoctorName,
		InvoiceNumber:   in.InvoiceNumber,
		LabCost:         in.LabCost,
		ClinicCost:      in.ClinicCost,
		BillDate:        date,
		Status:          status,
		TotalAmount:     in.ClinicCost,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		last, err := s.labBills.LastBillNumber(ctx)
		if err != nil {
			return err
		}
		b.BillNumber = NextBillNumber(last, PrefixLabBill)
		return s.labBills.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bill_number", b.BillNumber).Msg("lab bill created")
	return b, nil
}

func (s *Service) GetLabBill(ctx context.Context, clinicID, id uuid.UUID) (*LabBill, error) {
	b, err := s.labBills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ClinicID != clinicID {
		return nil, fmt.Errorf("bill not found")
	}
	return b, nil
}

func (s *Service) UpdateLabBill(ctx context.Context, clinicID, id uuid.UUID, in LabBillInput) (*LabBill, error) {
	b, err := s.GetLabBill(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if in.LabName != "" {
		b.LabName = in.LabName
	}
	if in.LabCost < 0 || in.ClinicCost < 0 {
		return nil, fmt.Errorf("costs cannot be negative")
	}
	b.WorkDescription = in.WorkDescription
	b.FileNumber = in.FileNumber
	b.DoctorName = in.DoctorName
	b.InvoiceNumber = in.InvoiceNumber
	b.LabCost = in.LabCost
	b.ClinicCost = in.ClinicCost
	b.TotalAmount = in.ClinicCost
	if in.BillDate != "" {
		if b.BillDate, err = parseBillDate(in.BillDate); err != nil {
			return nil, err
		}
	}
	if in.Status != "" {
		if b.Status, err = normalizeStatus(in.Status); err != nil {
			return nil, err
		}
	}
	if err := s.labBills.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) DeleteLabBill(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetLabBill(ctx, clinicID, id); err != nil {
		return err
	}
	return s.labBills.Delete(ctx, id)
}

func (s *Service) ListLabBills(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*LabBill, int, error) {
	return s.labBills.ListByClinic(ctx, clinicID, limit, offset)
}

// -- Pharmacy bills --

type PharmacyItemInput struct {
	ItemType    string     `json:"item_type"`
	MedicineID  *uuid.UUID `json:"medicine_id"`
	ProcedureID *uuid.UUID `json:"procedure_id"`
	Quantity    int        `json:"quantity"`
	UnitPrice   *float64   `json:"unit_price"`
}

type PharmacyBillInput struct {
	PatientID uuid.UUID           `json:"patient_id"`
	BillDate  string              `json:"bill_date"`
	Status    string              `json:"status"`
	Items     []PharmacyItemInput `json:"items"`
}

// buildPharmacyItem resolves the medicine or procedure reference and fills
// the unit price from the catalog when the input omits it.
func (s *Service) buildPharmacyItem(ctx context.Context, clinicID uuid.UUID, in PharmacyItemInput) (*PharmacyBillItem, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	item := &PharmacyBillItem{ItemType: in.ItemType, Quantity: in.Quantity}
	switch in.ItemType {
	case ItemMedicine:
		if in.MedicineID == nil {
			return nil, fmt.Errorf("medicine_id is required for MEDICINE items")
		}
		m, err := s.GetMedicine(ctx, clinicID, *in.MedicineID)
		if err != nil {
			return nil, fmt.Errorf("medicine not found")
		}
		item.MedicineID = &m.ID
		item.UnitPrice = m.UnitPrice
	case ItemProcedure:
		if in.ProcedureID == nil {
			return nil, fmt.Errorf("procedure_id is required for PROCEDURE items")
		}
		p, err := s.GetProcedure(ctx, clinicID, *in.ProcedureID)
		if err != nil {
			return nil, fmt.Errorf("procedure not found")
		}
		item.ProcedureID = &p.ID
		item.UnitPrice = p.Price
	default:
		return nil, fmt.Errorf("invalid item_type %q", in.ItemType)
	}
	if in.UnitPrice != nil {
		if *in.UnitPrice < 0 {
			return nil, fmt.Errorf("unit_price cannot be negative")
		}
		item.UnitPrice = *in.UnitPrice
	}
	item.Subtotal = float64(item.Quantity) * item.UnitPrice
	return item, nil
}

func (s *Service) CreatePharmacyBill(ctx context.Context, clinicID uuid.UUID, in PharmacyBillInput) (*PharmacyBill, error) {
	patient, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}
	if patient.ClinicID != clinicID {
		return nil, fmt.Errorf("patient belongs to another clinic")
	}
	date, err := parseBillDate(in.BillDate)
	if err != nil {
		return nil, err
	}
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}

	b := &PharmacyBill{
		ClinicID:  clinicID,
		PatientID: patient.ID,
		BillDate:  date,
		Status:    status,
	}
	for _, it := range in.Items {
		item, err := s.buildPharmacyItem(ctx, clinicID, it)
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
		b.TotalAmount += item.Subtotal
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		last, err := s.pharmacyBills.LastBillNumber(ctx)
		if err != nil {
			return err
		}
		b.BillNumber = NextBillNumber(last, PrefixPharmacyBill)
		if err := s.pharmacyBills.Create(ctx, b); err != nil {
			return err
		}
		for _, it := range b.Items {
			it.BillID = b.ID
			if it.ItemType == ItemMedicine {
				if err := s.medicines.DecrementStock(ctx, *it.MedicineID, it.Quantity); err != nil {
					return err
				}
			}
			if err := s.pharmacyBills.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.decoratePharmacyItems(b)
	s.logger.Info().Str("bill_number", b.BillNumber).Msg("pharmacy bill created")
	return b, nil
}

// decoratePharmacyItems fills the derived payment fields. Items must
// already carry their payments summed into TotalPaid for PROCEDURE lines.
func (s *Service) decoratePharmacyItems(b *PharmacyBill) {
	var balance float64
	for _, it := range b.Items {
		if it.ItemType == ItemMedicine {
			it.TotalPaid = it.Subtotal
		}
		it.BalanceDue = it.Subtotal - it.TotalPaid
		balance += it.BalanceDue
	}
	b.PaidAmount = b.TotalAmount - balance
}

func (s *Service) loadPharmacyBill(ctx context.Context, b *PharmacyBill) error {
	items, err := s.pharmacyBills.GetItems(ctx, b.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ItemType == ItemProcedure {
			payments, err := s.payments.ListByItem(ctx, it.ID)
			if err != nil {
				return err
			}
			for _, p := range payments {
				it.TotalPaid += p.AmountPaid
			}
		}
	}
	b.Items = items
	s.decoratePharmacyItems(b)
	return nil
}

func (s *Service) GetPharmacyBill(ctx context.Context, clinicID, id uuid.UUID) (*PharmacyBill, error) {
	b, err := s.pharmacyBills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ClinicID != clinicID {
		return nil, fmt.Errorf("bill not found")
	}
	if err := s.loadPharmacyBill(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdatePharmacyBill replaces all items. Payments attached to the old
// items are deleted with them and stock taken by old MEDICINE items is
// not restored.
func (s *Service) UpdatePharmacyBill(ctx context.Context, clinicID, id uuid.UUID, in PharmacyBillInput) (*PharmacyBill, error) {
	b, err := s.pharmacyBills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ClinicID != clinicID {
		return nil, fmt.Errorf("bill not found")
	}
	if in.PatientID != uuid.Nil && in.PatientID != b.PatientID {
		patient, err := s.patients.GetByID(ctx, in.PatientID)
		if err != nil {
			return nil, fmt.Errorf("patient not found")
		}
		if patient.ClinicID != clinicID {
			return nil, fmt.Errorf("patient belongs to another clinic")
		}
		b.PatientID = patient.ID
	}
	if in.BillDate != "" {
		if b.BillDate, err = parseBillDate(in.BillDate); err != nil {
			return nil, err
		}
	}
	if in.Status != "" {
		if b.Status, err = normalizeStatus(in.Status); err != nil {
			return nil, err
		}
	}

	b.Items = nil
	b.TotalAmount = 0
	for _, it := range in.Items {
		item, err := s.buildPharmacyItem(ctx, clinicID, it)
		if err != nil {
			return nil, err
		}
		item.BillID = b.ID
		b.Items = append(b.Items, item)
		b.TotalAmount += item.Subtotal
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		old, err := s.pharmacyBills.GetItems(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, it := range old {
			if err := s.payments.DeleteByItem(ctx, it.ID); err != nil {
				return err
			}
		}
		if err := s.pharmacyBills.DeleteItems(ctx, b.ID); err != nil {
			return err
		}
		for _, it := range b.Items {
			if it.ItemType == ItemMedicine {
				if err := s.medicines.DecrementStock(ctx, *it.MedicineID, it.Quantity); err != nil {
					return err
				}
			}
			if err := s.pharmacyBills.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return s.pharmacyBills.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.decoratePharmacyItems(b)
	return b, nil
}

func (s *Service) DeletePharmacyBill(ctx context.Context, clinicID, id uuid.UUID) error {
	b, err := s.pharmacyBills.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.ClinicID != clinicID {
		return fmt.Errorf("bill not found")
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := s.pharmacyBills.GetItems(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := s.payments.DeleteByItem(ctx, it.ID); err != nil {
				return err
			}
		}
		if err := s.pharmacyBills.DeleteItems(ctx, id); err != nil {
			return err
		}
		return s.pharmacyBills.Delete(ctx, id)
	})
}

func (s *Service) ListPharmacyBills(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*PharmacyBill, int, error) {
	return s.pharmacyBills.ListByClinic(ctx, clinicID, limit, offset)
}

// ListPatientPharmacyBills returns a patient's bills within the clinic.
func (s *Service) ListPatientPharmacyBills(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*PharmacyBill, int, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, 0, fmt.Errorf("patient not found")
	}
	if patient.ClinicID != clinicID {
		return nil, 0, fmt.Errorf("patient belongs to another clinic")
	}
	return s.pharmacyBills.ListByPatient(ctx, patientID, limit, offset)
}

// -- Procedure payments --

type PaymentInput struct {
	BillItemID uuid.UUID `json:"bill_item_id"`
	AmountPaid float64   `json:"amount_paid"`
	Notes      *string   `json:"notes"`
}

// CreatePayment records an installment against a PROCEDURE bill item and
// returns it with the balance remaining as of this payment.
func (s *Service) CreatePayment(ctx context.Context, clinicID uuid.UUID, in PaymentInput) (*ProcedurePayment, error) {
	if in.AmountPaid <= 0 {
		return nil, fmt.Errorf("amount_paid must be positive")
	}
	item, err := s.pharmacyBills.GetItem(ctx, in.BillItemID)
	if err != nil {
		return nil, fmt.Errorf("bill item not found")
	}
	bill, err := s.pharmacyBills.GetByID(ctx, item.BillID)
	if err != nil {
		return nil, err
	}
	if bill.ClinicID != clinicID {
		return nil, fmt.Errorf("bill item not found")
	}
	if item.ItemType != ItemProcedure {
		return nil, ErrNotProcedureItem
	}

	p := &ProcedurePayment{
		BillItemID: item.ID,
		AmountPaid: in.AmountPaid,
		Notes:      in.Notes,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.payments.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	var paid float64
	for _, prev := range payments {
		if prev.Seq <= p.Seq {
			paid += prev.AmountPaid
		}
	}
	p.BalanceDue = item.Subtotal - paid
	return p, nil
}

// ListPayments returns a PROCEDURE item's payments with serialized
// balances in insertion order.
func (s *Service) ListPayments(ctx context.Context, clinicID, itemID uuid.UUID) ([]*ProcedurePayment, error) {
	item, err := s.pharmacyBills.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("bill item not found")
	}
	bill, err := s.pharmacyBills.GetByID(ctx, item.BillID)
	if err != nil {
		return nil, err
	}
	if bill.ClinicID != clinicID {
		return nil, fmt.Errorf("bill item not found")
	}
	payments, err := s.payments.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	var paid float64
	for _, p := range payments {
		paid += p.AmountPaid
		p.BalanceDue = item.Subtotal - paid
	}
	return payments, nil
}
