package models

import (
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is a row of accounts_payable or accounts_receivable
type DocumentModel struct {
	TenantAggregateModel
	Title               string          `gorm:"type:varchar(255);not null"`
	TotalValue          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IssueDate           time.Time       `gorm:"not null"`
	SettlementDate      *time.Time
	AccountingAccountID *uuid.UUID `gorm:"type:uuid"`
	CostCenterID        *uuid.UUID `gorm:"type:uuid"`
	CounterpartyID      *uuid.UUID `gorm:"type:uuid"`
	Status              string     `gorm:"type:varchar(30)"`
}

// ToDomain converts the model to a domain Document of the given kind
func (m *DocumentModel) ToDomain(kind finance.DocumentKind) *finance.Document {
	return &finance.Document{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Kind:                kind,
		Title:               m.Title,
		TotalValue:          m.TotalValue,
		IssueDate:           m.IssueDate,
		SettlementDate:      m.SettlementDate,
		AccountingAccountID: m.AccountingAccountID,
		CostCenterID:        m.CostCenterID,
		CounterpartyID:      m.CounterpartyID,
		Status:              m.Status,
	}
}

// FromDomain populates the model from a domain Document
func (m *DocumentModel) FromDomain(d *finance.Document) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.Title = d.Title
	m.TotalValue = d.TotalValue
	m.IssueDate = d.IssueDate
	m.SettlementDate = d.SettlementDate
	m.AccountingAccountID = d.AccountingAccountID
	m.CostCenterID = d.CostCenterID
	m.CounterpartyID = d.CounterpartyID
	m.Status = d.Status
}

// HeaderColumns returns the column values an edit rewrites
func (m *DocumentModel) HeaderColumns() map[string]any {
	return map[string]any{
		"title":                 m.Title,
		"total_value":           m.TotalValue,
		"issue_date":            m.IssueDate,
		"settlement_date":       m.SettlementDate,
		"accounting_account_id": m.AccountingAccountID,
		"cost_center_id":        m.CostCenterID,
		"counterparty_id":       m.CounterpartyID,
		"status":                m.Status,
		"updated_at":            m.UpdatedAt,
	}
}

// InstallmentModel is a row of one of the per-kind installment tables
type InstallmentModel struct {
	BaseModel
	TenantID        uuid.UUID       `gorm:"type:uuid;not null"`
	DocumentID      uuid.UUID       `gorm:"type:uuid;not null"`
	Title           string          `gorm:"type:varchar(255)"`
	DueDate         time.Time       `gorm:"not null"`
	PaymentDate     *time.Time
	SettlementDate  *time.Time
	NominalValue    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalValue      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Difference      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status          string          `gorm:"type:varchar(30)"`
	PaymentMethodID *uuid.UUID      `gorm:"type:uuid"`
	BankAccountID   *uuid.UUID      `gorm:"type:uuid"`
}

// ToDomain converts the row to a domain Installment
func (m *InstallmentModel) ToDomain() finance.Installment {
	return finance.Installment{
		ID:              m.ID,
		TenantID:        m.TenantID,
		DocumentID:      m.DocumentID,
		Title:           m.Title,
		DueDate:         m.DueDate,
		PaymentDate:     m.PaymentDate,
		SettlementDate:  m.SettlementDate,
		NominalValue:    m.NominalValue,
		TotalValue:      m.TotalValue,
		Difference:      m.Difference,
		Status:          m.Status,
		PaymentMethodID: m.PaymentMethodID,
		BankAccountID:   m.BankAccountID,
	}
}

// FromDomain populates the row from a domain Installment
func (m *InstallmentModel) FromDomain(i *finance.Installment) {
	m.ID = i.ID
	m.TenantID = i.TenantID
	m.DocumentID = i.DocumentID
	m.Title = i.Title
	m.DueDate = i.DueDate
	m.PaymentDate = i.PaymentDate
	m.SettlementDate = i.SettlementDate
	m.NominalValue = i.NominalValue
	m.TotalValue = i.TotalValue
	m.Difference = i.Difference
	m.Status = i.Status
	m.PaymentMethodID = i.PaymentMethodID
	m.BankAccountID = i.BankAccountID
}

// UpdateColumns returns every mutable column, zero values included
func (m *InstallmentModel) UpdateColumns() map[string]any {
	return map[string]any{
		"title":             m.Title,
		"due_date":          m.DueDate,
		"payment_date":      m.PaymentDate,
		"settlement_date":   m.SettlementDate,
		"nominal_value":     m.NominalValue,
		"total_value":       m.TotalValue,
		"difference":        m.Difference,
		"status":            m.Status,
		"payment_method_id": m.PaymentMethodID,
		"bank_account_id":   m.BankAccountID,
		"updated_at":        m.UpdatedAt,
	}
}

// MovementModel is a row of the shared financial_movements ledger. The pair
// (origin_screen, origin_installment_id) is unique; conditional inserts rely on it.
type MovementModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID       `gorm:"type:uuid;not null"`
	AccountID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_financial_movements_account"`
	Direction           string          `gorm:"type:varchar(10);not null"`
	AmountIn            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AmountOut           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description         string          `gorm:"type:varchar(500)"`
	Detail              string          `gorm:"type:varchar(500)"`
	MovementDate        time.Time       `gorm:"not null"`
	Situation           string          `gorm:"type:varchar(20);not null"`
	OriginScreen        string          `gorm:"type:varchar(30);not null;uniqueIndex:uq_financial_movements_origin,priority:1"`
	OriginInstallmentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_financial_movements_origin,priority:2"`
	CreatedAt           time.Time       `gorm:"not null"`
}

func (MovementModel) TableName() string {
	return "financial_movements"
}

// ToDomain converts the row to a domain Movement
func (m *MovementModel) ToDomain() finance.Movement {
	return finance.Movement{
		ID:                  m.ID,
		TenantID:            m.TenantID,
		AccountID:           m.AccountID,
		Direction:           finance.MovementDirection(m.Direction),
		AmountIn:            m.AmountIn,
		AmountOut:           m.AmountOut,
		Description:         m.Description,
		Detail:              m.Detail,
		MovementDate:        m.MovementDate,
		Situation:           m.Situation,
		OriginScreen:        m.OriginScreen,
		OriginInstallmentID: m.OriginInstallmentID,
		CreatedAt:           m.CreatedAt,
	}
}

// FromDomain populates the row from a domain Movement
func (m *MovementModel) FromDomain(mv *finance.Movement) {
	m.ID = mv.ID
	m.TenantID = mv.TenantID
	m.AccountID = mv.AccountID
	m.Direction = string(mv.Direction)
	m.AmountIn = mv.AmountIn
	m.AmountOut = mv.AmountOut
	m.Description = mv.Description
	m.Detail = mv.Detail
	m.MovementDate = mv.MovementDate
	m.Situation = mv.Situation
	m.OriginScreen = mv.OriginScreen
	m.OriginInstallmentID = mv.OriginInstallmentID
	m.CreatedAt = mv.CreatedAt
}

// DocumentAllocationModel is a document-level allocation row. The dimension
// column keeps accounting-account and cost-center rows apart in one table.
type DocumentAllocationModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null"`
	Dimension  string          `gorm:"type:varchar(30);not null"`
	TargetID   uuid.UUID       `gorm:"type:uuid;not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Percentage decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	CreatedAt  time.Time       `gorm:"not null"`
}

// ToDomain converts the row to a domain DocumentAllocation
func (m *DocumentAllocationModel) ToDomain() finance.DocumentAllocation {
	return finance.DocumentAllocation{
		ID:         m.ID,
		TenantID:   m.TenantID,
		DocumentID: m.DocumentID,
		Dimension:  finance.AllocationDimension(m.Dimension),
		TargetID:   m.TargetID,
		Amount:     m.Amount,
		Percentage: m.Percentage,
	}
}

// FromDomain populates the row from a domain DocumentAllocation
func (m *DocumentAllocationModel) FromDomain(a *finance.DocumentAllocation) {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.DocumentID = a.DocumentID
	m.Dimension = string(a.Dimension)
	m.TargetID = a.TargetID
	m.Amount = a.Amount
	m.Percentage = a.Percentage
}

// InstallmentAllocationModel is an installment-level allocation row
type InstallmentAllocationModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null"`
	DocumentID    uuid.UUID       `gorm:"type:uuid;not null"`
	InstallmentID uuid.UUID       `gorm:"type:uuid;not null"`
	Dimension     string          `gorm:"type:varchar(30);not null"`
	TargetID      uuid.UUID       `gorm:"type:uuid;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Percentage    decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// ToDomain converts the row to a domain InstallmentAllocation
func (m *InstallmentAllocationModel) ToDomain() finance.InstallmentAllocation {
	return finance.InstallmentAllocation{
		ID:            m.ID,
		TenantID:      m.TenantID,
		DocumentID:    m.DocumentID,
		InstallmentID: m.InstallmentID,
		Dimension:     finance.AllocationDimension(m.Dimension),
		TargetID:      m.TargetID,
		Amount:        m.Amount,
		Percentage:    m.Percentage,
	}
}

// FromDomain populates the row from a domain InstallmentAllocation
func (m *InstallmentAllocationModel) FromDomain(a *finance.InstallmentAllocation) {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.DocumentID = a.DocumentID
	m.InstallmentID = a.InstallmentID
	m.Dimension = string(a.Dimension)
	m.TargetID = a.TargetID
	m.Amount = a.Amount
	m.Percentage = a.Percentage
}

// BankAccountModel is a bank account whose balance is derived from its movements
type BankAccountModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// CounterpartyModel is a supplier or customer row; the descriptor names the table
type CounterpartyModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null"`
	Name     string    `gorm:"type:varchar(200);not null"`
}
