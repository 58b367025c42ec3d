package finance

import (
	"strings"
	"time"

	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document is a payable or receivable title. Both kinds share the same shape;
// the Kind field selects the descriptor used to persist it.
type Document struct {
	shared.TenantAggregateRoot
	Kind                DocumentKind
	Title               string
	TotalValue          decimal.Decimal
	IssueDate           time.Time
	SettlementDate      *time.Time
	AccountingAccountID *uuid.UUID
	CostCenterID        *uuid.UUID
	CounterpartyID      *uuid.UUID
	Status              string
}

// DocumentHeader holds the editable header fields of a document
type DocumentHeader struct {
	Title               string
	TotalValue          decimal.Decimal
	IssueDate           time.Time
	SettlementDate      *time.Time
	AccountingAccountID *uuid.UUID
	CostCenterID        *uuid.UUID
	CounterpartyID      *uuid.UUID
	Status              string
}

// Validate checks the header fields
func (h DocumentHeader) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Document title cannot be empty")
	}
	if len(h.Title) > 255 {
		return shared.NewDomainError("INVALID_TITLE", "Document title cannot exceed 255 characters")
	}
	if h.TotalValue.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Document total value cannot be negative")
	}
	if h.IssueDate.IsZero() {
		return shared.NewDomainError("INVALID_ISSUE_DATE", "Document issue date is required")
	}
	return nil
}

// NewDocument creates a document of the given kind. Creation is normally
// handled upstream; the constructor exists for seeding and tests.
func NewDocument(tenantID uuid.UUID, kind DocumentKind, header DocumentHeader) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown document kind: "+string(kind))
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}
	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
	}
	doc.assign(header)
	return doc, nil
}

// ApplyHeader replaces the header fields and bumps the version
func (d *Document) ApplyHeader(header DocumentHeader, now time.Time) error {
	if err := header.Validate(); err != nil {
		return err
	}
	d.assign(header)
	d.Touch(now)
	d.IncrementVersion()
	return nil
}

// Header returns the current header fields
func (d *Document) Header() DocumentHeader {
	return DocumentHeader{
		Title:               d.Title,
		TotalValue:          d.TotalValue,
		IssueDate:           d.IssueDate,
		SettlementDate:      d.SettlementDate,
		AccountingAccountID: d.AccountingAccountID,
		CostCenterID:        d.CostCenterID,
		CounterpartyID:      d.CounterpartyID,
		Status:              d.Status,
	}
}

func (d *Document) assign(h DocumentHeader) {
	d.Title = strings.TrimSpace(h.Title)
	d.TotalValue = h.TotalValue
	d.IssueDate = h.IssueDate
	d.SettlementDate = h.SettlementDate
	d.AccountingAccountID = h.AccountingAccountID
	d.CostCenterID = h.CostCenterID
	d.CounterpartyID = h.CounterpartyID
	d.Status = h.Status
}

// LegacyTarget returns the single header-level target for a dimension, if any
func (d *Document) LegacyTarget(dim AllocationDimension) *uuid.UUID {
	var target *uuid.UUID
	switch dim {
	case AllocationDimensionAccountingAccount:
		target = d.AccountingAccountID
	case AllocationDimensionCostCenter:
		target = d.CostCenterID
	}
	if target == nil || *target == uuid.Nil {
		return nil
	}
	return target
}
