package finance

import (
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EditDocumentRequest carries the full desired state of a document
type EditDocumentRequest struct {
	Header                finance.DocumentHeader
	Installments          []finance.Installment
	AccountingAllocations []finance.AllocationEntry
	CostCenterAllocations []finance.AllocationEntry
	// ExpectedVersion enables the optimistic version check when set
	ExpectedVersion *int
}

// EditDocumentResult summarizes a committed edit
type EditDocumentResult struct {
	DocumentID           uuid.UUID                   `json:"id"`
	Version              int                         `json:"version"`
	InstallmentsInserted int                         `json:"installments_inserted"`
	InstallmentsUpdated  int                         `json:"installments_updated"`
	InstallmentsDeleted  int                         `json:"installments_deleted"`
	MovementsCreated     int                         `json:"movements_created"`
	AccountsRecalculated int                         `json:"accounts_recalculated"`
	AllocationsSkipped   []finance.AllocationOutcome `json:"-"`
}

// DeleteDocumentResult summarizes a committed delete
type DeleteDocumentResult struct {
	DocumentID           uuid.UUID `json:"id"`
	MovementsDeleted     int64     `json:"movements_deleted"`
	InstallmentsDeleted  int64     `json:"installments_deleted"`
	AccountsRecalculated int       `json:"accounts_recalculated"`
}

// DocumentView is the joined read model of a document
type DocumentView struct {
	ID                  uuid.UUID         `json:"id"`
	TenantID            uuid.UUID         `json:"tenant_id"`
	Kind                string            `json:"kind"`
	Title               string            `json:"title"`
	TotalValue          decimal.Decimal   `json:"total_value"`
	IssueDate           time.Time         `json:"issue_date"`
	SettlementDate      *time.Time        `json:"settlement_date,omitempty"`
	AccountingAccountID *uuid.UUID        `json:"accounting_account_id,omitempty"`
	CostCenterID        *uuid.UUID        `json:"cost_center_id,omitempty"`
	CounterpartyID      *uuid.UUID        `json:"counterparty_id,omitempty"`
	Status              string            `json:"status"`
	Version             int               `json:"version"`
	UpdatedAt           time.Time         `json:"updated_at"`
	Installments        []InstallmentView `json:"installments"`
	AccountAllocations  []AllocationView  `json:"accounting_allocations"`
	CostAllocations     []AllocationView  `json:"cost_center_allocations"`
}

// InstallmentView is an installment with its allocations and movement
type InstallmentView struct {
	ID                 uuid.UUID        `json:"id"`
	Title              string           `json:"title"`
	DueDate            time.Time        `json:"due_date"`
	PaymentDate        *time.Time       `json:"payment_date,omitempty"`
	SettlementDate     *time.Time       `json:"settlement_date,omitempty"`
	NominalValue       decimal.Decimal  `json:"nominal_value"`
	TotalValue         decimal.Decimal  `json:"total_value"`
	Difference         decimal.Decimal  `json:"difference"`
	Status             string           `json:"status"`
	PaymentMethodID    *uuid.UUID       `json:"payment_method_id,omitempty"`
	BankAccountID      *uuid.UUID       `json:"bank_account_id,omitempty"`
	AccountAllocations []AllocationView `json:"accounting_allocations"`
	CostAllocations    []AllocationView `json:"cost_center_allocations"`
	Movement           *MovementView    `json:"movement,omitempty"`
}

// AllocationView is one allocation row
type AllocationView struct {
	TargetID   uuid.UUID       `json:"target_id"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// MovementView is the ledger entry generated for an installment
type MovementView struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	MovementDate time.Time       `json:"movement_date"`
	Situation    string          `json:"situation"`
}

// newDocumentView joins the pieces loaded by the query service
func newDocumentView(
	doc *finance.Document,
	installments []finance.Installment,
	docRows []finance.DocumentAllocation,
	instRows []finance.InstallmentAllocation,
	movements []finance.Movement,
) *DocumentView {
	view := &DocumentView{
		ID:                  doc.ID,
		TenantID:            doc.TenantID,
		Kind:                doc.Kind.String(),
		Title:               doc.Title,
		TotalValue:          doc.TotalValue,
		IssueDate:           doc.IssueDate,
		SettlementDate:      doc.SettlementDate,
		AccountingAccountID: doc.AccountingAccountID,
		CostCenterID:        doc.CostCenterID,
		CounterpartyID:      doc.CounterpartyID,
		Status:              doc.Status,
		Version:             doc.Version,
		UpdatedAt:           doc.UpdatedAt,
		Installments:        make([]InstallmentView, 0, len(installments)),
		AccountAllocations:  []AllocationView{},
		CostAllocations:     []AllocationView{},
	}

	for _, row := range docRows {
		av := AllocationView{TargetID: row.TargetID, Amount: row.Amount, Percentage: row.Percentage}
		if row.Dimension == finance.AllocationDimensionCostCenter {
			view.CostAllocations = append(view.CostAllocations, av)
		} else {
			view.AccountAllocations = append(view.AccountAllocations, av)
		}
	}

	byOrigin := make(map[uuid.UUID]finance.Movement, len(movements))
	for _, m := range movements {
		byOrigin[m.OriginInstallmentID] = m
	}

	for _, inst := range installments {
		iv := InstallmentView{
			ID:                 inst.ID,
			Title:              inst.Title,
			DueDate:            inst.DueDate,
			PaymentDate:        inst.PaymentDate,
			SettlementDate:     inst.SettlementDate,
			NominalValue:       inst.NominalValue,
			TotalValue:         inst.TotalValue,
			Difference:         inst.Difference,
			Status:             inst.Status,
			PaymentMethodID:    inst.PaymentMethodID,
			BankAccountID:      inst.BankAccountID,
			AccountAllocations: []AllocationView{},
			CostAllocations:    []AllocationView{},
		}
		for _, row := range instRows {
			if row.InstallmentID != inst.ID {
				continue
			}
			av := AllocationView{TargetID: row.TargetID, Amount: row.Amount, Percentage: row.Percentage}
			if row.Dimension == finance.AllocationDimensionCostCenter {
				iv.CostAllocations = append(iv.CostAllocations, av)
			} else {
				iv.AccountAllocations = append(iv.AccountAllocations, av)
			}
		}
		if m, ok := byOrigin[inst.ID]; ok {
			iv.Movement = &MovementView{
				ID:           m.ID,
				AccountID:    m.AccountID,
				Direction:    string(m.Direction),
				Amount:       m.Amount(),
				Description:  m.Description,
				MovementDate: m.MovementDate,
				Situation:    m.Situation,
			}
		}
		view.Installments = append(view.Installments, iv)
	}
	return view
}
