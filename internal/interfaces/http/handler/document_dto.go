package handler

import (
	"strconv"
	"strings"
	"time"

	appfinance "github.com/erp/reconciler/internal/application/finance"
	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UpdateDocumentRequest is the full desired state of a payable or receivable
// @Description Request body for editing a document with its installments and allocations
type UpdateDocumentRequest struct {
	Title                 string               `json:"title" binding:"required,max=255" example:"NF 1234"`
	TotalValue            decimal.Decimal      `json:"total_value" binding:"gte=0" example:"1000.00"`
	IssueDate             string               `json:"issue_date" binding:"required" example:"2024-01-15"`
	SettlementDate        *string              `json:"settlement_date,omitempty" example:"2024-02-15"`
	AccountingAccountID   *string              `json:"accounting_account_id,omitempty" binding:"omitempty,uuid"`
	CostCenterID          *string              `json:"cost_center_id,omitempty" binding:"omitempty,uuid"`
	CounterpartyID        *string              `json:"counterparty_id,omitempty" binding:"omitempty,uuid"`
	Status                string               `json:"status" binding:"max=50" example:"OPEN"`
	Installments          []InstallmentRequest `json:"installments" binding:"dive"`
	AccountingAllocations []AllocationRequest  `json:"accounting_allocations"`
	CostCenterAllocations []AllocationRequest  `json:"cost_center_allocations"`
	ExpectedVersion       *int                 `json:"expected_version,omitempty" binding:"omitempty,min=1" example:"3"`
}

// InstallmentRequest is one installment of an edit. An ID that is empty,
// malformed or owned by another document makes the installment an insert.
type InstallmentRequest struct {
	ID              string          `json:"id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title           string          `json:"title" binding:"max=255" example:"Parcela 1"`
	DueDate         string          `json:"due_date" binding:"required" example:"2024-02-15"`
	PaymentDate     *string         `json:"payment_date,omitempty"`
	SettlementDate  *string         `json:"settlement_date,omitempty"`
	NominalValue    decimal.Decimal `json:"nominal_value" binding:"gte=0" example:"500.00"`
	TotalValue      decimal.Decimal `json:"total_value" binding:"gte=0" example:"500.00"`
	Difference      decimal.Decimal `json:"difference"`
	Status          string          `json:"status" binding:"max=50" example:"Pago"`
	PaymentMethodID *string         `json:"payment_method_id,omitempty" binding:"omitempty,uuid"`
	BankAccountID   *string         `json:"bank_account_id,omitempty" binding:"omitempty,uuid"`
}

// AllocationRequest is one document-level allocation entry. Entries with a
// missing target or a non-positive amount are skipped, never rejected.
type AllocationRequest struct {
	TargetID   string          `json:"target_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount     decimal.Decimal `json:"amount" example:"600.00"`
	Percentage decimal.Decimal `json:"percentage" example:"60"`
}

// UpdateDocumentResponse summarizes a committed edit
// @Description Result of a document edit
type UpdateDocumentResponse struct {
	ID                   string                   `json:"id"`
	Version              int                      `json:"version"`
	InstallmentsInserted int                      `json:"installments_inserted"`
	InstallmentsUpdated  int                      `json:"installments_updated"`
	InstallmentsDeleted  int                      `json:"installments_deleted"`
	MovementsCreated     int                      `json:"movements_created"`
	AccountsRecalculated int                      `json:"accounts_recalculated"`
	AllocationsSkipped   []SkippedAllocationEntry `json:"allocations_skipped"`
}

// SkippedAllocationEntry reports an allocation entry the splitter dropped
type SkippedAllocationEntry struct {
	Dimension     string `json:"dimension"`
	TargetID      string `json:"target_id,omitempty"`
	InstallmentID string `json:"installment_id,omitempty"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason"`
}

// DeleteDocumentResponse summarizes a committed delete
type DeleteDocumentResponse struct {
	ID                   string `json:"id"`
	MovementsDeleted     int64  `json:"movements_deleted"`
	InstallmentsDeleted  int64  `json:"installments_deleted"`
	AccountsRecalculated int    `json:"accounts_recalculated"`
}

// dateLayouts are the accepted date formats, tried in order
var dateLayouts = []string{time.DateOnly, time.RFC3339, time.RFC3339Nano}

// parseDate accepts a calendar date or an RFC 3339 timestamp
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseOptionalDate treats nil and blank as absent
func parseOptionalDate(s *string) (*time.Time, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	t, ok := parseDate(*s)
	if !ok {
		return nil, false
	}
	return &t, true
}

// parseOptionalUUID treats nil and blank as absent. Binding has already
// checked the format of non-blank values.
func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &id
}

// lenientUUID maps anything unparseable to uuid.Nil
func lenientUUID(s string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// toEditRequest converts the payload into the service request. It returns
// the fields whose dates could not be parsed.
func (r UpdateDocumentRequest) toEditRequest() (appfinance.EditDocumentRequest, []string) {
	var invalid []string

	issueDate, ok := parseDate(r.IssueDate)
	if !ok {
		invalid = append(invalid, "issue_date")
	}
	settlementDate, ok := parseOptionalDate(r.SettlementDate)
	if !ok {
		invalid = append(invalid, "settlement_date")
	}

	req := appfinance.EditDocumentRequest{
		Header: finance.DocumentHeader{
			Title:               strings.TrimSpace(r.Title),
			TotalValue:          r.TotalValue,
			IssueDate:           issueDate,
			SettlementDate:      settlementDate,
			AccountingAccountID: parseOptionalUUID(r.AccountingAccountID),
			CostCenterID:        parseOptionalUUID(r.CostCenterID),
			CounterpartyID:      parseOptionalUUID(r.CounterpartyID),
			Status:              r.Status,
		},
		Installments:          make([]finance.Installment, 0, len(r.Installments)),
		AccountingAllocations: toAllocationEntries(r.AccountingAllocations),
		CostCenterAllocations: toAllocationEntries(r.CostCenterAllocations),
		ExpectedVersion:       r.ExpectedVersion,
	}

	for i, in := range r.Installments {
		inst, fields := in.toInstallment()
		for _, f := range fields {
			invalid = append(invalid, "installments["+strconv.Itoa(i)+"]."+f)
		}
		req.Installments = append(req.Installments, inst)
	}
	return req, invalid
}

func (r InstallmentRequest) toInstallment() (finance.Installment, []string) {
	var invalid []string
	dueDate, ok := parseDate(r.DueDate)
	if !ok {
		invalid = append(invalid, "due_date")
	}
	paymentDate, ok := parseOptionalDate(r.PaymentDate)
	if !ok {
		invalid = append(invalid, "payment_date")
	}
	settlementDate, ok := parseOptionalDate(r.SettlementDate)
	if !ok {
		invalid = append(invalid, "settlement_date")
	}
	return finance.Installment{
		ID:              lenientUUID(r.ID),
		Title:           r.Title,
		DueDate:         dueDate,
		PaymentDate:     paymentDate,
		SettlementDate:  settlementDate,
		NominalValue:    r.NominalValue,
		TotalValue:      r.TotalValue,
		Difference:      r.Difference,
		Status:          r.Status,
		PaymentMethodID: parseOptionalUUID(r.PaymentMethodID),
		BankAccountID:   parseOptionalUUID(r.BankAccountID),
	}, invalid
}

func toAllocationEntries(in []AllocationRequest) []finance.AllocationEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]finance.AllocationEntry, 0, len(in))
	for _, a := range in {
		out = append(out, finance.AllocationEntry{
			TargetID:   lenientUUID(a.TargetID),
			Amount:     a.Amount,
			Percentage: a.Percentage,
		})
	}
	return out
}

func toUpdateDocumentResponse(r *appfinance.EditDocumentResult) UpdateDocumentResponse {
	resp := UpdateDocumentResponse{
		ID:                   r.DocumentID.String(),
		Version:              r.Version,
		InstallmentsInserted: r.InstallmentsInserted,
		InstallmentsUpdated:  r.InstallmentsUpdated,
		InstallmentsDeleted:  r.InstallmentsDeleted,
		MovementsCreated:     r.MovementsCreated,
		AccountsRecalculated: r.AccountsRecalculated,
		AllocationsSkipped:   make([]SkippedAllocationEntry, 0, len(r.AllocationsSkipped)),
	}
	for _, o := range r.AllocationsSkipped {
		entry := SkippedAllocationEntry{
			Dimension: o.Dimension.String(),
			Amount:    o.Entry.Amount.StringFixed(2),
			Reason:    string(o.Reason),
		}
		if o.Entry.TargetID != uuid.Nil {
			entry.TargetID = o.Entry.TargetID.String()
		}
		if o.InstallmentID != uuid.Nil {
			entry.InstallmentID = o.InstallmentID.String()
		}
		resp.AllocationsSkipped = append(resp.AllocationsSkipped, entry)
	}
	return resp
}

func toDeleteDocumentResponse(r *appfinance.DeleteDocumentResult) DeleteDocumentResponse {
	return DeleteDocumentResponse{
		ID:                   r.DocumentID.String(),
		MovementsDeleted:     r.MovementsDeleted,
		InstallmentsDeleted:  r.InstallmentsDeleted,
		AccountsRecalculated: r.AccountsRecalculated,
	}
}
