package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationDimension is one of the two independent rateio axes
type AllocationDimension string

const (
	AllocationDimensionAccountingAccount AllocationDimension = "ACCOUNTING_ACCOUNT"
	AllocationDimensionCostCenter        AllocationDimension = "COST_CENTER"
)

// IsValid checks if the dimension is valid
func (d AllocationDimension) IsValid() bool {
	return d == AllocationDimensionAccountingAccount || d == AllocationDimensionCostCenter
}

// String returns the string representation
func (d AllocationDimension) String() string {
	return string(d)
}

// AllAllocationDimensions returns both dimensions in processing order
func AllAllocationDimensions() []AllocationDimension {
	return []AllocationDimension{AllocationDimensionAccountingAccount, AllocationDimensionCostCenter}
}

const (
	// shareScale is the number of decimal places kept on allocated amounts
	shareScale int32 = 2
	// percentScale is the number of decimal places kept on percentages
	percentScale int32 = 4
)

var (
	hundred = decimal.NewFromInt(100)
	// maxPercentage is the largest magnitude the allocation tables store (DECIMAL(9,4))
	maxPercentage = decimal.RequireFromString("99999.9999")
)

func percentageInRange(p decimal.Decimal) bool {
	return p.Abs().LessThanOrEqual(maxPercentage)
}

// AllocationEntry is a requested document-level allocation
type AllocationEntry struct {
	TargetID   uuid.UUID
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// DocumentAllocation is a persisted document-level allocation row
type DocumentAllocation struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	DocumentID uuid.UUID
	Dimension  AllocationDimension
	TargetID   uuid.UUID
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// InstallmentAllocation is a persisted installment-level allocation row.
// Percentage is relative to the installment value.
type InstallmentAllocation struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	DocumentID    uuid.UUID
	InstallmentID uuid.UUID
	Dimension     AllocationDimension
	TargetID      uuid.UUID
	Amount        decimal.Decimal
	Percentage    decimal.Decimal
}

// SkipReason explains why an entry or installment produced no rows
type SkipReason string

const (
	SkipReasonMissingTarget        SkipReason = "MISSING_TARGET"
	SkipReasonNonPositiveAmount    SkipReason = "NON_POSITIVE_AMOUNT"
	SkipReasonZeroDocumentTotal    SkipReason = "ZERO_DOCUMENT_TOTAL"
	SkipReasonZeroInstallmentValue SkipReason = "ZERO_INSTALLMENT_VALUE"
	// SkipReasonPercentageOutOfRange marks a supplied or derived percentage
	// too large to store, such as an amount far above the document total.
	SkipReasonPercentageOutOfRange SkipReason = "PERCENTAGE_OUT_OF_RANGE"
)

// OutcomeStatus tags an AllocationOutcome
type OutcomeStatus string

const (
	OutcomeAccepted OutcomeStatus = "ACCEPTED"
	OutcomeSkipped  OutcomeStatus = "SKIPPED"
)

// AllocationOutcome records what the splitter did with one entry, or with one
// installment of an accepted entry (InstallmentID set).
type AllocationOutcome struct {
	Status          OutcomeStatus
	Dimension       AllocationDimension
	Entry           AllocationEntry
	Reason          SkipReason
	InstallmentID   uuid.UUID
	InstallmentRows int
	Legacy          bool
}

// IsSkipped reports whether the outcome is a skip
func (o AllocationOutcome) IsSkipped() bool {
	return o.Status == OutcomeSkipped
}

func accepted(dim AllocationDimension, entry AllocationEntry, rows int, legacy bool) AllocationOutcome {
	return AllocationOutcome{Status: OutcomeAccepted, Dimension: dim, Entry: entry, InstallmentRows: rows, Legacy: legacy}
}

func skipped(dim AllocationDimension, entry AllocationEntry, reason SkipReason) AllocationOutcome {
	return AllocationOutcome{Status: OutcomeSkipped, Dimension: dim, Entry: entry, Reason: reason}
}

// SplitInput is everything the splitter needs for one dimension
type SplitInput struct {
	TenantID      uuid.UUID
	DocumentID    uuid.UUID
	Dimension     AllocationDimension
	DocumentTotal decimal.Decimal
	Entries       []AllocationEntry
	// LegacyTarget is used only when Entries is empty.
	LegacyTarget *uuid.UUID
	Installments []Installment
}

// SplitResult carries the rows to insert together with every decision taken
type SplitResult struct {
	DocumentRows    []DocumentAllocation
	InstallmentRows []InstallmentAllocation
	Outcomes        []AllocationOutcome
}

// Skipped returns the skip outcomes only
func (r SplitResult) Skipped() []AllocationOutcome {
	var out []AllocationOutcome
	for _, o := range r.Outcomes {
		if o.IsSkipped() {
			out = append(out, o)
		}
	}
	return out
}

// SplitAllocations computes document-level and installment-level allocation
// rows for one dimension. It has no side effects.
//
// Entries with no target, a non-positive amount or an unstorable percentage
// are skipped. For each kept
// entry, every installment gets share = amount * value / total, rounded to
// cents, and percentage = share / value * 100. A zero total keeps the
// document-level row but produces no installment rows; zero-valued
// installments, and installments whose percentage cannot be stored, are
// skipped individually.
//
// With no entries and a legacy target, a single entry for the whole document
// total is synthesized and every installment receives 100% of its own value.
func SplitAllocations(in SplitInput) SplitResult {
	var result SplitResult
	if len(in.Entries) == 0 {
		if in.LegacyTarget != nil && *in.LegacyTarget != uuid.Nil {
			splitLegacy(in, *in.LegacyTarget, &result)
		}
		return result
	}

	for _, entry := range in.Entries {
		if entry.TargetID == uuid.Nil {
			result.Outcomes = append(result.Outcomes, skipped(in.Dimension, entry, SkipReasonMissingTarget))
			continue
		}
		if !entry.Amount.IsPositive() {
			result.Outcomes = append(result.Outcomes, skipped(in.Dimension, entry, SkipReasonNonPositiveAmount))
			continue
		}

		percentage := entry.Percentage
		if percentage.IsZero() && in.DocumentTotal.IsPositive() {
			percentage = entry.Amount.Div(in.DocumentTotal).Mul(hundred).Round(percentScale)
		}
		if !percentageInRange(percentage) {
			result.Outcomes = append(result.Outcomes, skipped(in.Dimension, entry, SkipReasonPercentageOutOfRange))
			continue
		}
		result.DocumentRows = append(result.DocumentRows, DocumentAllocation{
			TenantID:   in.TenantID,
			DocumentID: in.DocumentID,
			Dimension:  in.Dimension,
			TargetID:   entry.TargetID,
			Amount:     entry.Amount,
			Percentage: percentage,
		})

		if !in.DocumentTotal.IsPositive() {
			result.Outcomes = append(result.Outcomes, skipped(in.Dimension, entry, SkipReasonZeroDocumentTotal))
			continue
		}

		rows := 0
		for i := range in.Installments {
			inst := &in.Installments[i]
			value := inst.Value()
			if !value.IsPositive() {
				result.Outcomes = append(result.Outcomes, installmentSkip(in.Dimension, entry, inst.ID, SkipReasonZeroInstallmentValue))
				continue
			}
			share := entry.Amount.Mul(value).Div(in.DocumentTotal).Round(shareScale)
			sharePercentage := share.Div(value).Mul(hundred).Round(percentScale)
			if !percentageInRange(sharePercentage) {
				result.Outcomes = append(result.Outcomes, installmentSkip(in.Dimension, entry, inst.ID, SkipReasonPercentageOutOfRange))
				continue
			}
			result.InstallmentRows = append(result.InstallmentRows, InstallmentAllocation{
				TenantID:      in.TenantID,
				DocumentID:    in.DocumentID,
				InstallmentID: inst.ID,
				Dimension:     in.Dimension,
				TargetID:      entry.TargetID,
				Amount:        share,
				Percentage:    sharePercentage,
			})
			rows++
		}
		result.Outcomes = append(result.Outcomes, accepted(in.Dimension, entry, rows, false))
	}
	return result
}

func splitLegacy(in SplitInput, target uuid.UUID, result *SplitResult) {
	entry := AllocationEntry{TargetID: target, Amount: in.DocumentTotal, Percentage: hundred}
	// a document worth nothing has nothing to allocate, installments included
	if !in.DocumentTotal.IsPositive() {
		o := skipped(in.Dimension, entry, SkipReasonZeroDocumentTotal)
		o.Legacy = true
		result.Outcomes = append(result.Outcomes, o)
		return
	}

	result.DocumentRows = append(result.DocumentRows, DocumentAllocation{
		TenantID:   in.TenantID,
		DocumentID: in.DocumentID,
		Dimension:  in.Dimension,
		TargetID:   target,
		Amount:     in.DocumentTotal,
		Percentage: hundred,
	})

	rows := 0
	for i := range in.Installments {
		inst := &in.Installments[i]
		value := inst.Value()
		if !value.IsPositive() {
			o := installmentSkip(in.Dimension, entry, inst.ID, SkipReasonZeroInstallmentValue)
			o.Legacy = true
			result.Outcomes = append(result.Outcomes, o)
			continue
		}
		result.InstallmentRows = append(result.InstallmentRows, InstallmentAllocation{
			TenantID:      in.TenantID,
			DocumentID:    in.DocumentID,
			InstallmentID: inst.ID,
			Dimension:     in.Dimension,
			TargetID:      target,
			Amount:        value,
			Percentage:    hundred,
		})
		rows++
	}
	result.Outcomes = append(result.Outcomes, accepted(in.Dimension, entry, rows, true))
}

func installmentSkip(dim AllocationDimension, entry AllocationEntry, installmentID uuid.UUID, reason SkipReason) AllocationOutcome {
	o := skipped(dim, entry, reason)
	o.InstallmentID = installmentID
	return o
}
