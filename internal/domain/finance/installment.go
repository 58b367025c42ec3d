package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// settledStatuses lists the normalized status values that denote a paid
// or compensated installment.
var settledStatuses = map[string]struct{}{
	"paid":       {},
	"pago":       {},
	"settled":    {},
	"liquidado":  {},
	"recebido":   {},
	"compensado": {},
}

// IsSettledStatus reports whether a free-text installment status denotes settlement
func IsSettledStatus(status string) bool {
	_, ok := settledStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// Installment is one scheduled payment or receipt fragment of a Document.
// ID is uuid.Nil until the store assigns one.
type Installment struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	DocumentID      uuid.UUID
	Title           string
	DueDate         time.Time
	PaymentDate     *time.Time
	SettlementDate  *time.Time
	NominalValue    decimal.Decimal
	TotalValue      decimal.Decimal
	Difference      decimal.Decimal
	Status          string
	PaymentMethodID *uuid.UUID
	BankAccountID   *uuid.UUID
}

// IsNew reports whether the installment has not been persisted yet
func (i *Installment) IsNew() bool {
	return i.ID == uuid.Nil
}

// IsSettled reports whether the installment status denotes settlement
func (i *Installment) IsSettled() bool {
	return IsSettledStatus(i.Status)
}

// HasBankAccount reports whether a bank account reference is present
func (i *Installment) HasBankAccount() bool {
	return i.BankAccountID != nil && *i.BankAccountID != uuid.Nil
}

// PostsMovement reports whether the installment produces a ledger movement
func (i *Installment) PostsMovement() bool {
	return i.IsSettled() && i.HasBankAccount()
}

// Value is the total value when set, otherwise the nominal value.
// Absent values are zero.
func (i *Installment) Value() decimal.Decimal {
	if !i.TotalValue.IsZero() {
		return i.TotalValue
	}
	return i.NominalValue
}

// EffectiveDate picks settlement date, then payment date, then now.
func (i *Installment) EffectiveDate(now time.Time) time.Time {
	if i.SettlementDate != nil && !i.SettlementDate.IsZero() {
		return *i.SettlementDate
	}
	if i.PaymentDate != nil && !i.PaymentDate.IsZero() {
		return *i.PaymentDate
	}
	return now
}
