package finance

import (
	"strings"
	"time"

	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementSituationSettled is the situation of every movement generated from a settled installment
const MovementSituationSettled = "SETTLED"

// Movement is a posted cash-ledger entry on a bank or financial account.
// At most one movement exists per (OriginScreen, OriginInstallmentID).
type Movement struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	AccountID           uuid.UUID
	Direction           MovementDirection
	AmountIn            decimal.Decimal
	AmountOut           decimal.Decimal
	Description         string
	Detail              string
	MovementDate        time.Time
	Situation           string
	OriginScreen        string
	OriginInstallmentID uuid.UUID
	CreatedAt           time.Time
}

// Amount returns the absolute amount regardless of direction
func (m *Movement) Amount() decimal.Decimal {
	if m.Direction == MovementDirectionInflow {
		return m.AmountIn
	}
	return m.AmountOut
}

// MovementDescription joins the installment title and counterparty name
func MovementDescription(installmentTitle, counterpartyName string) string {
	title := strings.TrimSpace(installmentTitle)
	name := strings.TrimSpace(counterpartyName)
	switch {
	case name == "":
		return title
	case title == "":
		return name
	}
	return title + " - " + name
}

// BuildMovement derives the ledger entry for a settled, banked installment.
// The installment must already carry its persisted ID.
func BuildMovement(desc DocumentDescriptor, doc *Document, inst *Installment, counterpartyName string, now time.Time) (*Movement, error) {
	if !inst.PostsMovement() {
		return nil, shared.NewDomainError("MOVEMENT_NOT_ELIGIBLE", "Installment is not settled or has no bank account")
	}
	if inst.IsNew() {
		return nil, shared.NewDomainError("MOVEMENT_NOT_ELIGIBLE", "Installment has no identifier")
	}

	amount := inst.Value()
	m := &Movement{
		TenantID:            doc.TenantID,
		AccountID:           *inst.BankAccountID,
		Direction:           desc.Direction,
		AmountIn:            decimal.Zero,
		AmountOut:           decimal.Zero,
		Description:         MovementDescription(inst.Title, counterpartyName),
		Detail:              doc.Title,
		MovementDate:        inst.EffectiveDate(now),
		Situation:           MovementSituationSettled,
		OriginScreen:        desc.OriginScreen,
		OriginInstallmentID: inst.ID,
		CreatedAt:           now,
	}
	if desc.Direction == MovementDirectionInflow {
		m.AmountIn = amount
	} else {
		m.AmountOut = amount
	}
	return m, nil
}
