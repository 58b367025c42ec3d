package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCounterpartyResolver reads the supplier or customer name of a document
// through the counterparty table named by the descriptor.
type GormCounterpartyResolver struct {
	db   *gorm.DB
	desc finance.DocumentDescriptor
}

// NewGormCounterpartyResolver creates a resolver that joins desc.CounterpartyTable
func NewGormCounterpartyResolver(db *gorm.DB, desc finance.DocumentDescriptor) *GormCounterpartyResolver {
	return &GormCounterpartyResolver{db: db, desc: desc}
}

// ResolveName returns "" when the document has no counterparty or the
// referenced row is missing.
func (r *GormCounterpartyResolver) ResolveName(ctx context.Context, documentID uuid.UUID) (string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table(r.desc.DocumentTable+" AS d").
		Joins(fmt.Sprintf("JOIN %s AS c ON c.id = d.counterparty_id", r.desc.CounterpartyTable)).
		Where("d.id = ?", documentID).
		Limit(1).
		Pluck("c.name", &names).Error
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s of document %s: %w", r.desc.CounterpartyRole, documentID, err)
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}

// GormBalanceRecalculator recomputes a bank account balance as the sum of its
// movements, inside whatever transaction db belongs to.
type GormBalanceRecalculator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormBalanceRecalculator creates a recalculator over bank_accounts
func NewGormBalanceRecalculator(db *gorm.DB) *GormBalanceRecalculator {
	return &GormBalanceRecalculator{db: db, now: time.Now}
}

const recalculateBalanceSQL = `UPDATE bank_accounts
SET balance = (
	SELECT COALESCE(SUM(amount_in - amount_out), 0)
	FROM financial_movements
	WHERE account_id = ?
), updated_at = ?
WHERE id = ?`

// Recalculate is a no-op for accounts without a bank_accounts row
func (r *GormBalanceRecalculator) Recalculate(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(recalculateBalanceSQL, accountID, r.now(), accountID).Error
}

var (
	_ finance.CounterpartyResolver = (*GormCounterpartyResolver)(nil)
	_ finance.BalanceRecalculator  = (*GormBalanceRecalculator)(nil)
)
