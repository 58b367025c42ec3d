package persistence

import (
	"context"
	"fmt"
	"time"

	appfinance "github.com/erp/reconciler/internal/application/finance"
	"github.com/erp/reconciler/internal/domain/finance"
	"gorm.io/gorm"
)

// GormTransactionScope implements appfinance.TransactionScope with GORM
// transactions. A failing callback rolls back every statement it issued.
type GormTransactionScope struct {
	db      *gorm.DB
	timeout time.Duration
}

type TransactionScopeOption func(*GormTransactionScope)

// WithStatementTimeout bounds every statement of a transaction through
// PostgreSQL's SET LOCAL statement_timeout. Zero disables the bound; other
// dialects ignore it.
func WithStatementTimeout(d time.Duration) TransactionScopeOption {
	return func(s *GormTransactionScope) {
		s.timeout = d
	}
}

// NewGormTransactionScope creates a scope whose callbacks run inside one db transaction
func NewGormTransactionScope(db *gorm.DB, opts ...TransactionScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs fn within a database transaction bound to desc's tables
func (s *GormTransactionScope) Execute(ctx context.Context, desc finance.DocumentDescriptor, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.timeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", s.timeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set statement timeout: %w", err)
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx, desc: desc})
	})
}

// Repositories returns repositories outside any transaction
func (s *GormTransactionScope) Repositories(desc finance.DocumentDescriptor) appfinance.TransactionalRepositories {
	return &gormTransactionalRepositories{tx: s.db, desc: desc}
}

// gormTransactionalRepositories hands out repositories sharing one *gorm.DB,
// the transaction when created by Execute.
type gormTransactionalRepositories struct {
	tx   *gorm.DB
	desc finance.DocumentDescriptor
}

func (r *gormTransactionalRepositories) Documents() finance.DocumentRepository {
	return NewGormDocumentRepository(r.tx, r.desc)
}

func (r *gormTransactionalRepositories) Installments() finance.InstallmentRepository {
	return NewGormInstallmentRepository(r.tx, r.desc)
}

func (r *gormTransactionalRepositories) Movements() finance.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Allocations() finance.AllocationRepository {
	return NewGormAllocationRepository(r.tx, r.desc)
}

func (r *gormTransactionalRepositories) Counterparties() finance.CounterpartyResolver {
	return NewGormCounterpartyResolver(r.tx, r.desc)
}

func (r *gormTransactionalRepositories) Balances() finance.BalanceRecalculator {
	return NewGormBalanceRecalculator(r.tx)
}

var (
	_ appfinance.TransactionScope          = (*GormTransactionScope)(nil)
	_ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
