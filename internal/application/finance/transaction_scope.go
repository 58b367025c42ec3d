package finance

import (
	"context"

	"github.com/erp/reconciler/internal/domain/finance"
)

// TransactionScope provides transactional access to the repositories of one
// document kind. Everything done through the repositories handed to fn is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	// Execute runs fn within a database transaction bound to desc's tables.
	Execute(ctx context.Context, desc finance.DocumentDescriptor, fn func(repos TransactionalRepositories) error) error
	// Repositories returns repositories bound to desc outside any transaction,
	// for reads and pre-transaction checks.
	Repositories(desc finance.DocumentDescriptor) TransactionalRepositories
}

// TransactionalRepositories gives access to every store the reconciliation
// touches. All repositories returned by one instance share the same
// underlying transaction.
type TransactionalRepositories interface {
	Documents() finance.DocumentRepository
	Installments() finance.InstallmentRepository
	Movements() finance.MovementRepository
	Allocations() finance.AllocationRepository
	Counterparties() finance.CounterpartyResolver
	Balances() finance.BalanceRecalculator
}

// RepositorySet is a plain TransactionalRepositories value
type RepositorySet struct {
	DocumentRepo     finance.DocumentRepository
	InstallmentRepo  finance.InstallmentRepository
	MovementRepo     finance.MovementRepository
	AllocationRepo   finance.AllocationRepository
	CounterpartyRepo finance.CounterpartyResolver
	BalanceRepo      finance.BalanceRecalculator
}

func (r *RepositorySet) Documents() finance.DocumentRepository       { return r.DocumentRepo }
func (r *RepositorySet) Installments() finance.InstallmentRepository { return r.InstallmentRepo }
func (r *RepositorySet) Movements() finance.MovementRepository       { return r.MovementRepo }
func (r *RepositorySet) Allocations() finance.AllocationRepository   { return r.AllocationRepo }
func (r *RepositorySet) Counterparties() finance.CounterpartyResolver {
	return r.CounterpartyRepo
}
func (r *RepositorySet) Balances() finance.BalanceRecalculator { return r.BalanceRepo }

// NoOpTransactionScope runs fn directly against a fixed repository set
// without a transaction. It is useful for unit tests.
type NoOpTransactionScope struct {
	repos *RepositorySet
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(repos *RepositorySet) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn with the fixed repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, _ finance.DocumentDescriptor, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

// Repositories returns the fixed repositories
func (s *NoOpTransactionScope) Repositories(_ finance.DocumentDescriptor) TransactionalRepositories {
	return s.repos
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*RepositorySet)(nil)
)
