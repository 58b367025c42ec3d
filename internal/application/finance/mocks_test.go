package finance

import (
	"context"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock repositories
// =============================================================================

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Document), args.Error(1)
}

func (m *MockDocumentRepository) Exists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) UpdateHeader(ctx context.Context, doc *finance.Document, expectedVersion *int) error {
	args := m.Called(ctx, doc, expectedVersion)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) ListIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockInstallmentRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]finance.Installment, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Installment), args.Error(1)
}

// Insert assigns a fresh ID the way a store would before recording the call
func (m *MockInstallmentRepository) Insert(ctx context.Context, inst *finance.Installment) error {
	args := m.Called(ctx, inst)
	if args.Error(0) == nil && inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockInstallmentRepository) Update(ctx context.Context, inst *finance.Installment) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func (m *MockInstallmentRepository) Delete(ctx context.Context, documentID, id uuid.UUID) error {
	args := m.Called(ctx, documentID, id)
	return args.Error(0)
}

func (m *MockInstallmentRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) InsertIfAbsent(ctx context.Context, mv *finance.Movement) (bool, error) {
	args := m.Called(ctx, mv)
	return args.Bool(0), args.Error(1)
}

func (m *MockMovementRepository) DeleteByOrigin(ctx context.Context, originScreen string, installmentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, originScreen, installmentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepository) DeleteByDocument(ctx context.Context, desc finance.DocumentDescriptor, documentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, desc, documentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepository) ListByOrigins(ctx context.Context, originScreen string, installmentIDs []uuid.UUID) ([]finance.Movement, error) {
	args := m.Called(ctx, originScreen, installmentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Movement), args.Error(1)
}

type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockAllocationRepository) DeleteByInstallment(ctx context.Context, documentID, installmentID uuid.UUID) error {
	args := m.Called(ctx, documentID, installmentID)
	return args.Error(0)
}

func (m *MockAllocationRepository) InsertDocumentRows(ctx context.Context, rows []finance.DocumentAllocation) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockAllocationRepository) InsertInstallmentRows(ctx context.Context, rows []finance.InstallmentAllocation) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockAllocationRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]finance.DocumentAllocation, []finance.InstallmentAllocation, error) {
	args := m.Called(ctx, documentID)
	var docs []finance.DocumentAllocation
	var insts []finance.InstallmentAllocation
	if v := args.Get(0); v != nil {
		docs = v.([]finance.DocumentAllocation)
	}
	if v := args.Get(1); v != nil {
		insts = v.([]finance.InstallmentAllocation)
	}
	return docs, insts, args.Error(2)
}

type MockCounterpartyResolver struct {
	mock.Mock
}

func (m *MockCounterpartyResolver) ResolveName(ctx context.Context, documentID uuid.UUID) (string, error) {
	args := m.Called(ctx, documentID)
	return args.String(0), args.Error(1)
}

type MockBalanceRecalculator struct {
	mock.Mock
}

func (m *MockBalanceRecalculator) Recalculate(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

type MockKeyValueCache struct {
	mock.Mock
}

func (m *MockKeyValueCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	var data []byte
	if v := args.Get(0); v != nil {
		data = v.([]byte)
	}
	return data, args.Bool(1), args.Error(2)
}

func (m *MockKeyValueCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockKeyValueCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// mockRepos bundles one mock per store behind a RepositorySet
type mockRepos struct {
	docs           *MockDocumentRepository
	installments   *MockInstallmentRepository
	movements      *MockMovementRepository
	allocations    *MockAllocationRepository
	counterparties *MockCounterpartyResolver
	balances       *MockBalanceRecalculator
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		docs:           new(MockDocumentRepository),
		installments:   new(MockInstallmentRepository),
		movements:      new(MockMovementRepository),
		allocations:    new(MockAllocationRepository),
		counterparties: new(MockCounterpartyResolver),
		balances:       new(MockBalanceRecalculator),
	}
}

func (r *mockRepos) set() *RepositorySet {
	return &RepositorySet{
		DocumentRepo:     r.docs,
		InstallmentRepo:  r.installments,
		MovementRepo:     r.movements,
		AllocationRepo:   r.allocations,
		CounterpartyRepo: r.counterparties,
		BalanceRepo:      r.balances,
	}
}

func (r *mockRepos) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(r.set())
}

func (r *mockRepos) assertExpectations(t mock.TestingT) {
	r.docs.AssertExpectations(t)
	r.installments.AssertExpectations(t)
	r.movements.AssertExpectations(t)
	r.allocations.AssertExpectations(t)
	r.counterparties.AssertExpectations(t)
	r.balances.AssertExpectations(t)
}

// failingScope returns err from Execute without running the callback
type failingScope struct {
	*NoOpTransactionScope
	err error
}

func (s *failingScope) Execute(context.Context, finance.DocumentDescriptor, func(TransactionalRepositories) error) error {
	return s.err
}
